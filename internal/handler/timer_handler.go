package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/middleware"
	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	ws "github.com/GandharvMahajan/AutoExamChecker/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	tickInterval   = time.Second
	resyncInterval = 15 * time.Second
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// TimerHandler streams the countdown of an attempt over WebSocket.
type TimerHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewTimerHandler creates a new TimerHandler.
func NewTimerHandler(sessions *service.SessionService, log zerolog.Logger, allowedOrigins []string) *TimerHandler {
	return &TimerHandler{
		sessions: sessions,
		log:      log.With().Str("component", "timer_ws").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/tests/:id/timer?token=
// Sends the session state on connect, a tick every second and a final
// expired or completed event before closing. Clients may send
// {"action":"ping"} or {"action":"sync"} (after a restart).
func (h *TimerHandler) Stream(c *gin.Context) {
	examID, ok := parseID(c, "id")
	if !ok {
		return
	}
	accountID := middleware.AccountID(c)
	ctx := c.Request.Context()

	// Fail over plain HTTP before upgrading when there is nothing to time.
	state, err := h.sessions.State(ctx, accountID, examID)
	if err != nil {
		failWith(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("account_id", accountID).Int("exam_id", examID).Logger()
	wsLog.Debug().Msg("Timer connected")

	if !h.sendState(conn, state) {
		return
	}

	done := make(chan struct{})
	defer close(done)
	actions := make(chan ws.Action, 4)
	go readActions(conn, actions, done, wsLog)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	resync := time.NewTicker(resyncInterval)
	defer resync.Stop()

	endsAt := state.EndsAt
	for {
		select {
		case <-ctx.Done():
			return

		case action, open := <-actions:
			if !open {
				return
			}
			switch action {
			case ws.ActionPing:
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionSync:
				if endsAt, ok = h.refresh(ctx, conn, accountID, examID); !ok {
					return
				}
			default:
				_ = ws.WriteError(conn, "unknown action: "+string(action))
			}

		case <-resync.C:
			if endsAt, ok = h.refresh(ctx, conn, accountID, examID); !ok {
				return
			}

		case now := <-ticker.C:
			remaining := endsAt.Sub(now)
			if remaining <= 0 {
				_ = ws.WriteTyped(conn, ws.ClosingResponse{Event: ws.EventExpired})
				ws.CloseNormal(conn, "time is up")
				return
			}
			if err := ws.WriteTyped(conn, ws.TickResponse{Event: ws.EventTick, Remaining: int64(remaining / time.Second)}); err != nil {
				wsLog.Debug().Err(err).Msg("Tick write failed")
				return
			}
		}
	}
}

// sendState writes the state, or the terminal event when the attempt is
// over. It reports whether the stream should continue.
func (h *TimerHandler) sendState(conn *websocket.Conn, state *model.SessionState) bool {
	switch {
	case state.Status == model.SessionStatusCompleted:
		_ = ws.WriteTyped(conn, ws.ClosingResponse{Event: ws.EventCompleted})
		ws.CloseNormal(conn, "test submitted")
		return false
	case state.Expired:
		_ = ws.WriteTyped(conn, ws.ClosingResponse{Event: ws.EventExpired})
		ws.CloseNormal(conn, "time is up")
		return false
	}
	return ws.WriteTyped(conn, ws.StateResponse{Event: ws.EventState, State: state}) == nil
}

// refresh reloads the state so restarts and submits made elsewhere show up.
func (h *TimerHandler) refresh(ctx context.Context, conn *websocket.Conn, accountID, examID int) (time.Time, bool) {
	state, err := h.sessions.State(ctx, accountID, examID)
	if err != nil {
		_ = ws.WriteError(conn, err.Error())
		return time.Time{}, false
	}
	if !h.sendState(conn, state) {
		return time.Time{}, false
	}
	return state.EndsAt, true
}

// readActions forwards client actions until the connection fails or done
// is closed, then closes out.
func readActions(conn *websocket.Conn, out chan<- ws.Action, done <-chan struct{}, log zerolog.Logger) {
	defer close(out)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		select {
		case out <- msg.Action:
		case <-done:
			return
		}
	}
}
