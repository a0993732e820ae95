package websocket

import "github.com/GandharvMahajan/AutoExamChecker/internal/model"

// Actions (client to server).

type Action string

const (
	ActionPing Action = "ping"
	ActionSync Action = "sync"
)

// RequestEnvelope is the only shape clients send.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// Events (server to client).

type Event string

const (
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventExpired   Event = "expired"
	EventCompleted Event = "completed"
	EventPong      Event = "pong"
	EventError     Event = "error"
)

// StateResponse carries the full timer view, sent on connect and on sync.
type StateResponse struct {
	Event Event               `json:"event"`
	State *model.SessionState `json:"state"`
}

// TickResponse is pushed every second while time remains.
type TickResponse struct {
	Event     Event `json:"event"`
	Remaining int64 `json:"remaining"`
}

// ClosingResponse is the last message before the server closes the stream.
type ClosingResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
