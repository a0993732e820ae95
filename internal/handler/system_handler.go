package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports service identity and dependency health.
type SystemHandler struct {
	store     repository.Store
	rdb       *redis.Client
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. rdb may be nil.
func NewSystemHandler(store repository.Store, rdb *redis.Client) *SystemHandler {
	return &SystemHandler{store: store, rdb: rdb, startTime: time.Now()}
}

// Root godoc
// GET /
func (h *SystemHandler) Root(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"message": "AutoExamChecker API is running",
		"store":   h.store.Mode(),
	})
}

type healthReport struct {
	Status       string `json:"status"`
	Store        string `json:"store"`
	StoreOK      bool   `json:"store_ok"`
	Redis        string `json:"redis"`
	DiscardQueue int64  `json:"discard_queue"`
	Uptime       string `json:"uptime"`
	Goroutines   int    `json:"goroutines"`
	HeapAlloc    uint64 `json:"heap_alloc"`
	GoVersion    string `json:"go_version"`
}

// Health godoc
// GET /health
// Returns 503 when the store is unreachable. Redis is optional and only reported.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	report := healthReport{
		Status:     "ok",
		Store:      h.store.Mode(),
		StoreOK:    h.store.Ping(ctx) == nil,
		Redis:      "disabled",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		GoVersion:  runtime.Version(),
	}

	if h.rdb != nil {
		pipe := h.rdb.Pipeline()
		pingCmd := pipe.Ping(ctx)
		queueCmd := pipe.LLen(ctx, config.WorkerKey.DiscardFilesQueue)
		_, _ = pipe.Exec(ctx)
		report.Redis = "ok"
		if pingCmd.Err() != nil {
			report.Redis = "unreachable"
		}
		report.DiscardQueue, _ = queueCmd.Result()
	}

	status := http.StatusOK
	if !report.StoreOK {
		report.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}
