// Package health exposes process liveness and database readiness,
// grounded on the teacher's internal/health/handler.go trimmed down to
// the pool-ping + uptime core: spec.md §1 marks telemetry emission out
// of scope, so the teacher's build-info/Prometheus/full-diagnostics
// surface (unused outside its own admin console) is dropped rather
// than carried forward unwired.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"exchangecore/internal/httputil"
)

const dbPingTimeout = 1 * time.Second

type Handler struct {
	pool      *pgxpool.Pool
	startedAt time.Time
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{pool: pool, startedAt: start}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}

type readinessResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	UptimeSec int64           `json:"uptime_sec"`
	Database  readinessDBStat `json:"database"`
}

type readinessDBStat struct {
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func (h *Handler) pingDB(ctx context.Context) readinessDBStat {
	if h.pool == nil {
		return readinessDBStat{Error: "pool is not configured"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	start := time.Now()
	err := h.pool.Ping(pingCtx)
	ms := time.Since(start).Milliseconds()
	if err != nil {
		return readinessDBStat{PingMs: ms, Error: err.Error()}
	}
	return readinessDBStat{Reachable: true, PingMs: ms}
}

// Live is a lightweight liveness endpoint; it does not touch the database.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
	})
}

// Ready pings the database and reports 503 when it's unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	db := h.pingDB(r.Context())
	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
		Database:  db,
	})
}

// Get is the combined /health summary; readiness implies liveness.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.Ready(w, r)
}
