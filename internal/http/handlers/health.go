package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/earn-portal/internal/http/respond"
	"github.com/hongminglow/earn-portal/internal/promo"
)

// HealthHandler reports liveness, uptime and the current landing counters.
type HealthHandler struct {
	startedAt time.Time
	counters  *promo.Simulator
	out       *respond.Writer
}

// NewHealthHandler creates the /health handler.
func NewHealthHandler(startedAt time.Time, counters *promo.Simulator, out *respond.Writer) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, counters: counters, out: out}
}

// Register wires the handler into the router.
func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/health", h.handle)
}

type healthReport struct {
	Status    string         `json:"status"`
	Uptime    string         `json:"uptime"`
	StartedAt time.Time      `json:"started_at"`
	Counters  promo.Snapshot `json:"counters"`
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	h.out.JSON(w, r, http.StatusOK, "ok", healthReport{
		Status:    "ok",
		Uptime:    time.Since(h.startedAt).Truncate(time.Second).String(),
		StartedAt: h.startedAt.UTC(),
		Counters:  h.counters.Snapshot(),
	})
}
