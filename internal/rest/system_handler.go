package rest

import (
	"context"
	"net/http"
	"time"

	"shophub-be/internal/metrics"
	"shophub-be/internal/utils"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type SystemHandler struct {
	DB       Pinger
	Registry *metrics.Registry
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "database": "down"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.Registry.Snapshot())
}
