package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler reports whether the document store is reachable and which
// environment backend the server runs with.
type HealthHandler struct {
	storeDriver string
	backend     string
	degraded    bool
	ping        func(ctx context.Context) error
}

func NewHealthHandler(storeDriver string, backend string, degraded bool, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{storeDriver: storeDriver, backend: backend, degraded: degraded, ping: ping}
}

type healthStatus struct {
	Status   string `json:"status"`
	Store    string `json:"store"`
	Backend  string `json:"backend"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:   "ok",
		Store:    h.storeDriver,
		Backend:  h.backend,
		Degraded: h.degraded,
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			status.Status = "unavailable"
			status.Error = err.Error()
			writeSuccess(w, http.StatusServiceUnavailable, status, nil)
			return
		}
	}

	writeSuccess(w, http.StatusOK, status, nil)
}
