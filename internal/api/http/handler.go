package http

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/ytfetch/ytfetch/internal/cookies"
	"github.com/ytfetch/ytfetch/internal/ratelimit"
	"github.com/ytfetch/ytfetch/internal/session"
)

// StatusHandler serves the read-only operational endpoints.
type StatusHandler struct {
	limiter  *ratelimit.Limiter
	cookies  *cookies.Store
	sessions *session.Store
	logger   *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(limiter *ratelimit.Limiter, store *cookies.Store, sessions *session.Store, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		limiter:  limiter,
		cookies:  store,
		sessions: sessions,
		logger:   logger,
	}
}

// Healthz handles GET /healthz.
func (h *StatusHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status handles GET /status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rate_limiter":  h.limiter.Stats(),
		"cookies_found": h.cookies.HasAny(),
		"sessions":      h.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
