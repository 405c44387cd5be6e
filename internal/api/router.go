package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quinot/ESP-01-MQTT-relay/internal/webui"
)

// buildRouter assembles the HTTP surface: the JSON API under /api/v1 and
// the status page everywhere else.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware, s.loggingMiddleware, s.recoveryMiddleware, s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// JSON errors for unknown API paths instead of the fallback page.
		r.NotFound(s.handleAPINotFound)
		r.MethodNotAllowed(s.handleMethodNotAllowed)

		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
		r.Post("/reboot", s.handleReboot)
		r.Get("/ws", s.handleWebSocket)
	})

	// Status page (embedded via go:embed). The wildcard also catches stale
	// links, which the page handler folds back to the index.
	r.Handle("/*", webui.Handler(s.uiDir))

	return r
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// handleHealth reports process liveness for scripted checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, "no such endpoint")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow,
		r.Method+" is not supported on this endpoint")
}
