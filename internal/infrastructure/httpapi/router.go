package httpapi

import (
	"net/http"

	"web-agent/internal/application/port/input"
	"web-agent/internal/application/port/output"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
)

type Config struct {
	ServiceName string
	// JSONAccessLog switches httplog between JSON and pretty console output.
	JSONAccessLog bool
}

func DefaultConfig() Config {
	return Config{
		ServiceName:   "web-agent",
		JSONAccessLog: true,
	}
}

type handlers struct {
	runner input.RunExecutor
	logger output.LoggerPort
}

func NewRouter(runner input.RunExecutor, logger output.LoggerPort, cfg Config) http.Handler {
	h := &handlers{runner: runner, logger: logger}

	accessLog := httplog.NewLogger(cfg.ServiceName, httplog.Options{
		JSON:    cfg.JSONAccessLog,
		Concise: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(accessLog))

	r.Get("/healthz", h.handleHealth)
	r.Post("/api/agent", h.handleAgent)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorCodeMethod, "method not allowed")
	})

	return r
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
