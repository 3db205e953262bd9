package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/httpmw"
	"wellness-nudges-backend/internal/tasks"
)

const (
	serviceName    = "Wellness Nudges API"
	serviceVersion = "1.0.0"
)

type Options struct {
	CORSOrigins []string
	// Events backs GET /admin/events. Nil when recording is disabled.
	Events analytics.EventReader
	Logger *log.Logger
}

// NewRouter wires every route behind CORS and the middleware chain.
func NewRouter(svc *tasks.Service, opts Options) http.Handler {
	h := tasks.NewHandler(svc, opts.Logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/recommendations", h.Recommendations())
	mux.HandleFunc("/actions/complete", h.Complete())
	mux.HandleFunc("/actions/dismiss", h.Dismiss())

	mux.HandleFunc("/admin/seed", h.Seed())
	mux.HandleFunc("/admin/tasks", h.ListTasks())
	mux.HandleFunc("/admin/reset", h.Reset())
	mux.HandleFunc("/admin/events", analytics.RecentEventsHandler(opts.Events, opts.Logger))

	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/", indexHandler)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Platform", "X-App-Version", "X-Session-Id", "X-Request-Id"},
		AllowCredentials: true,
	})

	return httpmw.Chain(c.Handler(mux),
		httpmw.WithRequestID,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRecover(opts.Logger),
	)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   serviceName + " is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || r.Method != http.MethodGet {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  "Endpoint not found",
			"path":   r.URL.Path,
			"method": r.Method,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        serviceName,
		"version":     serviceVersion,
		"description": "Deterministic prioritization engine for wellness tasks",
		"endpoints": map[string]string{
			"health":          "GET /health",
			"recommendations": "POST /recommendations",
			"complete":        "POST /actions/complete",
			"dismiss":         "POST /actions/dismiss",
			"seed":            "POST /admin/seed",
			"tasks":           "GET /admin/tasks",
			"reset":           "POST /admin/reset",
			"events":          "GET /admin/events",
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
