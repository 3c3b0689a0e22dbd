package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kalambet/folio/internal/profile"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the HTTP handlers need.
type Deps struct {
	Profiles   *profile.Manager
	CORSOrigin string       // allowed browser origin; empty disables CORS headers
	Logger     *slog.Logger // optional; defaults to slog.Default()
	Ping       func() error // optional storage probe for /health
}

// NewHandler returns the folio REST API: health, profile CRUD under
// /api/profile and the read-only query routes.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(deps.Logger))
	if deps.CORSOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{deps.CORSOrigin},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", handleHealth(deps))

	r.Route("/api", func(r chi.Router) {
		r.Post("/profile", handleCreateProfile(deps))
		r.Get("/profile", handleListProfiles(deps))
		r.Get("/profile/{id}", handleGetProfile(deps))
		r.Put("/profile/{id}", handleUpdateProfile(deps))
		r.Delete("/profile/{id}", handleDeleteProfile(deps))

		r.Get("/projects", handleProjectsBySkill(deps))
		r.Get("/skills/top", handleTopSkills(deps))
		r.Get("/search", handleSearch(deps))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusMethodNotAllowed, "invalid_request_error", "Method %s not allowed", r.Method)
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Ping != nil {
			if err := deps.Ping(); err != nil {
				deps.Logger.Error("health check: storage unreachable", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// httpError writes {"error": msg, "type": errType}. The error field stays a
// plain string so browser clients can show it directly.
func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]string{
		"error": fmt.Sprintf(format, args...),
		"type":  errType,
	})
}
