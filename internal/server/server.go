// Package server exposes the city selector, field selector, map layer, table
// and detail panel of per-client view sessions over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/district-demographics/internal/monitoring"
	"github.com/sells-group/district-demographics/internal/registry"
	"github.com/sells-group/district-demographics/internal/session"
)

// Deps are the collaborators the handlers use.
type Deps struct {
	Registry       *registry.Registry
	Sessions       *session.Store
	Collector      *monitoring.Collector
	ResultsDir     string
	AllowedOrigins []string
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// New creates a Server.
func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router builds the chi router with middleware and every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.stats)
		r.Get("/cities", s.cities)
		r.Get("/fields", s.fields)

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.snapshot)
			r.Delete("/", s.deleteSession)
			r.Put("/city", s.selectCity)
			r.Put("/field", s.selectField)
			r.Post("/activate", s.activate)
			r.Delete("/selection", s.dismiss)
			r.Post("/sort", s.sort)
			r.Get("/layer.geojson", s.layer)
			r.Get("/export.{format}", s.export)
			r.Get("/ws", s.stream)
		})
	})

	if s.deps.ResultsDir != "" {
		r.Handle("/results/*", http.StripPrefix("/results/", http.FileServer(http.Dir(s.deps.ResultsDir))))
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
