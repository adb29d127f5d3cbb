package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/panevka/nhsmongifyer/internal/server/middleware"
	"github.com/panevka/nhsmongifyer/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found", r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method)
	})

	r.Get("/health", s.handleHealth)
	if s.config.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route(s.config.PathPrefix, func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/branches", s.handleBranches)
		r.Get("/services", s.handleServices)
		r.Get("/partitions", s.handlePartitions)
		r.Route("/partitions/{branch}/{service}", func(r chi.Router) {
			r.Get("/collections/{kind}", s.handleCollection)
			r.Get("/providers/{code}", s.handleProvider)
		})
	})
	return r
}
