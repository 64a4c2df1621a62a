// Package api exposes the catalog and enrichment entry points over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aqmex/sinaica-scraper/internal/catalog"
	"github.com/aqmex/sinaica-scraper/internal/metrics"
	"github.com/aqmex/sinaica-scraper/internal/pollutant"
)

// CatalogService is the slice of the application the HTTP layer needs.
type CatalogService interface {
	Catalog() *catalog.Catalog
	EnrichInPlace(ctx context.Context, stateName string, start time.Time, window pollutant.Window) ([]*catalog.Station, error)
	EnrichSnapshot(ctx context.Context, stateName string, start time.Time, window pollutant.Window) ([]*catalog.Station, error)
}

// Server wires HTTP handlers to the catalog service.
type Server struct {
	router chi.Router
	svc    CatalogService
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc CatalogService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.getCatalog)
		r.Route("/states/{name}", func(r chi.Router) {
			r.Get("/", s.getState)
			r.Post("/enrich", s.enrichState)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
