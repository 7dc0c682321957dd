package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"legal-letter-ai/internal/usecase"
)

type Server struct {
	genUC usecase.GenerationUseCase
	auth  *AuthManager
	log   *zerolog.Logger
}

func NewServer(genUC usecase.GenerationUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{genUC: genUC, auth: auth, log: &webLog}
}

// Router builds the HTTP surface. Everything under /api/v1 requires a valid
// bearer token; health and metrics stay open for probes and scrapers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Post("/letters/generate", s.startGenerationHandler)
		r.Get("/letters/{letterID}/generation", s.generationStatusHandler)
		r.Delete("/letters/{letterID}/generation", s.cancelGenerationHandler)
		r.Get("/queue/stats", s.queueStatsHandler)
	})
	return r
}
