package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joineryai/quote-engine/internal/entity"
	"github.com/joineryai/quote-engine/internal/export"
	"github.com/joineryai/quote-engine/internal/processor"
)

// Server exposes the quote pipeline over HTTP.
type Server struct {
	processor      *processor.Processor
	exporter       *export.Service
	fetcher        Fetcher
	pricingDefault entity.PricingConfig
	logger         *slog.Logger
	httpServer     *http.Server
}

func New(proc *processor.Processor, exporter *export.Service, fetcher Fetcher, pricingDefault entity.PricingConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if pricingDefault.RoundTo <= 0 {
		pricingDefault.RoundTo = 2
	}
	return &Server{
		processor:      proc,
		exporter:       exporter,
		fetcher:        fetcher,
		pricingDefault: pricingDefault,
		logger:         logger,
	}
}

// Router builds the chi router with all quote endpoints mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/parse-quote", s.handleParseQuote)
	r.Post("/process-quote", s.handleProcessQuote)
	r.Post("/train", s.handleTrain)
	r.Post("/export-quote", s.handleExportQuote)
	r.Post("/debug-parse", s.handleDebugParse)

	return r
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
