// Package server provides the HTTP server and routing for stockdash.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/temadison/stockdash/internal/database"
	ledgerhandlers "github.com/temadison/stockdash/internal/modules/ledger/handlers"
	portfoliohandlers "github.com/temadison/stockdash/internal/modules/portfolio/handlers"
	priceshandlers "github.com/temadison/stockdash/internal/modules/prices/handlers"
	synchandlers "github.com/temadison/stockdash/internal/modules/sync/handlers"
)

// Config holds server configuration
type Config struct {
	Log               zerolog.Logger
	Port              int
	DevMode           bool
	DataDir           string
	LedgerDB          *database.DB
	HistoryDB         *database.DB
	PortfolioHandlers *portfoliohandlers.Handler
	LedgerHandlers    *ledgerhandlers.Handler
	PricesHandlers    *priceshandlers.Handler
	SyncHandlers      *synchandlers.Handler
}

// Server is the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DataDir, cfg.LedgerDB, cfg.HistoryDB),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.RealIP)
	s.router.Use(CorrelationID)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)

	// Dev mode allows the local frontend dev server
	allowedOrigins := []string{"http://localhost:8080"}
	if devMode {
		allowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Correlation-Id"},
		ExposedHeaders:   []string{"X-Correlation-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/portfolio", func(r chi.Router) {
		s.cfg.PortfolioHandlers.RegisterRoutes(r)
		s.cfg.LedgerHandlers.RegisterRoutes(r)
		s.cfg.PricesHandlers.RegisterRoutes(r)
		s.cfg.SyncHandlers.RegisterRoutes(r)
	})

	s.router.Route("/api/system", func(r chi.Router) {
		r.Get("/health", s.systemHandlers.HandleHealth)
	})
}

// Start begins serving HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, draining in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() chi.Router {
	return s.router
}

// requestLogger logs each request with method, path, status and duration
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("correlation_id", GetCorrelationID(r.Context())).
				Msg("Request handled")
		})
	}
}
