// Package server provides the HTTP server and routing for the advisor.
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

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/modules/assistant"
	"github.com/aristath/advisor/internal/modules/audit"
	"github.com/aristath/advisor/internal/modules/backtest"
	"github.com/aristath/advisor/internal/modules/forecast"
	"github.com/aristath/advisor/internal/modules/journal"
	"github.com/aristath/advisor/internal/modules/news"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/portfolio"
	"github.com/aristath/advisor/internal/modules/report"
	"github.com/aristath/advisor/internal/modules/risk"
	"github.com/aristath/advisor/internal/modules/screener"
	"github.com/aristath/advisor/internal/modules/settings"
	"github.com/aristath/advisor/internal/modules/signals"
)

// Handlers collects the module handlers wired into the router.
type Handlers struct {
	News         *news.Handler
	Signals      *signals.Handler
	Forecast     *forecast.Handler
	Screener     *screener.Handler
	Backtest     *backtest.Handler
	Optimization *optimization.Handler
	Risk         *risk.Handler
	Portfolio    *portfolio.Handler
	Journal      *journal.Handler
	Report       *report.Handler
	Assistant    *assistant.Handler
	Audit        *audit.Handler
	Settings     *settings.Handler
}

// Config holds server configuration.
type Config struct {
	Log      zerolog.Logger
	DB       *database.DB
	Config   *config.Config
	Bus      *events.Bus
	Handlers Handlers
}

// Server is the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	db             *database.DB
	cfg            *config.Config
	bus            *events.Bus
	handlers       Handlers
	systemHandlers *SystemHandlers
	startedAt      time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		db:        cfg.DB,
		cfg:       cfg.Config,
		bus:       cfg.Bus,
		handlers:  cfg.Handlers,
		startedAt: time.Now(),
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.DB, cfg.Bus, s.startedAt)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // SSE connections outlive normal requests
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware.
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// SSE stream first so it is not wrapped by response buffering.
		eventsStream := NewEventsStreamHandler(s.bus, s.log)
		r.Get("/events/stream", eventsStream.ServeHTTP)

		r.Get("/system/status", s.systemHandlers.HandleSystemStatus)

		r.Get("/news", s.handlers.News.HandleGetNews)
		r.Get("/signals", s.handlers.Signals.HandleGetSignals)
		r.Get("/forecast", s.handlers.Forecast.HandleGetForecast)
		r.Post("/screener/run", s.handlers.Screener.HandleRunScreener)
		r.Post("/backtest", s.handlers.Backtest.HandleCompare)

		r.Get("/optimization/weights", s.handlers.Optimization.HandleGetWeights)

		r.Route("/risk", func(r chi.Router) {
			r.Get("/var", s.handlers.Risk.HandleGetVaR)
			r.Get("/trailing-stop", s.handlers.Risk.HandleGetTrailingStop)
		})

		r.Route("/watchlist", func(r chi.Router) {
			r.Get("/", s.handlers.Settings.HandleGetWatchlist)
			r.Post("/", s.handlers.Settings.HandleAddToWatchlist)
			r.Delete("/", s.handlers.Settings.HandleRemoveFromWatchlist)
		})
		r.Route("/sectors", func(r chi.Router) {
			r.Get("/", s.handlers.Settings.HandleGetSectors)
			r.Put("/", s.handlers.Settings.HandlePutSectors)
		})
		r.Route("/plan", func(r chi.Router) {
			r.Get("/", s.handlers.Settings.HandleGetPlan)
			r.Put("/", s.handlers.Settings.HandlePutPlan)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Post("/import", s.handlers.Portfolio.HandleImport)
			r.Get("/weights", s.handlers.Portfolio.HandleGetWeights)
			r.Get("/nudges", s.handlers.Portfolio.HandleGetNudges)
		})

		r.Route("/journal", func(r chi.Router) {
			r.Get("/notes", s.handlers.Journal.HandleListNotes)
			r.Get("/notes/{ticker}", s.handlers.Journal.HandleGetNote)
			r.Put("/notes/{ticker}", s.handlers.Journal.HandlePutNote)
			r.Get("/trades", s.handlers.Journal.HandleListTrades)
			r.Post("/trades", s.handlers.Journal.HandleAddTrade)
			r.Delete("/trades/{id}", s.handlers.Journal.HandleDeleteTrade)
			r.Get("/trades/export", s.handlers.Journal.HandleExportTrades)
			r.Post("/trades/import", s.handlers.Journal.HandleImportTrades)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/run", s.handlers.Report.HandleRun)
			r.Get("/latest", s.handlers.Report.HandleLatest)
		})

		r.Post("/assistant/ask", s.handlers.Assistant.HandleAsk)
		r.Get("/audit", s.handlers.Audit.HandleList)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
