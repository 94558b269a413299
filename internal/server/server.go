package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"brandpulse/internal/config"
	"brandpulse/internal/domain/detect"
	"brandpulse/internal/domain/trend"
	"brandpulse/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	natsConn *nats.Conn,
	eventsTopic string,
	postStore handlers.PostStore,
	engine detect.Engine,
	analyzer trend.Analyzer,
	radar trend.Radar,
	gaps trend.GapAnalyzer,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	postHandler := handlers.NewPostHandler(postStore)
	detectHandler := handlers.NewDetectHandler(engine)
	trendHandler := handlers.NewTrendHandler(analyzer, radar, gaps)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Post ingest and account archival
			r.Route("/posts", func(r chi.Router) {
				r.Post("/", postHandler.IngestPost)
			})
			r.Route("/accounts/{accountSet}/{handle}", func(r chi.Router) {
				r.Post("/archive", postHandler.ArchiveAccount)
				r.Post("/restore", postHandler.RestoreAccount)
			})

			// Outlier detection API
			r.Route("/detect/{accountSet}", func(r chi.Router) {
				r.Post("/run", detectHandler.Run)
			})
			r.Get("/outliers/{accountSet}", detectHandler.Outliers)

			// Trend analysis API
			r.Route("/trends/{accountSet}", func(r chi.Router) {
				r.Get("/", trendHandler.GetTrends)
				r.Post("/snapshot", trendHandler.CaptureSnapshot)
			})

			// Trend radar API
			r.Route("/radar/{accountSet}", func(r chi.Router) {
				r.Get("/", trendHandler.GetRadar)
				r.Post("/snapshot", trendHandler.CaptureRadarSnapshot)
			})

			// Gap analysis API
			r.Get("/gaps/{accountSet}", trendHandler.GetGaps)
		})
	})

	// WebSocket endpoint for real-time event streaming
	router.Get("/ws/events/{accountSet}", handlers.EventsWebSocketHandler(natsConn, eventsTopic))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
