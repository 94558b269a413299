package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"brandpulse/internal/adapter/storage"
	"brandpulse/internal/config"
	"brandpulse/internal/scheduler"
	"brandpulse/internal/server"
	detectService "brandpulse/internal/service/detect"
	trendService "brandpulse/internal/service/trend"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := setupLogging(cfg.Environment)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, log)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsConn.Close()

	// Initialize storage adapters
	postStore := storage.NewPostStore(db)
	trendStore := storage.NewTrendStore(db)
	radarStore := storage.NewRadarStore(db)

	// Initialize services
	detector := detectService.NewService(postStore, natsConn, detectService.Config{
		MultiplierThreshold: cfg.Detection.MultiplierThreshold,
		SigmaThreshold:      cfg.Detection.SigmaThreshold,
		LookbackDays:        cfg.Detection.LookbackDays,
		MinBaselinePosts:    cfg.Detection.MinBaselinePosts,
		EventsTopic:         cfg.NATS.EventsTopic,
	}, log)

	analyzer := trendService.NewAnalyzer(postStore, trendStore, natsConn, trendService.AnalyzerConfig{
		LookbackWeeks:     cfg.Trend.LookbackWeeks,
		VelocityThreshold: cfg.Trend.VelocityThreshold,
		TopN:              cfg.Trend.TopN,
		EventsTopic:       cfg.NATS.EventsTopic,
	}, log)

	radar := trendService.NewRadar(postStore, radarStore, natsConn, trendService.RadarConfig{
		LookbackHours: cfg.Radar.LookbackHours,
		DefaultLimit:  cfg.Radar.DefaultLimit,
		MinUsageCount: cfg.Radar.MinUsageCount,
		EventsTopic:   cfg.NATS.EventsTopic,
	}, log)

	gaps := trendService.NewGapService(postStore, trendService.GapConfig{
		CacheTTL:     cfg.Gap.CacheTTL,
		MaxPerMetric: cfg.Gap.MaxPerMetric,
		MinOwnUsage:  cfg.Gap.MinOwnUsage,
	}, log)

	// Start the batch scheduler
	batchScheduler := scheduler.NewService(cfg.Scheduler, detector, analyzer, radar, log)
	if err := batchScheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		natsConn,
		cfg.NATS.EventsTopic,
		postStore,
		detector,
		analyzer,
		radar,
		gaps,
	)

	// Start HTTP server
	go func() {
		log.Infof("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	log.Info("Shutting down services...")

	batchScheduler.Stop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
}

// setupLogging configures the global logger for the environment.
func setupLogging(environment string) *logrus.Logger {
	log := logrus.StandardLogger()
	if environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, log *logrus.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warnf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Warn("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
