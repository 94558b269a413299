package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Detection   DetectionConfig
	Trend       TrendConfig
	Radar       RadarConfig
	Gap         GapConfig
	Scheduler   SchedulerConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	EventsTopic    string
}

// DetectionConfig holds outlier detection thresholds. The multiplier and
// sigma thresholds are alternatives: exceeding either flags a post.
type DetectionConfig struct {
	MultiplierThreshold float64
	SigmaThreshold      float64
	LookbackDays        int
	MinBaselinePosts    int
}

// TrendConfig holds daily trend analysis configuration.
type TrendConfig struct {
	LookbackWeeks     int
	VelocityThreshold float64
	TopN              int
}

// RadarConfig holds hourly trend radar configuration.
type RadarConfig struct {
	LookbackHours int
	DefaultLimit  int
	MinUsageCount int
}

// GapConfig holds gap analysis configuration.
type GapConfig struct {
	CacheTTL     time.Duration
	MaxPerMetric int
	MinOwnUsage  int
}

// SchedulerConfig holds the batch run schedule.
type SchedulerConfig struct {
	Enabled     bool
	CronSpec    string
	AccountSets []string
}

// Load loads configuration from environment variables.
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "brandpulse"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			EventsTopic:    getEnv("NATS_EVENTS_TOPIC", "pulse"),
		},
		Detection: DetectionConfig{
			MultiplierThreshold: getEnvAsFloat("DETECT_MULTIPLIER_THRESHOLD", 2.0),
			SigmaThreshold:      getEnvAsFloat("DETECT_SIGMA_THRESHOLD", 1.5),
			LookbackDays:        getEnvAsInt("DETECT_LOOKBACK_DAYS", 30),
			MinBaselinePosts:    getEnvAsInt("DETECT_MIN_BASELINE_POSTS", 3),
		},
		Trend: TrendConfig{
			LookbackWeeks:     getEnvAsInt("TREND_LOOKBACK_WEEKS", 4),
			VelocityThreshold: getEnvAsFloat("TREND_VELOCITY_THRESHOLD", 0.15),
			TopN:              getEnvAsInt("TREND_TOP_N", 5),
		},
		Radar: RadarConfig{
			LookbackHours: getEnvAsInt("RADAR_LOOKBACK_HOURS", 72),
			DefaultLimit:  getEnvAsInt("RADAR_DEFAULT_LIMIT", 10),
			MinUsageCount: getEnvAsInt("RADAR_MIN_USAGE_COUNT", 2),
		},
		Gap: GapConfig{
			CacheTTL:     getEnvAsDuration("GAP_CACHE_TTL", 24*time.Hour),
			MaxPerMetric: getEnvAsInt("GAP_MAX_PER_METRIC", 5),
			MinOwnUsage:  getEnvAsInt("GAP_MIN_OWN_USAGE", 2),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getEnvAsBool("SCHEDULER_ENABLED", true),
			CronSpec:    getEnv("SCHEDULER_CRON", "0 15 * * * *"),
			AccountSets: getEnvAsSlice("SCHEDULER_ACCOUNT_SETS", nil),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid.
func validate(config Config) error {
	if config.Detection.MultiplierThreshold <= 0 {
		return fmt.Errorf("multiplier threshold must be positive")
	}
	if config.Detection.SigmaThreshold <= 0 {
		return fmt.Errorf("sigma threshold must be positive")
	}
	if config.Detection.MinBaselinePosts < 2 {
		return fmt.Errorf("minimum baseline posts must be at least 2")
	}
	if config.Scheduler.Enabled && len(config.Scheduler.AccountSets) == 0 && config.Environment != "development" {
		return fmt.Errorf("scheduler enabled but no account sets configured")
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
