package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Logger    LoggerConfig
	Geocoder  GeocoderConfig
	Advisor   AdvisorConfig
	Dedup     DedupConfig
	Routing   RoutingConfig
	Predictor PredictorConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig holds message bus connection values.
type NATSConfig struct {
	URL            string
	ClientName     string
	ConnectTimeout time.Duration
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// GeocoderConfig tunes the reverse geocoding gateway.
type GeocoderConfig struct {
	BaseURL        string
	MinInterval    time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

// AdvisorConfig points at the external text-completion service.
type AdvisorConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// DedupConfig tunes geospatial duplicate detection.
type DedupConfig struct {
	RadiusMeters float64
	LookbackDays int
}

// RoutingConfig controls department routing fallbacks.
type RoutingConfig struct {
	DefaultDepartment string
}

// PredictorConfig drives the resolution time prediction loop.
type PredictorConfig struct {
	Interval        time.Duration
	CacheTTL        time.Duration
	DefaultAvgHours float64
	MaxHours        float64
	Enabled         bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "city-issue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			ClientName:     getEnv("NATS_CLIENT_NAME", "city-issue-service"),
			ConnectTimeout: getEnvAsSeconds("NATS_CONNECT_TIMEOUT_SECONDS", 5*time.Second),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:        getEnv("GEOCODER_BASE_URL", "https://api.openepi.io"),
			MinInterval:    time.Duration(getEnvAsInt("GEOCODER_MIN_INTERVAL_MS", 1000)) * time.Millisecond,
			RequestTimeout: getEnvAsSeconds("GEOCODER_REQUEST_TIMEOUT_SECONDS", 10*time.Second),
			CacheTTL:       time.Duration(getEnvAsInt("GEOCODER_CACHE_TTL_HOURS", 24)) * time.Hour,
		},
		Advisor: AdvisorConfig{
			BaseURL:        getEnv("ADVISOR_BASE_URL", "https://api.openai.com"),
			APIKey:         os.Getenv("ADVISOR_API_KEY"),
			Model:          getEnv("ADVISOR_MODEL", "gpt-4o-mini"),
			RequestTimeout: getEnvAsSeconds("ADVISOR_REQUEST_TIMEOUT_SECONDS", 15*time.Second),
		},
		Dedup: DedupConfig{
			RadiusMeters: getEnvAsFloat("DEDUP_RADIUS_METERS", 50),
			LookbackDays: getEnvAsInt("DEDUP_LOOKBACK_DAYS", 30),
		},
		Routing: RoutingConfig{
			DefaultDepartment: getEnv("ROUTING_DEFAULT_DEPARTMENT", "Sanitation"),
		},
		Predictor: PredictorConfig{
			Interval:        getEnvAsSeconds("PREDICTOR_INTERVAL_SECONDS", 60*time.Second),
			CacheTTL:        getEnvAsSeconds("PREDICTOR_CACHE_TTL_SECONDS", time.Hour),
			DefaultAvgHours: getEnvAsFloat("PREDICTOR_DEFAULT_AVG_HOURS", 48),
			MaxHours:        getEnvAsFloat("PREDICTOR_MAX_HOURS", 720),
			Enabled:         getEnvAsBool("PREDICTOR_ENABLED", true),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Lookback converts the configured dedup window to a duration.
func (d DedupConfig) Lookback() time.Duration {
	return time.Duration(d.LookbackDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsSeconds(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return time.Duration(parsed) * time.Second
}
