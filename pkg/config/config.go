package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheBackendBolt     = "bolt"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
	CacheBackendMemory   = "memory"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (postgres cache backend)
	Database DatabaseConfig

	// Redis (redis cache backend)
	Redis RedisConfig

	// External sources
	Yahoo    YahooConfig
	Universe UniverseConfig

	// Screening pipeline
	Screener ScreenerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	Prefix   string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig holds Yahoo Finance endpoints and client limits
type YahooConfig struct {
	ChartURL   string
	SummaryURL string
	RateLimit  float64 // requests per second
	Burst      int
	Timeout    time.Duration
}

// UniverseConfig holds the index constituent sources
type UniverseConfig struct {
	Kind         string // sp500, nasdaq100, both
	SP500URL     string
	Nasdaq100URL string
}

// ScreenerConfig holds pipeline and cache settings
type ScreenerConfig struct {
	CacheBackend   string
	CacheTTL       time.Duration
	BoltPath       string
	DetailTimeout  time.Duration
	SnapshotTTL    time.Duration // in-memory per-symbol cache (0 = off)
	StrategyFile   string        // optional YAML threshold overrides
	RefreshCron    string        // scheduler expression (with seconds)
	ProgressPoll   time.Duration
	ProgressMaxAge time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Prefix:   getEnv("REDIS_PREFIX", "screener"),
		},

		Yahoo: YahooConfig{
			ChartURL:   getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			SummaryURL: getEnv("YAHOO_SUMMARY_URL", "https://query2.finance.yahoo.com/v10/finance/quoteSummary"),
			RateLimit:  getEnvAsFloat("YAHOO_RATE_LIMIT", 5),
			Burst:      getEnvAsInt("YAHOO_RATE_BURST", 5),
			Timeout:    getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
		},

		Universe: UniverseConfig{
			Kind:         getEnv("UNIVERSE_SOURCE", "sp500"),
			SP500URL:     getEnv("UNIVERSE_SP500_URL", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"),
			Nasdaq100URL: getEnv("UNIVERSE_NASDAQ100_URL", "https://en.wikipedia.org/wiki/Nasdaq-100"),
		},

		Screener: ScreenerConfig{
			CacheBackend:   getEnv("CACHE_BACKEND", CacheBackendBolt),
			CacheTTL:       getEnvAsDuration("SCREENER_CACHE_TTL", "24h"),
			BoltPath:       getEnv("SCREENER_BOLT_PATH", "cache/screener.db"),
			DetailTimeout:  getEnvAsDuration("SCREENER_DETAIL_TIMEOUT", "20s"),
			SnapshotTTL:    getEnvAsDuration("SCREENER_SNAPSHOT_TTL", "15m"),
			StrategyFile:   getEnv("SCREENER_STRATEGY_FILE", ""),
			RefreshCron:    getEnv("SCREENER_REFRESH_CRON", "0 30 6 * * 1-5"),
			ProgressPoll:   getEnvAsDuration("SCREENER_PROGRESS_POLL", "500ms"),
			ProgressMaxAge: getEnvAsDuration("SCREENER_PROGRESS_MAX_AGE", "5m"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Screener.CacheBackend {
	case CacheBackendBolt, CacheBackendMemory:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case CacheBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for CACHE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: bolt, redis, postgres, memory")
	}

	switch c.Universe.Kind {
	case "sp500", "nasdaq100", "both":
	default:
		return fmt.Errorf("UNIVERSE_SOURCE must be one of: sp500, nasdaq100, both")
	}

	if c.Screener.CacheTTL <= 0 {
		return fmt.Errorf("SCREENER_CACHE_TTL must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
