package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Model serving
	Model ModelConfig

	// Model artifacts (feature schema + calibration)
	Artifacts ArtifactsConfig

	// Quote engine limits
	Quote QuoteConfig

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
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ModelConfig holds the yield regressor service configuration
type ModelConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64 // predict 호출 rate limit
	RateBurst  int
	MaxRetries int
	RetryDelay time.Duration
}

// ArtifactsConfig holds paths to the trained-model side-car artifacts.
// 스키마와 캘리브레이션 상수는 모델과 함께 버전 관리되는 하나의 단위
type ArtifactsConfig struct {
	SchemaPath      string
	CalibrationPath string
}

// QuoteConfig holds batch quoting limits
type QuoteConfig struct {
	MaxPoolSize     int    // 종목 풀 최대 크기
	MaxCombinations int    // 한 요청이 만들 수 있는 조합 수 상한
	Concurrency     int    // feature build 워커 수
	WarmSchedule    string // 스냅샷 캐시 워밍 cron 표현식
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "fcnquote"),
			User:            getEnv("DB_USER", "fcnquote"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Model serving
		Model: ModelConfig{
			BaseURL:    getEnv("MODEL_BASE_URL", "http://localhost:8501"),
			Timeout:    getEnvAsDuration("MODEL_TIMEOUT", "30s"),
			RatePerSec: getEnvAsFloat("MODEL_RATE_PER_SEC", 20),
			RateBurst:  getEnvAsInt("MODEL_RATE_BURST", 5),
			MaxRetries: getEnvAsInt("MODEL_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("MODEL_RETRY_DELAY", "1s"),
		},

		// Artifacts
		Artifacts: ArtifactsConfig{
			SchemaPath:      getEnv("MODEL_SCHEMA_PATH", "artifacts/model_features.txt"),
			CalibrationPath: getEnv("MODEL_CALIBRATION_PATH", "artifacts/calibration.json"),
		},

		// Quote limits
		Quote: QuoteConfig{
			MaxPoolSize:     getEnvAsInt("QUOTE_MAX_POOL_SIZE", 20),
			MaxCombinations: getEnvAsInt("QUOTE_MAX_COMBINATIONS", 10000),
			Concurrency:     getEnvAsInt("QUOTE_CONCURRENCY", 4),
			WarmSchedule:    getEnv("QUOTE_WARM_SCHEDULE", "0 */10 * * * *"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Quote.MaxPoolSize <= 0 || c.Quote.MaxCombinations <= 0 {
		return fmt.Errorf("quote limits must be positive")
	}

	if c.Quote.Concurrency <= 0 {
		return fmt.Errorf("QUOTE_CONCURRENCY must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
