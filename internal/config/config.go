package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port         string `json:"port"`
	Host         string `json:"host"`
	APIAuthToken string `json:"-"` // Don't expose in JSON
	LogLevel     string `json:"log_level"`

	// Lexicon settings
	LexiconSource string `json:"lexicon_source"` // "dir" or "gcs"
	LexiconDir    string `json:"lexicon_dir"`
	LexiconBucket string `json:"lexicon_bucket"`
	LexiconPrefix string `json:"lexicon_prefix"`

	// Parser settings
	ParserType      string  `json:"parser_type"` // "remote" or "simple"
	ParserURL       string  `json:"parser_url"`
	ParserRateLimit float64 `json:"parser_rate_limit"`

	// Entity extraction settings
	EntityProvider string `json:"entity_provider"` // "parser" or "gemini"
	GeminiAPIKey   string `json:"-"`               // Don't expose in JSON
	GeminiModel    string `json:"gemini_model"`

	// Queue settings
	QueueType         string        `json:"queue_type"` // "redis" or "memory"
	RedisAddr         string        `json:"redis_addr"`
	RedisPassword     string        `json:"-"` // Don't expose in JSON
	RedisDB           int           `json:"redis_db"`
	QueueName         string        `json:"queue_name"`
	NewsChannel       string        `json:"news_channel"`
	WorkerConcurrency int           `json:"worker_concurrency"`
	JobTimeout        time.Duration `json:"job_timeout"`
	RetryAttempts     int           `json:"retry_attempts"`
	RetryDelay        time.Duration `json:"retry_delay"`

	// Storage settings
	StoreType   string `json:"store_type"` // "memory", "gcs" or "postgres"
	StoreBucket string `json:"store_bucket"`
	PostgresDSN string `json:"-"` // Don't expose in JSON

	// Cache settings
	CacheType     string `json:"cache_type"`     // "memory" or "redis"
	CacheDuration int    `json:"cache_duration"` // in hours

	// Ingestion settings
	FeedsConfigPath       string   `json:"feeds_config_path"`
	FeedURLs              []string `json:"feed_urls"`
	IngestSchedule        string   `json:"ingest_schedule"` // cron expression
	IngestEnabled         bool     `json:"ingest_enabled"`
	MaxConcurrentRequests int      `json:"max_concurrent_requests"`

	// Slack settings
	SlackBotToken string `json:"-"` // Don't expose in JSON
	SlackChannel  string `json:"slack_channel"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Host:                  getEnvOrDefault("HOST", "0.0.0.0"),
		APIAuthToken:          getEnvOrDefault("API_AUTH_TOKEN", ""),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LexiconSource:         getEnvOrDefault("LEXICON_SOURCE", "dir"),
		LexiconDir:            getEnvOrDefault("LEXICON_DIR", "resources/lexicon"),
		LexiconBucket:         getEnvOrDefault("LEXICON_BUCKET", ""),
		LexiconPrefix:         getEnvOrDefault("LEXICON_PREFIX", "lexicon/"),
		ParserType:            getEnvOrDefault("PARSER_TYPE", "simple"),
		ParserURL:             getEnvOrDefault("PARSER_URL", ""),
		ParserRateLimit:       getEnvOrDefaultFloat("PARSER_RATE_LIMIT", 10),
		EntityProvider:        getEnvOrDefault("ENTITY_PROVIDER", "parser"),
		GeminiAPIKey:          getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:           getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		QueueType:             getEnvOrDefault("QUEUE_TYPE", "memory"),
		RedisAddr:             getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:               getEnvOrDefaultInt("REDIS_DB", 0),
		QueueName:             getEnvOrDefault("QUEUE_NAME", "hydration"),
		NewsChannel:           getEnvOrDefault("NEWS_CHANNEL", "news"),
		WorkerConcurrency:     getEnvOrDefaultInt("WORKER_CONCURRENCY", 4),
		JobTimeout:            getEnvOrDefaultDuration("JOB_TIMEOUT", 2*time.Minute),
		RetryAttempts:         getEnvOrDefaultInt("RETRY_ATTEMPTS", 3),
		RetryDelay:            getEnvOrDefaultDuration("RETRY_DELAY", time.Second),
		StoreType:             getEnvOrDefault("STORE_TYPE", "memory"),
		StoreBucket:           getEnvOrDefault("STORE_BUCKET", ""),
		PostgresDSN:           getEnvOrDefault("POSTGRES_DSN", ""),
		CacheType:             getEnvOrDefault("CACHE_TYPE", "memory"),
		CacheDuration:         getEnvOrDefaultInt("CACHE_DURATION_HOURS", 24),
		FeedsConfigPath:       getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml"),
		FeedURLs:              parseStringSlice(getEnvOrDefault("FEED_URLS", "")),
		IngestSchedule:        getEnvOrDefault("INGEST_SCHEDULE", "*/10 * * * *"),
		IngestEnabled:         getEnvOrDefaultBool("INGEST_ENABLED", true),
		MaxConcurrentRequests: getEnvOrDefaultInt("MAX_CONCURRENT_REQUESTS", 5),
		SlackBotToken:         getEnvOrDefault("SLACK_BOT_TOKEN", ""),
		SlackChannel:          getEnvOrDefault("SLACK_CHANNEL", ""),
	}

	return config, config.validate()
}

// validate checks enumerations and the settings they require
func (c *Config) validate() error {
	if err := oneOf("LEXICON_SOURCE", c.LexiconSource, "dir", "gcs"); err != nil {
		return err
	}
	if c.LexiconSource == "gcs" && c.LexiconBucket == "" {
		return &ConfigError{Field: "LEXICON_BUCKET", Message: "bucket is required for the gcs lexicon source"}
	}

	if err := oneOf("PARSER_TYPE", c.ParserType, "remote", "simple"); err != nil {
		return err
	}
	if c.ParserType == "remote" && c.ParserURL == "" {
		return &ConfigError{Field: "PARSER_URL", Message: "parser URL is required for the remote parser"}
	}

	if err := oneOf("ENTITY_PROVIDER", c.EntityProvider, "parser", "gemini"); err != nil {
		return err
	}
	if c.EntityProvider == "gemini" && c.GeminiAPIKey == "" {
		return &ConfigError{Field: "GEMINI_API_KEY", Message: "Gemini API key is required"}
	}

	if err := oneOf("QUEUE_TYPE", c.QueueType, "redis", "memory"); err != nil {
		return err
	}
	if c.WorkerConcurrency <= 0 {
		return &ConfigError{Field: "WORKER_CONCURRENCY", Message: "must be positive"}
	}
	if c.RetryAttempts <= 0 {
		return &ConfigError{Field: "RETRY_ATTEMPTS", Message: "must be positive"}
	}

	if err := oneOf("STORE_TYPE", c.StoreType, "memory", "gcs", "postgres"); err != nil {
		return err
	}
	if c.StoreType == "gcs" && c.StoreBucket == "" {
		return &ConfigError{Field: "STORE_BUCKET", Message: "bucket is required for the gcs store"}
	}
	if c.StoreType == "postgres" && c.PostgresDSN == "" {
		return &ConfigError{Field: "POSTGRES_DSN", Message: "DSN is required for the postgres store"}
	}

	if err := oneOf("CACHE_TYPE", c.CacheType, "memory", "redis"); err != nil {
		return err
	}
	return nil
}

// ValidateServer checks the settings only the HTTP API needs
func (c *Config) ValidateServer() error {
	if c.APIAuthToken == "" {
		return &ConfigError{Field: "API_AUTH_TOKEN", Message: "API auth token is required"}
	}
	return nil
}

// SlackEnabled reports whether Slack notifications are configured
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ConfigError{Field: field, Message: "must be one of " + strings.Join(allowed, ", ")}
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default if not set
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultBool returns environment variable value as bool or default if not set
func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultDuration returns environment variable value as time.Duration or default if not set
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
