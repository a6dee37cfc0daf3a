package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Queue       QueueConfig
	TextExtract TextExtractConfig
	LLM         LLMConfig
	Ruleset     RulesetConfig
	Blob        BlobConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
	HealthTimeout   time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string
}

// QueueConfig holds work-queue and worker-pool configuration
type QueueConfig struct {
	RedisAddr      string // empty selects the in-process queue
	RedisKey       string
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// TextExtractConfig holds the text-extraction collaborator configuration
type TextExtractConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LLMConfig holds the structured-extraction collaborator configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// RulesetConfig holds the validation ruleset configuration
type RulesetConfig struct {
	Dir string // empty uses the embedded default ruleset
}

// BlobConfig holds document byte storage configuration
type BlobConfig struct {
	MinioEndpoint  string // empty selects the filesystem store
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	Dir            string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			HealthTimeout:   getEnvAsDuration("DB_HEALTH_TIMEOUT", 5*time.Second),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Queue: QueueConfig{
			RedisAddr:      getEnv("REDIS_ADDR", ""),
			RedisKey:       getEnv("REDIS_QUEUE_KEY", "cliniq:documents"),
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 3*time.Minute),
		},
		TextExtract: TextExtractConfig{
			BaseURL: getEnv("TEXTRACT_URL", ""),
			Timeout: getEnvAsDuration("TEXTRACT_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Ruleset: RulesetConfig{
			Dir: getEnv("RULESET_DIR", ""),
		},
		Blob: BlobConfig{
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "cliniq-documents"),
			MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			Dir:            getEnv("BLOB_DIR", "./data/documents"),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.TextExtract.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "TEXTRACT_URL is required", ErrInvalidInput)
	}
	if c.Queue.ProcessTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_PROCESS_TIMEOUT must be positive", ErrInvalidInput)
	}
	if c.TextExtract.Timeout <= 0 || c.LLM.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "collaborator timeouts must be positive", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
