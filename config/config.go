package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Milvus        MilvusConfig
	OpenAI        OpenAIConfig
	FeedbackDB    *DatabaseConfig // Optional: when nil, feedback is not persisted.
	Retrieval     RetrievalConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// MilvusConfig holds vector store connection configuration
type MilvusConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// OpenAIConfig holds embedding/completion provider configuration
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string
	EmbeddingModel     string
	EmbeddingDimension int
	CompletionModel    string
	Timeout            time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
}

// DatabaseConfig holds PostgreSQL configuration for the feedback store.
// When ConnectionString (from FEEDBACK_DATABASE_URL) is set, it takes precedence.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// RetrievalConfig holds knobs for the retrieval pipeline
type RetrievalConfig struct {
	TopK            int
	IngestBatchSize int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Milvus: MilvusConfig{
			Host:     getEnv("MILVUS_HOST", "localhost"),
			Port:     getEnvAsInt("MILVUS_PORT", 19530),
			Username: getEnv("MILVUS_USER", ""),
			Password: getEnv("MILVUS_PASSWORD", ""),
			Timeout:  getEnvAsDuration("MILVUS_TIMEOUT", 10*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			BaseURL:            getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			CompletionModel:    getEnv("OPENAI_COMPLETION_MODEL", "gpt-4"),
			Timeout:            getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries:         getEnvAsInt("OPENAI_MAX_RETRIES", 3),
			RetryDelay:         getEnvAsDuration("OPENAI_RETRY_DELAY", time.Second),
		},
		FeedbackDB: loadFeedbackDBConfig(),
		Retrieval: RetrievalConfig{
			TopK:            getEnvAsInt("RETRIEVAL_TOP_K", 3),
			IngestBatchSize: getEnvAsInt("INGEST_BATCH_SIZE", 100),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Milvus.Host == "" {
		return fmt.Errorf("milvus host is required")
	}
	if c.OpenAI.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top-k must be positive")
	}
	if c.Retrieval.IngestBatchSize <= 0 {
		return fmt.Errorf("ingest batch size must be positive")
	}
	if c.IsProduction() && c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required in production")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the Milvus gRPC endpoint address
func (c *MilvusConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogString returns a safe string for logging (no password)
func (c *MilvusConfig) LogString() string {
	return fmt.Sprintf("host=%s port=%d user=%s", c.Host, c.Port, c.Username)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from FEEDBACK_DATABASE_URL) when set.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from FEEDBACK_DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadFeedbackDBConfig loads the feedback store config.
// Returns nil when neither FEEDBACK_DATABASE_URL nor FEEDBACK_DB_HOST is set.
func loadFeedbackDBConfig() *DatabaseConfig {
	dbURL := getEnv("FEEDBACK_DATABASE_URL", "")
	if dbURL != "" {
		return &DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("FEEDBACK_DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:     getEnvAsInt("FEEDBACK_DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime:  getEnvAsDuration("FEEDBACK_DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	host := getEnv("FEEDBACK_DB_HOST", "")
	if host == "" {
		return nil
	}
	return &DatabaseConfig{
		Host:            host,
		Port:            getEnvAsInt("FEEDBACK_DB_PORT", 5432),
		User:            getEnv("FEEDBACK_DB_USER", "diengg"),
		Password:        getEnv("FEEDBACK_DB_PASSWORD", ""),
		Database:        getEnv("FEEDBACK_DB_NAME", "diengg"),
		SSLMode:         getEnv("FEEDBACK_DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("FEEDBACK_DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("FEEDBACK_DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getEnvAsDuration("FEEDBACK_DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
