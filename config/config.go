package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique worker ID using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64

	// Annotator
	AnnotatorTimeout    time.Duration
	AnnotatorRPM        int
	AnnotatorMaxRetries int

	// Classification
	ClassifyWorkers  int
	ClassifyMaxBatch int

	// Digest
	ReminderThreshold time.Duration
	DigestTime        string
	DigestCacheTTL    time.Duration
	SchedulerEnabled  bool

	// Worker
	WorkerID        string
	WorkerCount     int
	WorkerQueueSize int

	// Webhook
	WebhookURL           string
	WebhookMaxRetries    int
	WebhookRetryDelaySec int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "mailagent"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.2),

		// Annotator
		AnnotatorTimeout:    time.Duration(getEnvInt("ANNOTATOR_TIMEOUT_SEC", 10)) * time.Second,
		AnnotatorRPM:        getEnvInt("ANNOTATOR_RPM", 60),
		AnnotatorMaxRetries: getEnvInt("ANNOTATOR_MAX_RETRIES", 2),

		// Classification
		ClassifyWorkers:  getEnvInt("CLASSIFY_WORKERS", 8),
		ClassifyMaxBatch: getEnvInt("CLASSIFY_MAX_BATCH", 100),

		// Digest
		ReminderThreshold: time.Duration(getEnvInt("REMINDER_HOURS", 24)) * time.Hour,
		DigestTime:        getEnv("DIGEST_TIME", "09:00"),
		DigestCacheTTL:    time.Duration(getEnvInt("DIGEST_CACHE_TTL_MIN", 60)) * time.Minute,
		SchedulerEnabled:  getEnvBool("SCHEDULER_ENABLED", true),

		// Worker
		WorkerID:        getEnv("WORKER_ID", generateWorkerID()),
		WorkerCount:     getEnvInt("WORKER_COUNT", 4),
		WorkerQueueSize: getEnvInt("WORKER_QUEUE_SIZE", 1000),

		// Webhook
		WebhookURL:           getEnv("WEBHOOK_URL", ""),
		WebhookMaxRetries:    getEnvInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookRetryDelaySec: getEnvInt("WEBHOOK_RETRY_DELAY_SEC", 5),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
