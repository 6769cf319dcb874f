package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string
	LogLevel   string

	// One-shot mode: when SeedURL is set the process runs a single
	// analysis of that listing page and exits instead of serving HTTP.
	SeedURL          string
	MaxPosts         int
	MaxPages         int
	FollowPagination bool

	// Analyzer provider: "anthropic" (default) or "openai".
	AIProvider       string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string

	EnableClustering bool
	EmbeddingModel   string

	// Storage backend for checkpoints and rendered documents:
	// "local" (default) or "redis".
	StorageType string
	StorageDir  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresEnabled  bool

	AnalysisWorkers      int
	FetchTimeout         time.Duration
	CheckpointMaxAgeDays int
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		SeedURL:          getEnv("SEED_URL", ""),
		MaxPosts:         getEnvAsInt("MAX_POSTS", 10),
		MaxPages:         getEnvAsInt("MAX_PAGES", 50),
		FollowPagination: getEnvAsBool("FOLLOW_PAGINATION", true),

		AIProvider:       getEnv("AI_PROVIDER", "anthropic"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o"),

		EnableClustering: getEnvAsBool("ENABLE_CLUSTERING", false),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-large"),

		StorageType: getEnv("STORAGE_TYPE", "local"),
		StorageDir:  getEnv("STORAGE_DIR", "./storage"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "blog_analyzer"),
		PostgresEnabled:  getEnvAsBool("POSTGRES_ENABLED", false),

		AnalysisWorkers:      getEnvAsInt("ANALYSIS_WORKERS", 2),
		FetchTimeout:         getEnvAsDuration("FETCH_TIMEOUT_SECONDS", 30) * time.Second,
		CheckpointMaxAgeDays: getEnvAsInt("CHECKPOINT_MAX_AGE_DAYS", 7),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback))
}
