package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Reasoning ReasoningConfig
	Review    ReviewConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

// ReasoningConfig selects and tunes the LLM backend that powers
// analysis, discussion, and learning export.
type ReasoningConfig struct {
	Provider    string // "ollama" or "huggingface"
	Model       string
	BaseURL     string
	APIKey      string
	CallTimeout time.Duration
	MaxRetries  int
}

// ReviewConfig tunes session behaviour.
type ReviewConfig struct {
	StreamTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Reasoning: ReasoningConfig{
			Provider:    getEnv("LLM_PROVIDER", "ollama"),
			Model:       getEnv("LLM_MODEL", "llama3.1:8b"),
			BaseURL:     getEnv("LLM_BASE_URL", "http://localhost:11434"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			CallTimeout: getEnvAsDuration("REASONING_CALL_TIMEOUT", 120*time.Second),
			MaxRetries:  getEnvAsInt("REASONING_MAX_RETRIES", 3),
		},
		Review: ReviewConfig{
			StreamTimeout: getEnvAsDuration("DISCUSSION_STREAM_TIMEOUT", 3*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
