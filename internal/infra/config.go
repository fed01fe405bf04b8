package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	// CallbackBaseURL is the externally reachable base URL of this service;
	// the dispatcher advertises it to remote workers so callbacks find
	// their way back.
	CallbackBaseURL string

	// ProcessingTimeout is the window a dispatched work item gets before
	// the reaper may declare it dead.
	ProcessingTimeout time.Duration

	WebhookTimeout time.Duration

	PlatformBaseURL    string
	PlatformUser       string
	PlatformAppPass    string
	PublishAuthorEmail string
	PublishCategory    string

	AllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		CallbackBaseURL:    getEnv("CALLBACK_BASE_URL", "http://localhost:8080"),
		ProcessingTimeout:  time.Minute * time.Duration(getEnvInt("PROCESSING_TIMEOUT_MINUTES", 30)),
		WebhookTimeout:     time.Second * time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 10)),
		PlatformBaseURL:    os.Getenv("PLATFORM_BASE_URL"),
		PlatformUser:       os.Getenv("PLATFORM_USER"),
		PlatformAppPass:    os.Getenv("PLATFORM_APP_PASSWORD"),
		PublishAuthorEmail: os.Getenv("PUBLISH_AUTHOR_EMAIL"),
		PublishCategory:    getEnv("PUBLISH_CATEGORY", "Blog"),
		AllowedOrigins:     splitAndTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.ProcessingTimeout <= 0 {
		return nil, fmt.Errorf("PROCESSING_TIMEOUT_MINUTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
