package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingEnv = errors.New("missing required env")

type Config struct {
	Port       string
	WebhookURL string
	LogMode    string

	TelegramBotToken string

	// GraderEngine is the default grading backend: "gpt" or "gemini".
	GraderEngine string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	GradeTimeout time.Duration

	CatalogPath string
	Language    string

	// DatabaseURL enables the attempt log when non-empty.
	DatabaseURL string
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("%w %s", ErrMissingEnv, k)
	}
	return v, nil
}

// Load reads the process environment, after merging an optional .env file
// from the working directory. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		WebhookURL:   getEnv("WEBHOOK_URL", ""),
		LogMode:      getEnv("LOG_MODE", "dev"),
		GraderEngine: strings.ToLower(getEnv("GRADER_ENGINE", "gpt")),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-5-mini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		CatalogPath:  getEnv("CATALOG_PATH", "recipes.json"),
		Language:     strings.ToLower(getEnv("LANGUAGE", "ru")),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
	}

	var err error
	if cfg.TelegramBotToken, err = mustEnv("TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, err
	}

	switch cfg.GraderEngine {
	case "gpt", "openai":
		cfg.GraderEngine = "gpt"
		if cfg.OpenAIAPIKey, err = mustEnv("OPENAI_API_KEY"); err != nil {
			return nil, err
		}
	case "gemini":
		if cfg.GeminiAPIKey, err = mustEnv("GEMINI_API_KEY"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("config: unknown GRADER_ENGINE %q (use gpt or gemini)", cfg.GraderEngine)
	}

	cfg.GradeTimeout, err = time.ParseDuration(getEnv("GRADE_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("config: GRADE_TIMEOUT: %w", err)
	}
	if cfg.GradeTimeout <= 0 {
		return nil, fmt.Errorf("config: GRADE_TIMEOUT must be positive, got %s", cfg.GradeTimeout)
	}
	return cfg, nil
}
