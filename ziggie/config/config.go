package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`

	// Database. Empty DATABASE_URL selects the in-memory backend.
	DatabaseURL string `env:"DATABASE_URL"`
	DBPoolMin   int32  `env:"DATABASE_POOL_MIN" envDefault:"2"`
	DBPoolMax   int32  `env:"DATABASE_POOL_MAX" envDefault:"10"`

	// Model
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL   string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-pro"`
	MaxOutputTokens int           `env:"GEMINI_MAX_OUTPUT_TOKENS" envDefault:"2048"`
	Temperature     float64       `env:"GEMINI_TEMPERATURE" envDefault:"0.7"`
	TopP            float64       `env:"GEMINI_TOP_P" envDefault:"0.8"`
	TopK            int           `env:"GEMINI_TOP_K" envDefault:"40"`
	ModelTimeout    time.Duration `env:"MODEL_TIMEOUT" envDefault:"30s"`

	// Sessions
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	MaxContextMessages int           `env:"MAX_CONTEXT_MESSAGES" envDefault:"10"`
	CleanupInterval    time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// HTTP surface
	APIKey          string        `env:"API_KEY"`
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"dev-secret-change-in-production"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"100"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Knowledge base
	KnowledgePath string `env:"KNOWLEDGE_PATH" envDefault:"./ziggie/data/portfolio.yaml"`

	// Mail
	SMTPHost        string `env:"EMAIL_HOST"`
	SMTPPort        int    `env:"EMAIL_PORT" envDefault:"587"`
	SMTPUser        string `env:"EMAIL_USER"`
	SMTPPass        string `env:"EMAIL_PASS"`
	LeadNotifyEmail string `env:"LEAD_NOTIFICATION_EMAIL"`
}

func Load() (Config, error) {
	// .env is optional; system environment wins when the file is absent.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.LeadNotifyEmail == "" {
		cfg.LeadNotifyEmail = cfg.SMTPUser
	}
	return cfg, nil
}

// Validate checks settings that must be present in production.
func (c Config) Validate() error {
	if c.Env != "production" {
		return nil
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required in production")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required in production")
	}
	if c.JWTSecret == "dev-secret-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be changed in production")
	}
	return nil
}
