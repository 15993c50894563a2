package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DatabaseURL     string        `yaml:"database_url"`
	RedisURL        string        `yaml:"redis_url"`
	ServerPort      string        `yaml:"server_port"`
	FrontendURL     string        `yaml:"frontend_url"`
	JWTSecret       string        `yaml:"jwt_secret"`
	JWTExpiry       time.Duration `yaml:"jwt_expiry"`
	RateLimit       string        `yaml:"rate_limit"`
	EnableHSTS      bool          `yaml:"enable_hsts"`
	ServerDebugMode bool          `yaml:"server_debug_mode"`

	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
	MailFrom string `yaml:"mail_from"`

	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_url"`

	// SMS delivery is configured but not used by any current flow.
	SMSAccountSID string `yaml:"sms_account_sid"`
	SMSAuthToken  string `yaml:"sms_auth_token"`
	SMSFromNumber string `yaml:"sms_from_number"`

	OTELEnabled  bool   `yaml:"otel_enabled"`
	OTELEndpoint string `yaml:"otel_endpoint"`
}

// Load loads configuration from an optional YAML file (CONFIG_FILE) and
// environment variables. Environment variables take precedence over the file.
// In dev mode a .env file is loaded first.
func Load() (*Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		ServerPort: "8080",
		RedisURL:   "redis://localhost:6379/0",
		JWTExpiry:  7 * 24 * time.Hour,
		RateLimit:  "100-M",
		SMTPPort:   587,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideString(&cfg.ServerPort, "SERVER_PORT")
	overrideString(&cfg.FrontendURL, "FRONTEND_URL")
	overrideString(&cfg.JWTSecret, "JWT_SECRET")
	overrideDuration(&cfg.JWTExpiry, "JWT_EXPIRY")
	overrideString(&cfg.RateLimit, "RATE_LIMIT")
	overrideBool(&cfg.EnableHSTS, "ENABLE_HSTS")
	overrideBool(&cfg.ServerDebugMode, "SERVER_DEBUG_MODE")
	overrideString(&cfg.SMTPHost, "SMTP_HOST")
	overrideInt(&cfg.SMTPPort, "SMTP_PORT")
	overrideString(&cfg.SMTPUser, "SMTP_USER")
	overrideString(&cfg.SMTPPass, "SMTP_PASS")
	overrideString(&cfg.MailFrom, "MAIL_FROM")
	overrideString(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	overrideString(&cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	overrideString(&cfg.GoogleRedirectURL, "GOOGLE_REDIRECT_URL")
	overrideString(&cfg.SMSAccountSID, "SMS_ACCOUNT_SID")
	overrideString(&cfg.SMSAuthToken, "SMS_AUTH_TOKEN")
	overrideString(&cfg.SMSFromNumber, "SMS_FROM_NUMBER")
	overrideBool(&cfg.OTELEnabled, "OTEL_ENABLED")
	overrideString(&cfg.OTELEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:5173"
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func overrideString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func overrideBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value == "true" || value == "1" || value == "yes"
	}
}

func overrideInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			*dst = intValue
		}
	}
}

func overrideDuration(dst *time.Duration, key string) {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			*dst = d
		}
	}
}
