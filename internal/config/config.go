package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/ledgerly/account-service/pkg/config"
)

const defaultSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the account service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// MongoDB
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"account_db"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT. Each token class signs with its own secret so a token of one
	// class can never verify as another.
	AccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"change-this-to-a-secure-secret"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"change-this-to-a-secure-secret"`
	ResetSecret   string        `env:"JWT_RESET_SECRET" envDefault:"change-this-to-a-secure-secret"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	ResetTTL      time.Duration `env:"RESET_TOKEN_TTL" envDefault:"15m"`

	// Admin sign-up allow-list: emails permitted to register with the
	// admin role, comma separated.
	AdminAllowlist []string `env:"ADMIN_ALLOWLIST" envSeparator:","`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`

	// Transactional mail (Brevo)
	BrevoAPIKey string `env:"BREVO_API_KEY"`
	FromEmail   string `env:"MAIL_FROM_EMAIL" envDefault:"no-reply@ledgerly.io"`
	FromName    string `env:"MAIL_FROM_NAME" envDefault:"Ledgerly"`

	// Base URL of the frontend, used to build password reset links.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// Rate limiting on auth endpoints, requests per minute per client IP.
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load account config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// In non-development environments, require explicitly set, strong secrets.
	if cfg.Environment != "development" {
		secrets := map[string]string{
			"JWT_ACCESS_SECRET":  cfg.AccessSecret,
			"JWT_REFRESH_SECRET": cfg.RefreshSecret,
			"JWT_RESET_SECRET":   cfg.ResetSecret,
		}
		for name, secret := range secrets {
			if secret == defaultSecret {
				return nil, fmt.Errorf("%s must be explicitly set via environment variable in %q mode", name, cfg.Environment)
			}
			if len(secret) < 32 {
				return nil, fmt.Errorf("%s must be at least 32 characters long, got %d", name, len(secret))
			}
		}
	}

	for i, email := range cfg.AdminAllowlist {
		cfg.AdminAllowlist[i] = strings.ToLower(strings.TrimSpace(email))
	}

	return cfg, nil
}

// AdminAllowed reports whether email may register with the admin role.
func (c *Config) AdminAllowed(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range c.AdminAllowlist {
		if allowed == email {
			return true
		}
	}
	return false
}
