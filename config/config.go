package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the HTTP listen port when PORT is unset.
	DefaultPort = 7474

	// DefaultSessionDuration is the session lifetime when
	// SESSION_DURATION_HOURS is unset.
	DefaultSessionDuration = 30 * 24 * time.Hour

	// DefaultLanguage is the catalog locale sent with every search.
	DefaultLanguage = "en-US"
)

// Config holds all runtime settings. Values come from the environment
// (optionally seeded from a .env file by the caller); the catalog bearer
// token is the only required secret.
type Config struct {
	Port            int
	StorageDir      string
	DatabasePath    string
	LogFile         string
	SessionDuration time.Duration

	// AllowedOrigins lists browser origins trusted for CORS, beyond the
	// always-allowed localhost ones.
	AllowedOrigins []string

	// Catalog search
	TMDBToken string
	Language  string

	// Verification email dispatch. When SMTPHost is empty the server
	// falls back to logging verification codes instead of sending mail.
	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

// Load builds a Config from the process environment, applying defaults
// for everything except the catalog token.
func Load() (Config, error) {
	cfg := Config{
		Port:            envInt("PORT", DefaultPort),
		StorageDir:      envString("STORAGE_DIR", "./data"),
		LogFile:         os.Getenv("LOG_FILE"),
		SessionDuration: time.Duration(envInt("SESSION_DURATION_HOURS", 0)) * time.Hour,
		TMDBToken:       os.Getenv("TMDB_TOKEN"),
		Language:        envString("TMDB_LANGUAGE", DefaultLanguage),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        envInt("SMTP_PORT", 587),
		SMTPFrom:        os.Getenv("SMTP_FROM"),
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
	}

	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultSessionDuration
	}

	cfg.DatabasePath = envString("DATABASE_PATH", filepath.Join(cfg.StorageDir, "thelyst.db"))

	if origins := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("create storage dir: %w", err)
	}

	return cfg, nil
}

// MailEnabled reports whether SMTP dispatch is configured.
func (c Config) MailEnabled() bool {
	return strings.TrimSpace(c.SMTPHost) != ""
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
