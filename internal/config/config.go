package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server ServerConfig
	GitHub GitHubConfig
	Sync   SyncConfig
	CORS   CORSConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// GitHubConfig carries the optional pre-configured connection. When all three
// coordinates are present the server connects at startup; otherwise the UI
// connects through the API.
type GitHubConfig struct {
	Owner    string
	Repo     string
	Token    string
	DataFile string
	BaseURL  string
}

// SyncConfig holds the background job schedules.
type SyncConfig struct {
	AutoSaveSchedule string
	CashFlowSchedule string
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		GitHub: GitHubConfig{
			Owner:    os.Getenv("GITHUB_OWNER"),
			Repo:     os.Getenv("GITHUB_REPO"),
			Token:    os.Getenv("GITHUB_TOKEN"),
			DataFile: getenvWithDefault("GITHUB_DATA_FILE", "inventory-data.json"),
			BaseURL:  getenvWithDefault("GITHUB_API_BASE_URL", "https://api.github.com"),
		},
		Sync: SyncConfig{
			AutoSaveSchedule: getenvWithDefault("AUTOSAVE_CRON_SCHEDULE", "*/5 * * * *"),
			CashFlowSchedule: getenvWithDefault("CASHFLOW_CRON_SCHEDULE", "55 23 * * *"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.GitHub.DataFile == "" {
		return errors.New("GITHUB_DATA_FILE must not be empty")
	}
	if c.Sync.AutoSaveSchedule == "" {
		return errors.New("AUTOSAVE_CRON_SCHEDULE must be provided")
	}
	if c.Sync.CashFlowSchedule == "" {
		return errors.New("CASHFLOW_CRON_SCHEDULE must be provided")
	}

	// A partially configured connection is worse than none: the server would
	// appear connected but fail on first use.
	set := 0
	for _, v := range []string{c.GitHub.Owner, c.GitHub.Repo, c.GitHub.Token} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return errors.New("GITHUB_OWNER, GITHUB_REPO and GITHUB_TOKEN must be set together")
	}

	return nil
}

// HasConnection reports whether startup auto-connect coordinates are present.
func (c *Config) HasConnection() bool {
	return c.GitHub.Owner != "" && c.GitHub.Repo != "" && c.GitHub.Token != ""
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
