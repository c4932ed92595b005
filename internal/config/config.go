package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Shared mailbox (IMAP)
	IMAPHost string `env:"IMAP_HOST,required"`
	IMAPPort int    `env:"IMAP_PORT" envDefault:"993"`
	IMAPUser string `env:"IMAP_USER,required"`
	IMAPPass string `env:"IMAP_PASS,required"`

	// ScanTimeout bounds one full search-and-scan pass; on expiry the
	// connection is torn down and the caller gets a timeout error.
	ScanTimeout time.Duration `env:"SCAN_TIMEOUT" envDefault:"30s"`
	DialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"15s"`

	// Database
	DatabasePath        string        `env:"DATABASE_PATH" envDefault:"./data/inboxcode.db"`
	DatabaseBusyTimeout time.Duration `env:"DATABASE_BUSY_TIMEOUT" envDefault:"5s"`

	// HTTP
	HTTPAddr   string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminToken string `env:"ADMIN_TOKEN,required"`

	// Mailcow provisioning (optional)
	MailcowURL    string `env:"MAILCOW_URL"`
	MailcowAPIKey string `env:"MAILCOW_API_KEY"`
	MailcowDomain string `env:"MAILCOW_DOMAIN"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// IMAPAddr returns the host:port address of the shared mailbox server.
func (c *Config) IMAPAddr() string {
	return fmt.Sprintf("%s:%d", c.IMAPHost, c.IMAPPort)
}

// MailcowEnabled returns true if Mailcow provisioning is configured
func (c *Config) MailcowEnabled() bool {
	return c.MailcowURL != "" && c.MailcowAPIKey != "" && c.MailcowDomain != ""
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
