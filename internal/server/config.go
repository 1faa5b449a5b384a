package server

import (
	"fmt"
	"time"

	"github.com/alwaysssummer/eng-lib/internal/database"
	"github.com/alwaysssummer/eng-lib/internal/sync"
	"github.com/alwaysssummer/eng-lib/pkg/dropbox"
)

// SyncConfig controls the background sync scheduler and trigger auth.
type SyncConfig struct {
	// Schedule is a cron expression for periodic incremental syncs. Empty
	// uses the default; "off" disables the scheduler.
	Schedule string `yaml:"schedule" env:"SCHEDULE"`

	// CronSecret, when set, is required as a bearer token on the cron
	// trigger endpoint.
	CronSecret string `yaml:"cron_secret" env:"CRON_SECRET"`
}

// Config represents the server configuration
type Config struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port int    `yaml:"port" env:"SERVER_PORT"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	Database *database.Config `yaml:"database"`
	Dropbox  *dropbox.Config  `yaml:"dropbox"`
	Sync     *SyncConfig      `yaml:"sync"`
}

// GetDefaultConfig returns a default server configuration
func GetDefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Database:        database.GetDefaultConfig(),
		Dropbox:         dropbox.GetDefaultConfig(),
		Sync: &SyncConfig{
			Schedule: sync.DefaultSchedule,
		},
	}
}

// GetAddress returns the server address
func (c *Config) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}

	if c.Dropbox == nil {
		return fmt.Errorf("dropbox configuration is required")
	}

	if c.Dropbox.RootPath == "" {
		return fmt.Errorf("dropbox root path is required")
	}

	hasStatic := c.Dropbox.AccessToken != ""
	hasRefresh := c.Dropbox.RefreshToken != "" && c.Dropbox.AppKey != "" && c.Dropbox.AppSecret != ""
	if !hasStatic && !hasRefresh {
		return fmt.Errorf("dropbox credentials are required: either an access token or refresh token with app key and secret")
	}

	if c.Dropbox.SigningSecret() == "" {
		return fmt.Errorf("dropbox webhook secret or app secret is required")
	}

	return nil
}
