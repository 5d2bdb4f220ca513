// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig                 `mapstructure:"app"`
	Monitoring    MonitoringConfig          `mapstructure:"monitoring"`
	Platforms     map[string]PlatformConfig `mapstructure:"platforms"`
	Storage       StorageConfig             `mapstructure:"storage"`
	Notifications NotificationConfig        `mapstructure:"notifications"`
	Cache         CacheConfig               `mapstructure:"cache"`
	Server        ServerConfig              `mapstructure:"server"`
	Logging       LoggingConfig             `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// MonitoringConfig contains scheduling and fetch configuration
type MonitoringConfig struct {
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	CycleInterval   time.Duration `mapstructure:"cycle_interval"`
	PlatformTimeout time.Duration `mapstructure:"platform_timeout"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`
}

// PlatformConfig contains one marketplace adapter's configuration
type PlatformConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Headers map[string]string `mapstructure:"headers"`
}

// StorageConfig contains database configuration
type StorageConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// NotificationConfig contains alert delivery configuration
type NotificationConfig struct {
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
	Email           EmailConfig   `mapstructure:"email"`
	SMS             GatewayConfig `mapstructure:"sms"`
	Push            GatewayConfig `mapstructure:"push"`
	Webhook         WebhookConfig `mapstructure:"webhook"`
}

// EmailConfig contains SMTP settings
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// GatewayConfig contains an HTTP notification gateway's settings (push, sms)
type GatewayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
}

// WebhookConfig contains outbound webhook settings
type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

// CacheConfig contains real-time cache configuration
type CacheConfig struct {
	SummaryTTL time.Duration `mapstructure:"summary_ttl"`
	FeedSize   int           `mapstructure:"feed_size"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./internal/config")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("TICKET_MONITOR")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Storage.ConnectionString = dbURL
	}
	if smtpPass := os.Getenv("SMTP_PASSWORD"); smtpPass != "" {
		config.Notifications.Email.Password = smtpPass
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "ticket-monitor")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Monitoring defaults
	viper.SetDefault("monitoring.max_concurrency", 10)
	viper.SetDefault("monitoring.cycle_interval", "250ms")
	viper.SetDefault("monitoring.platform_timeout", "2s")
	viper.SetDefault("monitoring.max_backoff", "5m")

	// Platform defaults
	viper.SetDefault("platforms.ticketmaster.enabled", true)
	viper.SetDefault("platforms.ticketmaster.base_url", "https://app.ticketmaster.com")
	viper.SetDefault("platforms.stubhub.enabled", true)
	viper.SetDefault("platforms.stubhub.base_url", "https://api.stubhub.com")
	viper.SetDefault("platforms.seatgeek.enabled", true)
	viper.SetDefault("platforms.seatgeek.base_url", "https://api.seatgeek.com")

	// Storage defaults
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.connection_string", "./data/monitors.db")
	viper.SetDefault("storage.max_connections", 25)
	viper.SetDefault("storage.max_idle_time", "15m")

	// Notification defaults
	viper.SetDefault("notifications.dispatch_timeout", "10s")
	viper.SetDefault("notifications.email.enabled", false)
	viper.SetDefault("notifications.email.smtp_port", 587)
	viper.SetDefault("notifications.sms.enabled", false)
	viper.SetDefault("notifications.push.enabled", false)
	viper.SetDefault("notifications.webhook.enabled", false)

	// Cache defaults
	viper.SetDefault("cache.summary_ttl", "60s")
	viper.SetDefault("cache.feed_size", 50)

	// Server defaults
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Storage.ConnectionString == "" {
		return fmt.Errorf("storage connection string is required")
	}
	if c.Monitoring.MaxConcurrency <= 0 {
		return fmt.Errorf("monitoring max concurrency must be positive")
	}
	if c.Monitoring.PlatformTimeout <= 0 {
		return fmt.Errorf("platform timeout must be positive")
	}
	if c.Cache.SummaryTTL <= 0 {
		return fmt.Errorf("cache summary TTL must be positive")
	}
	enabled := 0
	for _, p := range c.Platforms {
		if p.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one platform must be enabled")
	}
	return nil
}
