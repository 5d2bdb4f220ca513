// File: cmd/monitor/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hdtickets/ticket-monitor/internal/cache"
	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/internal/dispatch"
	"github.com/hdtickets/ticket-monitor/internal/fetch"
	"github.com/hdtickets/ticket-monitor/internal/metrics"
	"github.com/hdtickets/ticket-monitor/internal/monitor"
	"github.com/hdtickets/ticket-monitor/internal/platform"
	"github.com/hdtickets/ticket-monitor/internal/scheduler"
	"github.com/hdtickets/ticket-monitor/internal/server"
	"github.com/hdtickets/ticket-monitor/internal/storage"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application represents the main application
type Application struct {
	config         *config.Config
	logger         *logrus.Logger
	storage        storage.Storage
	registry       *platform.Registry
	service        *monitor.MonitorService
	server         *server.HTTPServer
	metricsManager *metrics.Manager
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize logger
	if err := app.initializeLogger(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize components
	if err := app.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger = utils.GetLogger()
	app.logger.Info("Logger initialized",
		"level", logCfg.Level,
		"format", logCfg.Format,
		"output", logCfg.Output)

	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	app.logger.Info("Initializing application components")

	app.metricsManager = metrics.NewManager()

	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initializeService(); err != nil {
		return fmt.Errorf("failed to initialize monitoring service: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	app.logger.Info("All components initialized successfully")
	return nil
}

// initializeStorage initializes the storage layer
func (app *Application) initializeStorage() error {
	app.logger.Info("Initializing storage layer")

	var err error
	app.storage, err = storage.NewStorage(&app.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	app.storage.SetMetricsManager(app.metricsManager)

	if err := app.storage.Connect(); err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	if err := app.storage.Migrate(); err != nil {
		return fmt.Errorf("failed to run storage migrations: %w", err)
	}

	app.logger.Info("Storage layer initialized successfully")
	return nil
}

// initializeService wires the monitoring pipeline
func (app *Application) initializeService() error {
	app.logger.Info("Initializing monitoring service")

	registry, err := platform.NewRegistry(app.config.Platforms)
	if err != nil {
		return fmt.Errorf("failed to build platform registry: %w", err)
	}
	app.registry = registry

	orchestrator := fetch.NewOrchestrator(app.registry, app.config.Monitoring.PlatformTimeout, app.metricsManager)

	backoff := scheduler.NewBackoffManager(app.config.Monitoring.MaxBackoff)
	sched := scheduler.NewScheduler(backoff)

	channels := buildChannels(&app.config.Notifications)
	dispatcher := dispatch.NewDispatcher(channels, app.config.Notifications.DispatchTimeout, app.metricsManager)

	summaryCache := cache.NewSummaryCache(app.config.Cache.SummaryTTL, app.metricsManager)
	changeFeed := cache.NewChangeFeed(app.config.Cache.FeedSize)

	app.service = monitor.NewMonitorService(
		app.storage,
		app.registry,
		orchestrator,
		sched,
		dispatcher,
		summaryCache,
		changeFeed,
		&app.config.Monitoring,
		app.metricsManager,
	)

	app.logger.Info("Monitoring service initialized successfully",
		"platforms", app.registry.Enabled(),
		"channels", len(channels))
	return nil
}

// buildChannels constructs the enabled notification channels. The log
// channel is always present as the fallback target.
func buildChannels(cfg *config.NotificationConfig) []dispatch.Channel {
	channels := []dispatch.Channel{dispatch.NewLogChannel()}

	if cfg.Email.Enabled {
		channels = append(channels, dispatch.NewEmailChannel(cfg.Email))
	}
	if cfg.SMS.Enabled {
		channels = append(channels, dispatch.NewSMSChannel(cfg.SMS))
	}
	if cfg.Push.Enabled {
		channels = append(channels, dispatch.NewPushChannel(cfg.Push))
	}
	if cfg.Webhook.Enabled {
		channels = append(channels, dispatch.NewWebhookChannel(cfg.Webhook))
	}

	return channels
}

// initializeServer initializes the HTTP server
func (app *Application) initializeServer() error {
	app.logger.Info("Initializing HTTP server")

	var err error
	app.server, err = server.NewHTTPServer(&app.config.Server, app.storage, app.service, app.metricsManager)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	app.logger.Info("HTTP server initialized successfully")
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	app.logger.Info("Starting ticket monitor",
		"version", AppVersion,
		"environment", app.config.App.Environment)

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := app.service.Start(app.ctx); err != nil {
		return fmt.Errorf("failed to start monitoring service: %w", err)
	}

	app.logger.Info("Ticket monitor started successfully",
		"server_address", fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port),
		"platforms", app.registry.Enabled())

	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	app.logger.Info("Stopping ticket monitor")

	app.cancel()

	// Stop components in reverse order
	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			app.logger.Error("Failed to stop HTTP server", "error", err)
		}
	}

	if app.service != nil {
		if err := app.service.Stop(); err != nil {
			app.logger.Error("Failed to stop monitoring service", "error", err)
		}
	}

	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			app.logger.Error("Failed to close storage", "error", err)
		}
	}

	app.logger.Info("Ticket monitor stopped successfully")
	return nil
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "ticket-monitor",
	Short:   "Ticket marketplace monitoring service",
	Long:    `A concurrent monitoring service that watches ticket marketplaces for listing, price, and inventory changes and dispatches real-time alerts.`,
	Version: AppVersion,
	RunE:    runMonitor,
}

// runMonitor is the main command to run the monitoring service
func runMonitor(cmd *cobra.Command, args []string) error {
	// Load configuration
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create application
	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Set up signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	// Start application
	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	// Wait for shutdown signal
	<-signalChan
	fmt.Println("\nReceived shutdown signal, stopping application...")

	// Stop application
	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	return nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Ticket Monitor %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		enabled := []string{}
		for name, p := range cfg.Platforms {
			if p.Enabled {
				enabled = append(enabled, name)
			}
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Database: %s\n", cfg.Storage.Type)
		fmt.Printf("Platforms: %v\n", enabled)
		fmt.Printf("Cycle interval: %s\n", cfg.Monitoring.CycleInterval)

		return nil
	},
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Println("Testing ticket monitor connectivity...")

		// Test storage
		fmt.Printf("Testing storage connection (%s)...\n", cfg.Storage.Type)
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		if err := store.Connect(); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		defer store.Close()
		fmt.Println("✓ Storage connection successful")

		// Test platform adapter configuration
		registry, err := platform.NewRegistry(cfg.Platforms)
		if err != nil {
			return fmt.Errorf("platform configuration invalid: %w", err)
		}
		enabled := registry.Enabled()
		fmt.Printf("✓ %d platform(s) configured: %v\n", len(enabled), enabled)

		// Test SMTP settings (if configured)
		if cfg.Notifications.Email.Enabled {
			if cfg.Notifications.Email.SMTPHost == "" || cfg.Notifications.Email.From == "" {
				return fmt.Errorf("email enabled but SMTP host or sender missing")
			}
			fmt.Println("✓ Email configuration valid")
		}

		fmt.Println("\nAll connectivity tests passed! ✓")
		return nil
	},
}

// init initializes the CLI commands
func init() {
	// Add persistent flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug mode")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(testCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
