package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tel9980/boduan/internal/alert"
	"github.com/tel9980/boduan/internal/config"
	"github.com/tel9980/boduan/internal/logging"
	"github.com/tel9980/boduan/internal/market"
	"github.com/tel9980/boduan/internal/notify"
	"github.com/tel9980/boduan/internal/portfolio"
	"github.com/tel9980/boduan/internal/rules"
	"github.com/tel9980/boduan/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-09-01"
)

// App holds the application dependencies.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Store      store.Store
	Rules      *rules.Store
	Ledger     *portfolio.Ledger
	Engine     *alert.Engine
	Provider   market.QuoteProvider
	Dispatcher *notify.Dispatcher
	InApp      *notify.InAppChannel
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dataStore, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, some features may be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Storage.DatabasePath).Msg("SQLite store initialized")
	}

	if app.Store != nil {
		app.Rules = rules.NewStore(app.Store, logger)
		app.Provider = market.NewHTTPProvider(cfg.Provider.BaseURL, cfg.Provider.Timeout)

		app.InApp = notify.NewInAppChannel(logger)
		app.Dispatcher = notify.NewDispatcher(logger,
			app.InApp,
			notify.NewDesktopChannel(nil, app.InApp, nil, logger),
			notify.NewSoundChannel(nil, logger),
		)

		app.Engine = alert.NewEngine(app.Rules, app.Store, app.Provider, app.Dispatcher, cfg.Monitor.EvalInterval, logger)
		app.Ledger = portfolio.NewLedger(app.Store, app.Rules, app.Provider, app.Dispatcher, cfg.Monitor.RefreshInterval, logger)
	}

	rootCmd := &cobra.Command{
		Use:   "boduan",
		Short: "Boduan - band trading alerts and portfolio tracking",
		Long: `Boduan watches A-share stocks against user-defined alert rules and tracks
open positions with profit/loss and risk analytics.

Alert rules cover target prices, stop-loss and take-profit levels, abnormal
moves and band-trade signals. Triggered alerts fan out to the configured
notification channels and land in the alert history.

Use 'boduan help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/boduan)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addRuleCommands(rootCmd, app)
	addMonitorCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)
	addPositionCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addSettingsCommands(rootCmd, app)
	addMarketCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Boduan v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			output.Bold("Storage")
			output.Printf("  Database:        %s\n", app.Config.Storage.DatabasePath)
			output.Println()
			output.Bold("Monitor")
			output.Printf("  Eval interval:   %s\n", app.Config.Monitor.EvalInterval)
			output.Printf("  Refresh interval: %s\n", app.Config.Monitor.RefreshInterval)
			output.Printf("  Timezone:        %s\n", app.Config.Monitor.Timezone)
			output.Println()
			output.Bold("Provider")
			output.Printf("  Base URL:        %s\n", app.Config.Provider.BaseURL)
			output.Printf("  Timeout:         %s\n", app.Config.Provider.Timeout)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

// requireStore guards commands that need the persistence layer.
func requireStore(app *App, output *Output) bool {
	if app.Store == nil {
		output.Error("Storage is unavailable, check the database path in config")
		return false
	}
	return true
}
