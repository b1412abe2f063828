// Package cli provides the command-line interface for the paper trading application.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"paper-trader/internal/config"
	"paper-trader/internal/logging"
	"paper-trader/internal/sim"
	"paper-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Sim       *sim.Store
	Snapshots store.SnapshotStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	app.Sim = sim.NewStore(sim.Config{
		InitialBalance:      cfg.Trading.InitialBalance,
		FillDelay:           cfg.Trading.FillDelay,
		MarginRate:          cfg.Trading.MarginRate,
		MediumRiskThreshold: cfg.Risk.MediumThreshold,
		HighRiskThreshold:   cfg.Risk.HighThreshold,
	}, logger)

	snapshots, err := store.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize snapshot store, state will not persist")
	} else {
		app.Snapshots = snapshots

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := snapshots.Load(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load saved state")
		} else if snap != nil {
			app.Sim.Restore(snap)
			logger.Debug().
				Float64("balance", snap.Balance).
				Int("orders", len(snap.Orders)).
				Int("positions", len(snap.Positions)).
				Msg("State restored")
		}
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Paper trading simulator CLI",
		Long: `A paper trading simulator with simulated order fills, position tracking
and margin/risk monitoring. No real money and no exchange connectivity:
fills are synthetic and prices come from a mock feed.

Use 'trader help <command>' for more information about a command.`,
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
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/paper-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addTradingCommands(rootCmd, app)
	addPositionCommands(rootCmd, app)
	addAccountCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)
	addWatchCommand(rootCmd, app)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// save persists the current simulation state. Failures are logged, never
// fatal: the simulation keeps working without persistence.
func (app *App) save() {
	if app.Snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Snapshots.Save(ctx, app.Sim.Snapshot()); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to save state")
	}
}

// waitForFill blocks until the fill delay elapses so single-shot CLI
// invocations persist the executed status rather than a forever-OPEN order.
func (app *App) waitForFill() {
	time.Sleep(app.Config.Trading.FillDelay + 100*time.Millisecond)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			NewOutput(cmd).Printf("trader %s\n", Version)
		},
	}
}
