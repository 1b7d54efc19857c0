package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tel9980/boduan/internal/alert"
	apperrors "github.com/tel9980/boduan/internal/errors"
)

// addMonitorCommands adds the alert monitor commands.
func addMonitorCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Alert monitoring",
		Long:  "Run the alert evaluation loop and the position price refresher.",
	}

	cmd.AddCommand(newMonitorStartCmd(app))
	cmd.AddCommand(newMonitorCheckCmd(app))

	rootCmd.AddCommand(cmd)
}

func newMonitorStartCmd(app *App) *cobra.Command {
	var noRefresh bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the alert monitor until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			ctx := cmd.Context()

			if err := app.Engine.Start(ctx); err != nil {
				return err
			}
			defer app.Engine.Stop()

			if !noRefresh {
				if err := app.Ledger.StartPriceRefresh(ctx); err != nil {
					app.Engine.Stop()
					return err
				}
				defer app.Ledger.StopPriceRefresh()
			}

			output.Info("Monitor running, press Ctrl+C to stop")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-ctx.Done():
			}

			output.Println()
			output.Info("Shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "skip the position price refresher")

	return cmd
}

func newMonitorCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single evaluation cycle now",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			result := app.Engine.RunCycle(cmd.Context())

			if output.IsJSON() {
				return output.JSON(result)
			}

			if result.Skipped != alert.SkipNone {
				output.Warning("Cycle skipped: %s", result.Skipped)
				return nil
			}
			output.Printf("Evaluated: %d\n", result.Evaluated)
			output.Printf("Triggered: %d\n", result.Triggered)
			if result.Expired > 0 {
				output.Dim("Expired rules deactivated: %d", result.Expired)
			}
			return nil
		},
	}
}
