package cli

import (
	"github.com/spf13/cobra"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/pkg/utils"
)

// addPortfolioCommands adds portfolio analytics commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio analytics",
		Long:  "Aggregate profit/loss, holding statistics and risk assessment.",
	}

	cmd.AddCommand(newPortfolioPnLCmd(app))
	cmd.AddCommand(newPortfolioStatsCmd(app))
	cmd.AddCommand(newPortfolioRiskCmd(app))

	rootCmd.AddCommand(cmd)
}

func newPortfolioPnLCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pnl",
		Short: "Show total profit/loss",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			total := app.Ledger.TotalPnL()
			if output.IsJSON() {
				return output.JSON(total)
			}

			output.Bold("Portfolio P&L")
			output.Printf("  Total cost:  %s\n", utils.FormatCurrency(total.TotalCost))
			output.Printf("  Total value: %s\n", utils.FormatCurrency(total.TotalValue))
			output.Printf("  Total P&L:   %s (%s)\n", output.FormatPnL(total.TotalPnL), output.FormatPercentColored(total.TotalPnLPercent))
			output.Printf("  Winners: %d  Losers: %d\n", total.ProfitCount, total.LossCount)
			return nil
		},
	}
}

func newPortfolioStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show portfolio statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			stats := app.Ledger.Statistics()
			if output.IsJSON() {
				return output.JSON(stats)
			}

			output.Bold("Portfolio Statistics")
			output.Printf("  Positions:     %d\n", stats.TotalPositions)
			output.Printf("  Total value:   %s\n", utils.FormatCurrency(stats.TotalValue))
			output.Printf("  Total P&L:     %s (%s)\n", output.FormatPnL(stats.TotalPnL), output.FormatPercentColored(stats.TotalPnLPercent))
			output.Printf("  Avg hold days: %d\n", stats.AvgHoldDays)
			if stats.BestPosition != nil {
				output.Printf("  Best:  %s %s %s\n", stats.BestPosition.Code, stats.BestPosition.Name, output.FormatPercentColored(stats.BestPosition.PnLPercent))
			}
			if stats.WorstPosition != nil {
				output.Printf("  Worst: %s %s %s\n", stats.WorstPosition.Code, stats.WorstPosition.Name, output.FormatPercentColored(stats.WorstPosition.PnLPercent))
			}
			return nil
		},
	}
}

func newPortfolioRiskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "risk",
		Short: "Assess portfolio risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			risk := app.Ledger.Risk()
			if output.IsJSON() {
				return output.JSON(risk)
			}

			level := output.Green(string(risk.RiskLevel))
			switch risk.RiskLevel {
			case models.RiskMedium:
				level = output.Yellow(string(risk.RiskLevel))
			case models.RiskHigh:
				level = output.Red(string(risk.RiskLevel))
			}

			output.Bold("Risk Assessment")
			output.Printf("  Level:              %s\n", level)
			output.Printf("  Concentration:      %.0f%%\n", risk.Concentration*100)
			output.Printf("  Board diversity:    %.0f%%\n", risk.BoardDiversity*100)
			output.Printf("  Industry diversity: %.0f%%\n", risk.IndustryDiversity*100)
			output.Println()
			output.Bold("Suggestions")
			for _, s := range risk.Suggestions {
				output.Printf("  - %s\n", s)
			}
			return nil
		},
	}
}
