package cli

import (
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/pkg/utils"
)

// addMarketCommands adds market data commands.
func addMarketCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Market data",
	}

	cmd.AddCommand(newMarketStatusCmd())
	cmd.AddCommand(newMarketQuoteCmd(app))

	rootCmd.AddCommand(cmd)
}

func newMarketStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show trading session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			now := time.Now()
			status := utils.GetMarketStatus(now)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"status":    string(status),
					"next_open": utils.NextTradingOpen(now),
				})
			}

			output.Printf("Market: %s\n", output.MarketStatusText(status))
			if status != utils.MarketOpen {
				output.Dim("Next open: %s", utils.NextTradingOpen(now).Format("2006-01-02 15:04 MST"))
			} else {
				output.Dim("Today's close: %s", utils.TodayClose(now).Format("15:04 MST"))
			}
			return nil
		},
	}
}

func newMarketQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <code>",
		Short: "Fetch a realtime quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Provider == nil {
				output.Error("Market data provider is unavailable")
				return apperrors.ErrStoreClosed
			}

			quote, err := app.Provider.FetchQuote(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}

			output.Bold(quote.Code)
			output.Printf("  Price:        %s\n", utils.FormatCurrency(quote.Price))
			output.Printf("  Change:       %s\n", output.FormatPercentColored(quote.ChangePercent))
			output.Printf("  Volume ratio: %.2f\n", quote.VolumeRatio)
			output.Printf("  Market cap:   %.1f (100M CNY)\n", quote.MarketCap)
			return nil
		},
	}
}
