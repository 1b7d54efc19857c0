package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/internal/portfolio"
	"github.com/tel9980/boduan/pkg/utils"
)

// addPositionCommands adds position management commands.
func addPositionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Position management",
		Long:  "Track open positions; stop-loss and take-profit levels derive alert rules.",
	}

	cmd.AddCommand(newPositionAddCmd(app))
	cmd.AddCommand(newPositionListCmd(app))
	cmd.AddCommand(newPositionRemoveCmd(app))
	cmd.AddCommand(newPositionUpdateCmd(app))
	cmd.AddCommand(newPositionRefreshCmd(app))

	rootCmd.AddCommand(cmd)
}

func newPositionAddCmd(app *App) *cobra.Command {
	var (
		code       string
		name       string
		price      float64
		quantity   int
		buyDate    string
		stopLoss   float64
		takeProfit float64
		board      string
		industry   string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a position",
		Example: `  boduan position add --code 600519 --name Moutai --price 1700 --qty 100
  boduan position add --code 000001 --price 12.5 --qty 1000 --stop-loss 11.5 --take-profit 14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			p := models.Position{
				StockCode: code,
				StockName: name,
				BuyPrice:  price,
				Quantity:  quantity,
				Board:     board,
				Industry:  industry,
				Notes:     notes,
			}
			if buyDate != "" {
				d, err := time.Parse("2006-01-02", buyDate)
				if err != nil {
					return apperrors.NewValidationError("date", buyDate, "expected YYYY-MM-DD")
				}
				p.BuyDate = d
			}
			if stopLoss > 0 {
				p.StopLoss = &stopLoss
			}
			if takeProfit > 0 {
				p.TakeProfit = &takeProfit
			}

			id, err := app.Ledger.Add(p)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"id": id})
			}
			output.Success("Position %s added", id)
			if p.StopLoss != nil || p.TakeProfit != nil {
				output.Dim("Derived stop-loss/take-profit alert rules created")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "stock code")
	cmd.Flags().StringVar(&name, "name", "", "stock name")
	cmd.Flags().Float64Var(&price, "price", 0, "buy price")
	cmd.Flags().IntVar(&quantity, "qty", 0, "quantity in shares")
	cmd.Flags().StringVar(&buyDate, "date", "", "buy date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&stopLoss, "stop-loss", 0, "stop loss price")
	cmd.Flags().Float64Var(&takeProfit, "take-profit", 0, "take profit price")
	cmd.Flags().StringVar(&board, "board", "", "board label, e.g. main, gem, star")
	cmd.Flags().StringVar(&industry, "industry", "", "industry label")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")

	return cmd
}

func newPositionListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open positions with P&L",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			positions := app.Ledger.List()
			if output.IsJSON() {
				return output.JSON(positions)
			}
			if len(positions) == 0 {
				output.Dim("No open positions")
				return nil
			}

			table := NewTable(output, "ID", "STOCK", "BUY", "CURRENT", "QTY", "P&L", "P&L %")
			for _, p := range positions {
				pnl := portfolio.CalculatePnL(p)
				table.AddRow(
					p.ID,
					fmt.Sprintf("%s %s", p.StockCode, p.StockName),
					utils.FormatCurrency(p.BuyPrice),
					utils.FormatCurrency(p.MarketPrice()),
					fmt.Sprintf("%d", p.Quantity),
					output.FormatPnL(pnl.PnLAmount),
					output.FormatPercentColored(pnl.PnLPercent),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newPositionRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a position and its derived alert rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}
			if _, ok := app.Ledger.Get(args[0]); !ok {
				return apperrors.ErrPositionNotFound
			}
			app.Ledger.Remove(args[0])
			output.Success("Position %s removed", args[0])
			return nil
		},
	}
}

func newPositionUpdateCmd(app *App) *cobra.Command {
	var (
		stopLoss   float64
		takeProfit float64
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}
			if _, ok := app.Ledger.Get(args[0]); !ok {
				return apperrors.ErrPositionNotFound
			}

			app.Ledger.Update(args[0], func(p *models.Position) {
				if cmd.Flags().Changed("stop-loss") {
					p.StopLoss = &stopLoss
				}
				if cmd.Flags().Changed("take-profit") {
					p.TakeProfit = &takeProfit
				}
				if cmd.Flags().Changed("notes") {
					p.Notes = notes
				}
			})
			output.Success("Position %s updated", args[0])
			return nil
		},
	}

	cmd.Flags().Float64Var(&stopLoss, "stop-loss", 0, "stop loss price")
	cmd.Flags().Float64Var(&takeProfit, "take-profit", 0, "take profit price")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")

	return cmd
}

func newPositionRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh position prices once",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}
			app.Ledger.RefreshPrices(cmd.Context())
			output.Success("Prices refreshed")
			return nil
		},
	}
}
