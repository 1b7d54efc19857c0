package cli

import (
	"github.com/spf13/cobra"

	apperrors "github.com/tel9980/boduan/internal/errors"
)

// addHistoryCommands adds alert-history commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Alert history",
		Long:  "Browse and manage the triggered-alert history.",
	}

	cmd.AddCommand(newHistoryListCmd(app))
	cmd.AddCommand(newHistoryReadCmd(app))

	rootCmd.AddCommand(cmd)
}

func newHistoryListCmd(app *App) *cobra.Command {
	var (
		limit      int
		unreadOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List triggered alerts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			items := app.Rules.History()
			if unreadOnly {
				filtered := items[:0]
				for _, item := range items {
					if !item.Read {
						filtered = append(filtered, item)
					}
				}
				items = filtered
			}
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}

			if output.IsJSON() {
				return output.JSON(items)
			}
			if len(items) == 0 {
				output.Dim("No alerts in history")
				return nil
			}

			output.Dim("Unread: %d", app.Rules.UnreadCount())
			table := NewTable(output, "ID", "TIME", "MESSAGE", "READ")
			for _, item := range items {
				read := output.DimText("yes")
				if !item.Read {
					read = output.Yellow("no")
				}
				table.AddRow(
					item.ID,
					item.TriggeredAt.Format("2006-01-02 15:04"),
					item.Message,
					read,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show (0 = all)")
	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "show only unread alerts")

	return cmd
}

func newHistoryReadCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark an alert as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			if all {
				for _, item := range app.Rules.History() {
					if !item.Read {
						app.Rules.MarkRead(item.ID)
					}
				}
				output.Success("All alerts marked read")
				return nil
			}

			if len(args) == 0 {
				return apperrors.NewValidationError("id", "", "pass an alert id or --all")
			}
			app.Rules.MarkRead(args[0])
			output.Success("Alert %s marked read", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "mark every alert as read")

	return cmd
}
