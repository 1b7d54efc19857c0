package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/internal/rules"
	"github.com/tel9980/boduan/pkg/utils"
)

// addRuleCommands adds alert-rule management commands.
func addRuleCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Alert rule management",
		Long:  "Create, list and manage alert rules.",
	}

	cmd.AddCommand(newRuleAddCmd(app))
	cmd.AddCommand(newRuleListCmd(app))
	cmd.AddCommand(newRuleRemoveCmd(app))
	cmd.AddCommand(newRuleEnableCmd(app, true))
	cmd.AddCommand(newRuleEnableCmd(app, false))

	rootCmd.AddCommand(cmd)
}

func newRuleAddCmd(app *App) *cobra.Command {
	var (
		ruleType   string
		code       string
		name       string
		target     float64
		direction  string
		change     float64
		volume     float64
		expireDays int
		channels   []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an alert rule",
		Example: `  boduan rule add --type price --code 600519 --name Moutai --target 1800 --direction up
  boduan rule add --type stop_loss --code 600519 --target 1500
  boduan rule add --type abnormal --code 000001 --change 5 --volume 3
  boduan rule add --type signal --code 002594`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			t := models.RuleType(ruleType)
			if !t.Valid() {
				return apperrors.NewValidationError("type", ruleType, "must be one of price, stop_loss, take_profit, abnormal, signal")
			}
			if code == "" {
				return apperrors.NewValidationError("code", code, "must not be empty")
			}

			rule := models.AlertRule{
				Type:      t,
				StockCode: code,
				StockName: name,
				IsActive:  true,
				ExpiresAt: time.Now().Add(time.Duration(expireDays) * 24 * time.Hour),
				Channels:  parseChannels(channels),
			}

			switch t {
			case models.RulePrice, models.RuleStopLoss, models.RuleTakeProfit:
				if target <= 0 {
					return apperrors.NewValidationError("target", target, "must be positive for price-keyed rules")
				}
				rule.Conditions = models.TargetConditions(target, models.Direction(direction))
			default:
				rule.Conditions = models.ThresholdConditions(change, volume)
			}

			id := app.Rules.Add(rule)
			if output.IsJSON() {
				return output.JSON(map[string]string{"id": id})
			}
			output.Success("Rule %s added", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleType, "type", "price", "rule type (price, stop_loss, take_profit, abnormal, signal)")
	cmd.Flags().StringVar(&code, "code", "", "stock code")
	cmd.Flags().StringVar(&name, "name", "", "stock name")
	cmd.Flags().Float64Var(&target, "target", 0, "target price for price-keyed rules")
	cmd.Flags().StringVar(&direction, "direction", "up", "watch direction for price rules (up, down)")
	cmd.Flags().Float64Var(&change, "change", 0, "change percent threshold for abnormal rules (0 = default)")
	cmd.Flags().Float64Var(&volume, "volume", 0, "volume ratio threshold for abnormal rules (0 = default)")
	cmd.Flags().IntVar(&expireDays, "expires-days", 30, "days until the rule expires")
	cmd.Flags().StringSliceVar(&channels, "channels", []string{"browser", "sound", "internal"}, "notification channels")

	return cmd
}

func newRuleListCmd(app *App) *cobra.Command {
	var (
		ruleType   string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alert rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			filter := rules.Filter{Type: models.RuleType(ruleType)}
			if activeOnly {
				active := true
				filter.IsActive = &active
			}
			list := app.Rules.List(filter)

			if output.IsJSON() {
				return output.JSON(list)
			}
			if len(list) == 0 {
				output.Dim("No alert rules")
				return nil
			}

			table := NewTable(output, "ID", "TYPE", "STOCK", "CONDITION", "ACTIVE", "EXPIRES")
			for _, r := range list {
				active := output.Green("yes")
				if !r.IsActive {
					active = output.DimText("no")
				}
				table.AddRow(
					r.ID,
					string(r.Type),
					fmt.Sprintf("%s %s", r.StockCode, r.StockName),
					conditionText(r),
					active,
					r.ExpiresAt.Format(app.Config.UI.DateFormat),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleType, "type", "", "filter by rule type")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "show only active rules")

	return cmd
}

func newRuleRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an alert rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}
			if _, ok := app.Rules.Get(args[0]); !ok {
				return apperrors.ErrRuleNotFound
			}
			app.Rules.Remove(args[0])
			output.Success("Rule %s removed", args[0])
			return nil
		},
	}
}

func newRuleEnableCmd(app *App, enable bool) *cobra.Command {
	use, short := "enable <id>", "Enable an alert rule"
	if !enable {
		use, short = "disable <id>", "Disable an alert rule"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}
			if _, ok := app.Rules.Get(args[0]); !ok {
				return apperrors.ErrRuleNotFound
			}
			app.Rules.SetActive(args[0], enable)
			if enable {
				output.Success("Rule %s enabled", args[0])
			} else {
				output.Success("Rule %s disabled", args[0])
			}
			return nil
		},
	}
}

// parseChannels maps channel flag values to channel kinds, dropping unknown
// names.
func parseChannels(names []string) []models.ChannelKind {
	var kinds []models.ChannelKind
	for _, n := range names {
		switch models.ChannelKind(strings.TrimSpace(n)) {
		case models.ChannelBrowser:
			kinds = append(kinds, models.ChannelBrowser)
		case models.ChannelSound:
			kinds = append(kinds, models.ChannelSound)
		case models.ChannelInternal:
			kinds = append(kinds, models.ChannelInternal)
		}
	}
	return kinds
}

// conditionText renders a rule's condition for table display.
func conditionText(r models.AlertRule) string {
	switch r.Type {
	case models.RulePrice:
		if t := r.Conditions.Target; t != nil {
			arrow := ">="
			if t.Direction == models.DirectionDown {
				arrow = "<="
			}
			return fmt.Sprintf("price %s %s", arrow, utils.FormatCurrency(t.TargetPrice))
		}
	case models.RuleStopLoss:
		if t := r.Conditions.Target; t != nil {
			return fmt.Sprintf("price <= %s", utils.FormatCurrency(t.TargetPrice))
		}
	case models.RuleTakeProfit:
		if t := r.Conditions.Target; t != nil {
			return fmt.Sprintf("price >= %s", utils.FormatCurrency(t.TargetPrice))
		}
	case models.RuleAbnormal:
		if th := r.Conditions.Threshold; th != nil && (th.ChangePercent != 0 || th.VolumeRatio != 0) {
			return fmt.Sprintf("|chg| > %.1f%% or vol > %.1f", th.ChangePercent, th.VolumeRatio)
		}
		return "abnormal move (defaults)"
	case models.RuleSignal:
		return "band signal screen"
	}
	return "-"
}
