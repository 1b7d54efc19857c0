package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/models"
)

// addSettingsCommands adds notification-settings commands.
func addSettingsCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Notification settings",
		Long:  "View and change the alerting knobs the monitor reads every cycle.",
	}

	cmd.AddCommand(newSettingsShowCmd(app))
	cmd.AddCommand(newSettingsSetCmd(app))

	rootCmd.AddCommand(cmd)
}

func newSettingsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show notification settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			settings, err := app.Store.LoadSettings()
			if err != nil {
				output.Warning("Loading settings failed, showing defaults: %v", err)
				settings = models.DefaultNotificationSettings()
			}

			if output.IsJSON() {
				return output.JSON(settings)
			}

			output.Bold("Notification Settings")
			output.Printf("  Master switch:      %s\n", onOff(output, settings.MasterSwitch))
			output.Printf("  Price alerts:       %s\n", onOff(output, settings.PriceAlert))
			output.Printf("  Position alerts:    %s\n", onOff(output, settings.PositionAlert))
			output.Printf("  Watchlist alerts:   %s\n", onOff(output, settings.WatchlistAlert))
			output.Printf("  Max alerts per day: %d\n", settings.MaxAlertsPerDay)
			output.Printf("  Cooldown:           %.1fh\n", settings.AlertIntervalHours)
			output.Printf("  Trading hours only: %s\n", onOff(output, settings.TradingHoursOnly))
			output.Println()
			output.Bold("Channels")
			output.Printf("  Browser:  %s\n", onOff(output, settings.Channels.Browser))
			output.Printf("  Sound:    %s\n", onOff(output, settings.Channels.Sound))
			output.Printf("  Internal: %s\n", onOff(output, settings.Channels.Internal))
			return nil
		},
	}
}

func newSettingsSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a notification setting",
		Long: `Change one notification setting and persist it.

Keys:
  master, price, position, watchlist, trading-hours-only,
  browser, sound, internal          (values: on/off)
  max-per-day                       (integer)
  interval-hours                    (decimal hours)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !requireStore(app, output) {
				return apperrors.ErrStoreClosed
			}

			settings, err := app.Store.LoadSettings()
			if err != nil {
				settings = models.DefaultNotificationSettings()
			}

			key, value := args[0], args[1]
			if err := applySetting(&settings, key, value); err != nil {
				return err
			}

			if err := app.Store.SaveSettings(settings); err != nil {
				return apperrors.Wrap(err, "saving settings")
			}
			output.Success("Setting %s updated", key)
			return nil
		},
	}

	return cmd
}

func applySetting(s *models.NotificationSettings, key, value string) error {
	switch key {
	case "max-per-day":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return apperrors.NewValidationError(key, value, "expected a non-negative integer")
		}
		s.MaxAlertsPerDay = n
		return nil
	case "interval-hours":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return apperrors.NewValidationError(key, value, "expected a non-negative number")
		}
		s.AlertIntervalHours = f
		return nil
	}

	on, err := parseOnOff(value)
	if err != nil {
		return apperrors.NewValidationError(key, value, "expected on or off")
	}

	switch key {
	case "master":
		s.MasterSwitch = on
	case "price":
		s.PriceAlert = on
	case "position":
		s.PositionAlert = on
	case "watchlist":
		s.WatchlistAlert = on
	case "trading-hours-only":
		s.TradingHoursOnly = on
	case "browser":
		s.Channels.Browser = on
	case "sound":
		s.Channels.Sound = on
	case "internal":
		s.Channels.Internal = on
	default:
		return apperrors.NewValidationError("key", key, "unknown setting")
	}
	return nil
}

func parseOnOff(value string) (bool, error) {
	switch value {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, apperrors.ErrInputValidation
}

func onOff(output *Output, on bool) string {
	if on {
		return output.Green("on")
	}
	return output.DimText("off")
}
