package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apperrors "github.com/tel9980/boduan/internal/errors"
	"github.com/tel9980/boduan/internal/market"
	"github.com/tel9980/boduan/internal/models"
	"github.com/tel9980/boduan/internal/notify"
	"github.com/tel9980/boduan/internal/portfolio"
	"github.com/tel9980/boduan/internal/rules"
	"github.com/tel9980/boduan/internal/store"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	logger := zerolog.Nop()
	repo := store.NewMemoryStore()
	ruleStore := rules.NewStore(repo, logger)
	dispatcher := notify.NewDispatcher(logger)

	return &App{
		Logger:     logger,
		Store:      repo,
		Rules:      ruleStore,
		Ledger:     portfolio.NewLedger(repo, ruleStore, market.NewStaticProvider(nil), dispatcher, time.Minute, logger),
		Dispatcher: dispatcher,
	}
}

// execute runs one command line against a fresh root command wired to app.
func execute(t *testing.T, app *App, args ...string) error {
	t.Helper()

	root := &cobra.Command{Use: "boduan", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().Bool("json", false, "output in JSON format")
	addRuleCommands(root, app)
	addPositionCommands(root, app)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return root.Execute()
}

func TestRuleCommandsRejectUnknownID(t *testing.T) {
	app := newTestApp(t)

	for _, args := range [][]string{
		{"rule", "remove", "no-such-id"},
		{"rule", "enable", "no-such-id"},
		{"rule", "disable", "no-such-id"},
	} {
		if err := execute(t, app, args...); !apperrors.Is(err, apperrors.ErrRuleNotFound) {
			t.Errorf("%v returned %v, want ErrRuleNotFound", args, err)
		}
	}
}

func TestRuleDisableKnownID(t *testing.T) {
	app := newTestApp(t)
	id := app.Rules.Add(models.AlertRule{
		Type:       models.RulePrice,
		StockCode:  "600519",
		IsActive:   true,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
		Conditions: models.TargetConditions(1800, models.DirectionUp),
	})

	if err := execute(t, app, "rule", "disable", id); err != nil {
		t.Fatalf("disable: %v", err)
	}

	rule, ok := app.Rules.Get(id)
	if !ok || rule.IsActive {
		t.Error("rule still active after disable")
	}
}

func TestPositionCommandsRejectUnknownID(t *testing.T) {
	app := newTestApp(t)

	for _, args := range [][]string{
		{"position", "remove", "no-such-id"},
		{"position", "update", "no-such-id", "--notes", "note"},
	} {
		if err := execute(t, app, args...); !apperrors.Is(err, apperrors.ErrPositionNotFound) {
			t.Errorf("%v returned %v, want ErrPositionNotFound", args, err)
		}
	}
}
