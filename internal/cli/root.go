package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/callbill/internal/config"
	"github.com/ogulcanaydogan/callbill/pkg/alerts"
	"github.com/ogulcanaydogan/callbill/pkg/billing"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "callbill",
	Short: "callbill - telephone call billing",
	Long: `callbill rates call detail records against a daily tariff window.
Each call is split into main-window, off-window and long-call bonus time,
the most frequent caller is billed for free, and the monthly total is
reported together with descriptive statistics of the per-call costs.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.callbill/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initRegistry loads named tariff plans from the plans directory.
func initRegistry(cfg *config.Config) (*tariff.Registry, error) {
	registry := tariff.NewRegistry()
	plansDir := cfg.Plans.Dir

	// Try to find plans directory
	if _, err := os.Stat(plansDir); os.IsNotExist(err) {
		// Try relative to executable
		exePath, _ := os.Executable()
		if exePath != "" {
			altDir := filepath.Join(filepath.Dir(exePath), "plans")
			if _, altErr := os.Stat(altDir); altErr == nil {
				plansDir = altDir
			}
		}
	}

	if err := registry.LoadDir(plansDir); err != nil {
		return nil, fmt.Errorf("load tariff plans: %w", err)
	}
	return registry, nil
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		backoff, err := time.ParseDuration(cfg.Alerts.Webhook.RetryBackoff)
		if err != nil {
			backoff = -1 // keep the notifier default
		}
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
			alerts.WithRetry(cfg.Alerts.Webhook.MaxAttempts, backoff),
		))
	}

	return notifiers
}

// app bundles everything a command needs to bill calls.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	engine    *billing.Engine
	plans     *tariff.Registry
	notifiers []alerts.Notifier
}

// initApp creates a fully wired billing engine. observer may be nil.
func initApp(cfg *config.Config, observer billing.Observer) (*app, error) {
	logger := newLogger(cfg)

	plans, err := initRegistry(cfg)
	if err != nil {
		return nil, err
	}

	base, err := cfg.DefaultTariff()
	if err != nil {
		return nil, fmt.Errorf("default tariff: %w", err)
	}

	notifiers := initNotifiers(cfg)
	limits := billing.NewLimitChecker(cfg.Billing.Limit, cfg.Billing.AlertThresholdPct, notifiers, logger)

	engine, err := billing.NewEngine(base, cfg.Billing.Workers, limits, observer, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		plans:     plans,
		notifiers: notifiers,
	}, nil
}
