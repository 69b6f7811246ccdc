package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/ogulcanaydogan/callbill/pkg/ingest"
	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

// Config holds all callbill configuration.
type Config struct {
	Tariff  TariffConfig  `mapstructure:"tariff"`
	Plans   PlansConfig   `mapstructure:"plans"`
	Input   InputConfig   `mapstructure:"input"`
	Billing BillingConfig `mapstructure:"billing"`
	Server  ServerConfig  `mapstructure:"server"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// TariffConfig defines the default tariff used when no plan is selected.
type TariffConfig struct {
	MainWindowStart       string  `mapstructure:"main_window_start"`
	MainWindowEnd         string  `mapstructure:"main_window_end"`
	MainRate              float64 `mapstructure:"main_rate"`
	OtherRate             float64 `mapstructure:"other_rate"`
	BonusThresholdMinutes float64 `mapstructure:"bonus_threshold_minutes"`
	BonusRate             float64 `mapstructure:"bonus_rate"`
	Currency              string  `mapstructure:"currency"`
}

// PlansConfig defines where named tariff plans live.
type PlansConfig struct {
	Dir string `mapstructure:"dir"`
}

// InputConfig defines how call detail files are decoded.
type InputConfig struct {
	TimeLayout string `mapstructure:"time_layout"`
	Delimiter  string `mapstructure:"delimiter"`
	Timezone   string `mapstructure:"timezone"`
}

// BillingConfig defines billing run settings.
type BillingConfig struct {
	Workers           int     `mapstructure:"workers"`
	Limit             float64 `mapstructure:"limit"`
	AlertThresholdPct float64 `mapstructure:"alert_threshold_pct"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen        string `mapstructure:"listen"`
	ReadTimeout   string `mapstructure:"read_timeout"`
	WriteTimeout  string `mapstructure:"write_timeout"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	Secret       string `mapstructure:"secret"`
	MaxAttempts  int    `mapstructure:"max_attempts"`
	RetryBackoff string `mapstructure:"retry_backoff"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig defines report rendering settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".callbill"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("tariff.main_window_start", "08:00")
	v.SetDefault("tariff.main_window_end", "16:00")
	v.SetDefault("tariff.main_rate", 1.00)
	v.SetDefault("tariff.other_rate", 0.50)
	v.SetDefault("tariff.bonus_threshold_minutes", 5)
	v.SetDefault("tariff.bonus_rate", 0.20)
	v.SetDefault("tariff.currency", "CZK")
	v.SetDefault("plans.dir", "plans/")
	v.SetDefault("input.time_layout", ingest.LayoutISO)
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.timezone", "UTC")
	v.SetDefault("billing.workers", 0)
	v.SetDefault("billing.limit", 0)
	v.SetDefault("billing.alert_threshold_pct", 80)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.max_upload_size", 10*1024*1024) // 10 MB
	v.SetDefault("alerts.slack.channel", "#billing")
	v.SetDefault("alerts.webhook.max_attempts", 3)
	v.SetDefault("alerts.webhook.retry_backoff", "500ms")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("output.format", "auto")

	// Environment variables
	v.SetEnvPrefix("CALLBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultTariff converts the tariff section into a validated tariff named "default".
func (c *Config) DefaultTariff() (model.TariffConfig, error) {
	return tariff.File{
		Name:                  "default",
		Currency:              c.Tariff.Currency,
		MainWindowStart:       c.Tariff.MainWindowStart,
		MainWindowEnd:         c.Tariff.MainWindowEnd,
		MainRate:              c.Tariff.MainRate,
		OtherRate:             c.Tariff.OtherRate,
		BonusThresholdMinutes: c.Tariff.BonusThresholdMinutes,
		BonusRate:             c.Tariff.BonusRate,
	}.Config()
}

// IngestOptions converts the input section into reader options.
func (c *Config) IngestOptions() (ingest.Options, error) {
	opts := ingest.Options{Layout: ingest.ResolveLayout(c.Input.TimeLayout)}

	if d := c.Input.Delimiter; d != "" {
		if d == `\t` {
			d = "\t"
		}
		r, size := utf8.DecodeRuneInString(d)
		if size != len(d) {
			return ingest.Options{}, fmt.Errorf("input delimiter %q must be a single character", c.Input.Delimiter)
		}
		opts.Delimiter = r
	}

	if tz := c.Input.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return ingest.Options{}, fmt.Errorf("load input timezone: %w", err)
		}
		opts.Location = loc
	}

	return opts, nil
}
