package tariff

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// File is the on-disk (YAML) and wire (JSON) form of a tariff plan.
type File struct {
	Name                  string  `yaml:"name" json:"name"`
	Currency              string  `yaml:"currency,omitempty" json:"currency,omitempty"`
	MainWindowStart       string  `yaml:"main_window_start" json:"main_window_start"`
	MainWindowEnd         string  `yaml:"main_window_end" json:"main_window_end"`
	MainRate              float64 `yaml:"main_rate" json:"main_rate"`
	OtherRate             float64 `yaml:"other_rate" json:"other_rate"`
	BonusThresholdMinutes float64 `yaml:"bonus_threshold_minutes" json:"bonus_threshold_minutes"`
	BonusRate             float64 `yaml:"bonus_rate" json:"bonus_rate"`
}

// Config converts the file into a validated TariffConfig.
func (f File) Config() (model.TariffConfig, error) {
	start, err := model.ParseTimeOfDay(f.MainWindowStart)
	if err != nil {
		return model.TariffConfig{}, &ConfigError{Field: "main_window_start", Value: f.MainWindowStart, Reason: err.Error()}
	}
	end, err := model.ParseTimeOfDay(f.MainWindowEnd)
	if err != nil {
		return model.TariffConfig{}, &ConfigError{Field: "main_window_end", Value: f.MainWindowEnd, Reason: err.Error()}
	}

	threshold, err := MinutesToDuration(f.BonusThresholdMinutes)
	if err != nil {
		return model.TariffConfig{}, err
	}

	t := model.TariffConfig{
		Name:            f.Name,
		MainWindowStart: start,
		MainWindowEnd:   end,
		MainRate:        f.MainRate,
		OtherRate:       f.OtherRate,
		BonusThreshold:  threshold,
		BonusRate:       f.BonusRate,
		Currency:        f.Currency,
	}
	if err := Validate(t); err != nil {
		return model.TariffConfig{}, err
	}
	return t, nil
}

// FromConfig is the inverse of File.Config.
func FromConfig(t model.TariffConfig) File {
	return File{
		Name:                  t.Name,
		Currency:              t.Currency,
		MainWindowStart:       t.MainWindowStart.String(),
		MainWindowEnd:         t.MainWindowEnd.String(),
		MainRate:              t.MainRate,
		OtherRate:             t.OtherRate,
		BonusThresholdMinutes: t.BonusThreshold.Minutes(),
		BonusRate:             t.BonusRate,
	}
}

// MinutesToDuration converts a bonus threshold given in possibly fractional
// minutes. It rejects values a time.Duration cannot hold and positive values
// too small to survive the conversion.
func MinutesToDuration(minutes float64) (time.Duration, error) {
	invalid := func(reason string) error {
		return &ConfigError{Field: "bonus_threshold_minutes", Value: formatFloat(minutes), Reason: reason}
	}

	switch {
	case math.IsNaN(minutes) || math.IsInf(minutes, 0):
		return 0, invalid("must be a finite number")
	case minutes < 0:
		return 0, invalid("must be non-negative")
	}

	ns := math.Round(minutes * float64(time.Minute))
	if ns >= math.MaxInt64 {
		return 0, invalid("too large")
	}
	d := time.Duration(ns)
	if minutes > 0 && d == 0 {
		return 0, invalid("too small")
	}
	return d, nil
}

// LoadFile reads a YAML tariff plan.
func LoadFile(path string) (model.TariffConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.TariffConfig{}, fmt.Errorf("read tariff file %s: %w", path, err)
	}

	t, err := LoadBytes(data)
	if err != nil {
		return model.TariffConfig{}, fmt.Errorf("tariff file %s: %w", path, err)
	}
	return t, nil
}

// LoadBytes parses YAML tariff data from raw bytes.
func LoadBytes(data []byte) (model.TariffConfig, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return model.TariffConfig{}, fmt.Errorf("parse tariff data: %w", err)
	}
	if f.Name == "" {
		return model.TariffConfig{}, fmt.Errorf("missing plan name")
	}
	return f.Config()
}
