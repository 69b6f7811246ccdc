package tariff

import (
	"math"
	"strconv"
	"time"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// Validate checks every field of a tariff.
func Validate(t model.TariffConfig) error {
	if err := ValidateWindow(t); err != nil {
		return err
	}

	rates := []struct {
		field string
		value float64
	}{
		{"main_rate", t.MainRate},
		{"other_rate", t.OtherRate},
		{"bonus_rate", t.BonusRate},
	}
	for _, r := range rates {
		if math.IsNaN(r.value) || math.IsInf(r.value, 0) {
			return &ConfigError{Field: r.field, Value: formatFloat(r.value), Reason: "must be a finite number"}
		}
		if r.value < 0 {
			return &ConfigError{Field: r.field, Value: formatFloat(r.value), Reason: "must be non-negative"}
		}
	}

	if t.BonusThreshold < 0 {
		return &ConfigError{
			Field:  "bonus_threshold_minutes",
			Value:  formatFloat(t.BonusThreshold.Minutes()),
			Reason: "must be non-negative",
		}
	}
	return nil
}

// ValidateWindow checks that the main window has positive length and does not cross midnight.
func ValidateWindow(t model.TariffConfig) error {
	value := t.MainWindowStart.String() + "-" + t.MainWindowEnd.String()
	switch {
	case t.MainWindowStart >= model.EndOfDay:
		return &ConfigError{Field: "main_window_start", Value: t.MainWindowStart.String(), Reason: "window cannot start at 24:00"}
	case t.MainWindowStart == t.MainWindowEnd:
		return &ConfigError{Field: "main_window", Value: value, Reason: "zero-length window"}
	case t.MainWindowStart > t.MainWindowEnd:
		return &ConfigError{Field: "main_window", Value: value, Reason: "window must not cross midnight"}
	}
	return nil
}

// Default returns the stock tariff: 08:00-16:00 at 1.00, otherwise 0.50,
// and 0.20 for call time beyond 5 minutes.
func Default() model.TariffConfig {
	return model.TariffConfig{
		Name:            "default",
		MainWindowStart: model.NewTimeOfDay(8, 0, 0),
		MainWindowEnd:   model.NewTimeOfDay(16, 0, 0),
		MainRate:        1.00,
		OtherRate:       0.50,
		BonusThreshold:  5 * time.Minute,
		BonusRate:       0.20,
		Currency:        "CZK",
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
