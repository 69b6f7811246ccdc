package tariff

import (
	"fmt"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// Override carries optional replacements for individual tariff fields.
// Nil fields leave the base value untouched.
type Override struct {
	MainWindowStart       *string
	MainWindowEnd         *string
	MainRate              *float64
	OtherRate             *float64
	BonusThresholdMinutes *float64
	BonusRate             *float64
}

// Apply returns base with the override applied, validated.
func (o Override) Apply(base model.TariffConfig) (model.TariffConfig, error) {
	t := base

	if o.MainWindowStart != nil {
		v, err := model.ParseTimeOfDay(*o.MainWindowStart)
		if err != nil {
			return model.TariffConfig{}, &ConfigError{Field: "main_window_start", Value: *o.MainWindowStart, Reason: err.Error()}
		}
		t.MainWindowStart = v
	}
	if o.MainWindowEnd != nil {
		v, err := model.ParseTimeOfDay(*o.MainWindowEnd)
		if err != nil {
			return model.TariffConfig{}, &ConfigError{Field: "main_window_end", Value: *o.MainWindowEnd, Reason: err.Error()}
		}
		t.MainWindowEnd = v
	}
	if o.MainRate != nil {
		t.MainRate = *o.MainRate
	}
	if o.OtherRate != nil {
		t.OtherRate = *o.OtherRate
	}
	if o.BonusThresholdMinutes != nil {
		d, err := MinutesToDuration(*o.BonusThresholdMinutes)
		if err != nil {
			return model.TariffConfig{}, err
		}
		t.BonusThreshold = d
	}
	if o.BonusRate != nil {
		t.BonusRate = *o.BonusRate
	}

	if err := Validate(t); err != nil {
		return model.TariffConfig{}, err
	}
	return t, nil
}

// Empty reports whether no field is overridden.
func (o Override) Empty() bool {
	return o == Override{}
}

// Resolve picks the named plan from reg, or base when plan is empty, and
// applies o on top.
func Resolve(reg *Registry, base model.TariffConfig, plan string, o Override) (model.TariffConfig, error) {
	t := base
	if plan != "" {
		if reg == nil {
			return model.TariffConfig{}, fmt.Errorf("%w: %q", ErrPlanNotFound, plan)
		}
		p, err := reg.Get(plan)
		if err != nil {
			return model.TariffConfig{}, err
		}
		t = p
	}
	if o.Empty() {
		return t, nil
	}
	return o.Apply(t)
}
