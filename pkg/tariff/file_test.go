package tariff_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "business.yaml")
	data := []byte(`
name: business
currency: EUR
main_window_start: "07:30"
main_window_end: "18:00"
main_rate: 0.80
other_rate: 0.40
bonus_threshold_minutes: 10
bonus_rate: 0.10
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := tariff.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "business", cfg.Name)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, model.NewTimeOfDay(7, 30, 0), cfg.MainWindowStart)
	assert.Equal(t, model.NewTimeOfDay(18, 0, 0), cfg.MainWindowEnd)
	assert.Equal(t, 0.80, cfg.MainRate)
	assert.Equal(t, 0.40, cfg.OtherRate)
	assert.Equal(t, 10*time.Minute, cfg.BonusThreshold)
	assert.Equal(t, 0.10, cfg.BonusRate)
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := tariff.LoadFile("/nonexistent/plan.yaml")
	assert.Error(t, err)
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("invalid: [yaml"), 0o644))

	_, err := tariff.LoadFile(path)
	assert.Error(t, err)
}

func TestLoadBytes_MissingName(t *testing.T) {
	_, err := tariff.LoadBytes([]byte(`
main_window_start: "08:00"
main_window_end: "16:00"
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing plan name")
}

func TestLoadBytes_InvalidWindow(t *testing.T) {
	_, err := tariff.LoadBytes([]byte(`
name: broken
main_window_start: "16:00"
main_window_end: "16:00"
main_rate: 1
`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, tariff.ErrInvalidConfig))
}

func TestLoadBytes_BadTimeOfDay(t *testing.T) {
	_, err := tariff.LoadBytes([]byte(`
name: broken
main_window_start: "8am"
main_window_end: "16:00"
`))
	require.Error(t, err)

	var cfgErr *tariff.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "main_window_start", cfgErr.Field)
}

func TestFromConfig_RoundTrip(t *testing.T) {
	in := tariff.Default()
	out, err := tariff.FromConfig(in).Config()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMinutesToDuration(t *testing.T) {
	tests := []struct {
		minutes float64
		want    time.Duration
	}{
		{5, 5 * time.Minute},
		{1.5, 90 * time.Second},
		{0, 0},
		{0.004, 240 * time.Millisecond},
		{1e8, 1e8 * time.Minute},
	}
	for _, tt := range tests {
		got, err := tariff.MinutesToDuration(tt.minutes)
		require.NoError(t, err, "minutes=%v", tt.minutes)
		assert.Equal(t, tt.want, got, "minutes=%v", tt.minutes)
	}
}

func TestLoadBytes_ThresholdOutOfRange(t *testing.T) {
	_, err := tariff.LoadBytes([]byte(`
name: huge
main_window_start: "08:00"
main_window_end: "16:00"
main_rate: 1
other_rate: 0.5
bonus_threshold_minutes: 1e300
bonus_rate: 0.2
`))
	require.Error(t, err)

	var cfgErr *tariff.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "bonus_threshold_minutes", cfgErr.Field)
}
