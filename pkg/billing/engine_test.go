package billing_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/callbill/pkg/alerts"
	"github.com/ogulcanaydogan/callbill/pkg/billing"
	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/segment"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeObserver struct {
	mu        sync.Mutex
	summaries []*model.BillingSummary
	errs      []error
}

func (f *fakeObserver) ObserveRun(summary *model.BillingSummary, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	f.errs = append(f.errs, err)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []alerts.Alert
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Send(_ context.Context, a alerts.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, a)
	return nil
}

func TestNewEngine_InvalidTariff(t *testing.T) {
	cfg := tariff.Default()
	cfg.MainRate = -1

	_, err := billing.NewEngine(cfg, 1, nil, nil, testLogger())
	assert.ErrorIs(t, err, tariff.ErrInvalidConfig)
}

func TestEngine_Run(t *testing.T) {
	obs := &fakeObserver{}
	engine, err := billing.NewEngine(tariff.Default(), 2, nil, obs, testLogger())
	require.NoError(t, err)

	calls := []model.CallRecord{
		rec("100", at(9, 0, 0), at(9, 3, 0)),
		rec("100", at(7, 55, 0), at(8, 5, 0)),
		rec("200", at(20, 0, 0), at(20, 4, 0)),
	}

	bill, err := engine.Run(context.Background(), calls)
	require.NoError(t, err)

	assert.NotEmpty(t, bill.Summary.RunID)
	assert.False(t, bill.Summary.GeneratedAt.IsZero())
	assert.Equal(t, "default", bill.Summary.Tariff)
	assert.Equal(t, "CZK", bill.Summary.Currency)
	assert.Equal(t, "100", bill.Summary.TopCaller)
	assert.Equal(t, 2.00, bill.Summary.TotalMonthSum)

	for i, rc := range bill.Calls {
		assert.Equal(t, i, rc.Index)
		assert.Equal(t, calls[i], rc.Call)
		assert.Equal(t, calls[i].Duration(), rc.Segments.Total())
	}

	require.Len(t, obs.summaries, 1)
	assert.NoError(t, obs.errs[0])
	assert.Equal(t, bill.Summary.RunID, obs.summaries[0].RunID)
}

func TestEngine_Run_UniqueRunIDs(t *testing.T) {
	engine, err := billing.NewEngine(tariff.Default(), 1, nil, nil, testLogger())
	require.NoError(t, err)

	a, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	b, err := engine.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Summary.RunID, b.Summary.RunID)
}

func TestEngine_Run_InvalidInterval(t *testing.T) {
	obs := &fakeObserver{}
	engine, err := billing.NewEngine(tariff.Default(), 4, nil, obs, testLogger())
	require.NoError(t, err)

	calls := []model.CallRecord{
		rec("1", at(9, 0, 0), at(9, 1, 0)),
		rec("2", at(9, 5, 0), at(9, 1, 0)),
	}

	_, err = engine.Run(context.Background(), calls)
	require.Error(t, err)
	assert.True(t, errors.Is(err, segment.ErrInvalidInterval))

	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])
	assert.Nil(t, obs.summaries[0])
}

func TestEngine_WithTariff(t *testing.T) {
	engine, err := billing.NewEngine(tariff.Default(), 1, nil, nil, testLogger())
	require.NoError(t, err)

	cheap := tariff.Default()
	cheap.Name = "cheap"
	cheap.MainRate = 0.1

	other, err := engine.WithTariff(cheap)
	require.NoError(t, err)
	assert.Equal(t, "cheap", other.Tariff().Name)
	assert.Equal(t, "default", engine.Tariff().Name)

	cheap.OtherRate = -1
	_, err = engine.WithTariff(cheap)
	assert.Error(t, err)
}

func TestEngine_Run_SpendingLimit(t *testing.T) {
	n := &recordingNotifier{}
	limits := billing.NewLimitChecker(10, 80, []alerts.Notifier{n}, testLogger())
	engine, err := billing.NewEngine(tariff.Default(), 1, limits, nil, testLogger())
	require.NoError(t, err)

	calls := []model.CallRecord{
		rec("a", at(9, 0, 0), at(9, 1, 0)),
		rec("b", at(10, 0, 0), at(10, 5, 0)),
		rec("c", at(11, 0, 0), at(11, 5, 0)),
	}
	// a is the top caller by first-seen tie-break; b and c cost 5.00 each.
	bill, err := engine.Run(context.Background(), calls)
	require.NoError(t, err)
	assert.Equal(t, 10.00, bill.Summary.TotalMonthSum)

	require.Len(t, n.sent, 1)
	assert.Equal(t, alerts.AlertExceeded, n.sent[0].Level)
	assert.Equal(t, bill.Summary.RunID, n.sent[0].RunID)
}
