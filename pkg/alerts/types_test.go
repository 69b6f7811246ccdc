package alerts_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/callbill/pkg/alerts"
	"github.com/ogulcanaydogan/callbill/pkg/model"
)

type recordingNotifier struct {
	name string
	err  error

	mu   sync.Mutex
	sent []alerts.Alert
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(_ context.Context, a alerts.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, a)
	return r.err
}

func TestSummaryAlert(t *testing.T) {
	a := alerts.SummaryAlert(model.BillingSummary{
		RunID:         "run-9",
		Tariff:        "default",
		Currency:      "CZK",
		CallCount:     3,
		TotalMonthSum: 12.5,
		TopCaller:     "100",
	})

	assert.Equal(t, alerts.AlertSummary, a.Level)
	assert.Equal(t, "run-9", a.RunID)
	assert.Equal(t, 12.5, a.Total)
	assert.Equal(t, "Billed 3 calls: total 12.50 CZK, top caller 100", a.Message)
}

func TestDispatch(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ok := &recordingNotifier{name: "ok"}
	broken := &recordingNotifier{name: "broken", err: errors.New("down")}

	alerts.Dispatch(context.Background(), []alerts.Notifier{broken, ok}, alerts.Alert{Level: alerts.AlertWarning, RunID: "r"}, logger)

	require.Len(t, ok.sent, 1)
	require.Len(t, broken.sent, 1)
	assert.Contains(t, logs.String(), "send alert failed")
	assert.Contains(t, logs.String(), "notifier=broken")
}
