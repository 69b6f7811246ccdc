package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// AlertLevel indicates what an alert reports.
type AlertLevel string

const (
	AlertSummary  AlertLevel = "summary"  // Billing run finished
	AlertWarning  AlertLevel = "warning"  // Run total approaching the spending limit
	AlertCritical AlertLevel = "critical" // Run total at or near the spending limit
	AlertExceeded AlertLevel = "exceeded" // Run total above the spending limit
)

// Alert is a notification about a billing run.
type Alert struct {
	Level        AlertLevel `json:"level"`
	RunID        string     `json:"run_id"`
	Tariff       string     `json:"tariff,omitempty"`
	Currency     string     `json:"currency"`
	CallCount    int        `json:"call_count"`
	Total        float64    `json:"total"`
	Limit        float64    `json:"limit,omitempty"`
	ThresholdPct float64    `json:"threshold_pct,omitempty"`
	TopCaller    string     `json:"top_caller"`
	Message      string     `json:"message"`
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}

// SummaryAlert describes a finished billing run.
func SummaryAlert(s model.BillingSummary) Alert {
	return Alert{
		Level:     AlertSummary,
		RunID:     s.RunID,
		Tariff:    s.Tariff,
		Currency:  s.Currency,
		CallCount: s.CallCount,
		Total:     s.TotalMonthSum,
		TopCaller: s.TopCaller,
		Message: fmt.Sprintf("Billed %d calls: total %.2f %s, top caller %s",
			s.CallCount, s.TotalMonthSum, s.Currency, s.TopCaller),
	}
}

// Dispatch sends alert to every notifier. Failures are logged, not returned.
func Dispatch(ctx context.Context, notifiers []Notifier, alert Alert, logger *slog.Logger) {
	for _, n := range notifiers {
		if err := n.Send(ctx, alert); err != nil {
			logger.Error("send alert failed",
				"notifier", n.Name(),
				"run_id", alert.RunID,
				"level", alert.Level,
				"error", err,
			)
		}
	}
}
