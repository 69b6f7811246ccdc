package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/callbill/pkg/alerts"
	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// LimitChecker compares run totals against a spending limit and dispatches alerts.
type LimitChecker struct {
	limit        float64
	thresholdPct float64
	notifiers    []alerts.Notifier
	logger       *slog.Logger
}

// NewLimitChecker creates a limit checker. A limit of 0 disables checking.
func NewLimitChecker(limit, thresholdPct float64, notifiers []alerts.Notifier, logger *slog.Logger) *LimitChecker {
	return &LimitChecker{
		limit:        limit,
		thresholdPct: thresholdPct,
		notifiers:    notifiers,
		logger:       logger,
	}
}

// Check evaluates a run summary and returns the alert it raised, if any.
func (c *LimitChecker) Check(ctx context.Context, summary model.BillingSummary) *alerts.Alert {
	if c.limit <= 0 {
		return nil
	}

	pct := (summary.TotalMonthSum / c.limit) * 100

	var level alerts.AlertLevel
	switch {
	case pct >= 100:
		level = alerts.AlertExceeded
	case pct >= 95:
		level = alerts.AlertCritical
	case pct >= c.thresholdPct:
		level = alerts.AlertWarning
	default:
		return nil
	}

	alert := alerts.SummaryAlert(summary)
	alert.Level = level
	alert.Limit = c.limit
	alert.ThresholdPct = c.thresholdPct
	alert.Message = fmt.Sprintf("Run total at %.1f%% of limit (%.2f / %.2f %s)",
		pct, summary.TotalMonthSum, c.limit, summary.Currency)

	c.logger.Warn("spending limit threshold crossed",
		"run_id", summary.RunID,
		"level", level,
		"pct", pct,
		"total", summary.TotalMonthSum,
		"limit", c.limit,
	)

	alerts.Dispatch(ctx, c.notifiers, alert, c.logger)
	return &alert
}
