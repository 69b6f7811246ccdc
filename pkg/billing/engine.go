// Package billing rates call detail records against a tariff.
//
// A run segments every call in parallel, then, once all segments are known,
// finds the top caller, prices each call and aggregates the results.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

// Observer receives the outcome of every run. summary is nil when err is set.
type Observer interface {
	ObserveRun(summary *model.BillingSummary, elapsed time.Duration, err error)
}

// Engine is the main entry point for billing runs.
type Engine struct {
	tariff   model.TariffConfig
	workers  int
	limits   *LimitChecker
	observer Observer
	logger   *slog.Logger
}

// NewEngine creates an engine for a validated tariff. limits and observer may be nil.
func NewEngine(t model.TariffConfig, workers int, limits *LimitChecker, observer Observer, logger *slog.Logger) (*Engine, error) {
	if err := tariff.Validate(t); err != nil {
		return nil, err
	}
	return &Engine{
		tariff:   t,
		workers:  workers,
		limits:   limits,
		observer: observer,
		logger:   logger,
	}, nil
}

// Tariff returns the tariff the engine bills with.
func (e *Engine) Tariff() model.TariffConfig {
	return e.tariff
}

// WithTariff returns a copy of the engine billing with another tariff.
func (e *Engine) WithTariff(t model.TariffConfig) (*Engine, error) {
	return NewEngine(t, e.workers, e.limits, e.observer, e.logger)
}

// Run bills a batch of calls.
func (e *Engine) Run(ctx context.Context, calls []model.CallRecord) (*model.Bill, error) {
	began := time.Now()
	runID := uuid.New().String()
	logger := e.logger.With("run_id", runID)

	logger.Info("billing run started",
		"calls", len(calls),
		"tariff", e.tariff.Name,
		"main_window", e.tariff.MainWindowStart.String()+"-"+e.tariff.MainWindowEnd.String(),
	)

	segments, err := SegmentAll(ctx, calls, e.tariff, e.workers)
	if err != nil {
		e.observe(nil, time.Since(began), err)
		return nil, fmt.Errorf("segment calls: %w", err)
	}

	bill, err := Rate(calls, segments, e.tariff)
	if err != nil {
		e.observe(nil, time.Since(began), err)
		return nil, err
	}
	bill.Summary.RunID = runID
	bill.Summary.GeneratedAt = time.Now().UTC()

	if logger.Enabled(ctx, slog.LevelDebug) {
		for _, rc := range bill.Calls {
			logger.Debug("call rated",
				"index", rc.Index,
				"caller", rc.Call.Caller,
				"main_seconds", rc.Segments.Main.Seconds(),
				"other_seconds", rc.Segments.Other.Seconds(),
				"bonus_seconds", rc.Segments.Bonus.Seconds(),
				"total_cost", rc.Cost.Total,
				"free", rc.Free,
			)
		}
	}

	logger.Info("billing run finished",
		"calls", bill.Summary.CallCount,
		"top_caller", bill.Summary.TopCaller,
		"top_caller_calls", bill.Summary.TopCallerCalls,
		"total", bill.Summary.TotalMonthSum,
		"currency", bill.Summary.Currency,
		"elapsed", time.Since(began),
	)
	e.observe(&bill.Summary, time.Since(began), nil)

	if e.limits != nil {
		e.limits.Check(ctx, bill.Summary)
	}

	return bill, nil
}

func (e *Engine) observe(summary *model.BillingSummary, elapsed time.Duration, err error) {
	if e.observer != nil {
		e.observer.ObserveRun(summary, elapsed, err)
	}
}
