package model

import "time"

// CallRecord is a single call detail record as read from the input file.
type CallRecord struct {
	Caller string    `json:"caller"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// Duration returns the elapsed time of the call.
func (c CallRecord) Duration() time.Duration {
	return c.End.Sub(c.Start)
}

// TariffConfig holds the prices applied to one billing run.
type TariffConfig struct {
	Name            string
	MainWindowStart TimeOfDay
	MainWindowEnd   TimeOfDay
	MainRate        float64 // per minute
	OtherRate       float64 // per minute
	BonusThreshold  time.Duration
	BonusRate       float64 // per minute
	Currency        string
}

// BonusEnabled reports whether calls longer than the threshold are billed at the bonus rate.
func (t TariffConfig) BonusEnabled() bool {
	return t.BonusThreshold > 0
}

// SegmentedDuration partitions one call into main, other and bonus time.
// Main + Other + Bonus always equals the call duration.
type SegmentedDuration struct {
	Main  time.Duration
	Other time.Duration
	Bonus time.Duration
}

// Total returns the sum of all segments.
func (s SegmentedDuration) Total() time.Duration {
	return s.Main + s.Other + s.Bonus
}

// CostBreakdown is the monetary value of a SegmentedDuration.
type CostBreakdown struct {
	Main  float64 `json:"main_cost"`
	Other float64 `json:"other_cost"`
	Bonus float64 `json:"bonus_cost"`
	Total float64 `json:"total_cost"`
}

// RatedCall joins a call with its segmentation and cost.
type RatedCall struct {
	Index    int
	Call     CallRecord
	Segments SegmentedDuration
	Cost     CostBreakdown
	Free     bool // caller is the top caller
}

// ColumnStats holds descriptive statistics over one cost column.
type ColumnStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"p25"`
	P50   float64 `json:"p50"`
	P75   float64 `json:"p75"`
	Max   float64 `json:"max"`
}

// CostStats groups the per-column statistics of a billing run.
type CostStats struct {
	MainCost  ColumnStats `json:"main_cost"`
	OtherCost ColumnStats `json:"other_cost"`
	BonusCost ColumnStats `json:"bonus_cost"`
	TotalCost ColumnStats `json:"total_cost"`
}

// BillingSummary aggregates all rated calls of one run.
type BillingSummary struct {
	RunID          string    `json:"run_id"`
	Tariff         string    `json:"tariff,omitempty"`
	Currency       string    `json:"currency"`
	CallCount      int       `json:"call_count"`
	TotalMonthSum  float64   `json:"total_month_sum"`
	TopCaller      string    `json:"top_caller"`
	TopCallerCalls int       `json:"top_caller_calls"`
	MainSeconds    float64   `json:"main_seconds"`
	OtherSeconds   float64   `json:"other_seconds"`
	BonusSeconds   float64   `json:"bonus_seconds"`
	Stats          CostStats `json:"stats"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Bill is the complete output of a billing run.
type Bill struct {
	Summary BillingSummary
	Calls   []RatedCall
}
