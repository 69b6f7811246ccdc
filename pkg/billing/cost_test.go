package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/callbill/pkg/billing"
	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/segment"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, second, 0, time.UTC)
}

func rec(caller string, start, end time.Time) model.CallRecord {
	return model.CallRecord{Caller: caller, Start: start, End: end}
}

func segmentAll(t *testing.T, calls []model.CallRecord, cfg model.TariffConfig) []model.SegmentedDuration {
	t.Helper()
	out := make([]model.SegmentedDuration, len(calls))
	for i, c := range calls {
		seg, err := segment.Segment(c, cfg)
		require.NoError(t, err)
		out[i] = seg
	}
	return out
}

func TestCost(t *testing.T) {
	cfg := tariff.Default()

	tests := []struct {
		name string
		seg  model.SegmentedDuration
		want model.CostBreakdown
	}{
		{"main only", model.SegmentedDuration{Main: 3 * time.Minute}, model.CostBreakdown{Main: 3, Total: 3}},
		{"other only", model.SegmentedDuration{Other: 10 * time.Minute}, model.CostBreakdown{Other: 5, Total: 5}},
		{"fractional minute", model.SegmentedDuration{Main: 90 * time.Second}, model.CostBreakdown{Main: 1.5, Total: 1.5}},
		{"all three", model.SegmentedDuration{Main: time.Minute, Other: 2 * time.Minute, Bonus: 5 * time.Minute},
			model.CostBreakdown{Main: 1, Other: 1, Bonus: 1, Total: 3}},
		{"zero", model.SegmentedDuration{}, model.CostBreakdown{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.Cost(tt.seg, cfg)
			assert.InDelta(t, tt.want.Main, got.Main, 1e-9)
			assert.InDelta(t, tt.want.Other, got.Other, 1e-9)
			assert.InDelta(t, tt.want.Bonus, got.Bonus, 1e-9)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9)
		})
	}
}

func TestTopCaller(t *testing.T) {
	calls := []model.CallRecord{
		{Caller: "a"}, {Caller: "b"}, {Caller: "b"}, {Caller: "c"}, {Caller: "a"},
	}
	// a and b tie at two calls; a was seen first.
	top, n := billing.TopCaller(calls)
	assert.Equal(t, "a", top)
	assert.Equal(t, 2, n)

	calls = append(calls, model.CallRecord{Caller: "b"})
	top, n = billing.TopCaller(calls)
	assert.Equal(t, "b", top)
	assert.Equal(t, 3, n)
}

func TestTopCaller_KeepsTextualIdentity(t *testing.T) {
	calls := []model.CallRecord{{Caller: "042"}, {Caller: "42"}, {Caller: "042"}}
	top, n := billing.TopCaller(calls)
	assert.Equal(t, "042", top)
	assert.Equal(t, 2, n)
}

func TestTopCaller_Empty(t *testing.T) {
	top, n := billing.TopCaller(nil)
	assert.Equal(t, "", top)
	assert.Equal(t, 0, n)
}

// Window 08:00-16:00, main 1.00, other 0.50, bonus 0.20 after 5 minutes.
func TestRate_Scenario(t *testing.T) {
	cfg := tariff.Default()
	calls := []model.CallRecord{
		rec("100", at(9, 0, 0), at(9, 3, 0)),  // A
		rec("100", at(7, 55, 0), at(8, 5, 0)), // B
		rec("200", at(9, 0, 0), at(9, 3, 0)),  // same shape as A, paying caller
		rec("300", at(7, 55, 0), at(8, 5, 0)), // same shape as B, paying caller
	}
	segments := segmentAll(t, calls, cfg)

	assert.Equal(t, model.SegmentedDuration{Main: 180 * time.Second}, segments[0])
	// First 300s (07:55-08:00) is other time, the rest is bonus.
	assert.Equal(t, model.SegmentedDuration{Other: 300 * time.Second, Bonus: 300 * time.Second}, segments[1])

	bill, err := billing.Rate(calls, segments, cfg)
	require.NoError(t, err)
	require.Len(t, bill.Calls, 4)

	assert.Equal(t, "100", bill.Summary.TopCaller)
	assert.Equal(t, 2, bill.Summary.TopCallerCalls)

	for _, i := range []int{0, 1} {
		assert.True(t, bill.Calls[i].Free)
		assert.Equal(t, model.CostBreakdown{}, bill.Calls[i].Cost)
	}

	a := bill.Calls[2].Cost
	assert.InDelta(t, 3.00, a.Main, 1e-9)
	assert.InDelta(t, 0, a.Other, 1e-9)
	assert.InDelta(t, 3.00, a.Total, 1e-9)

	b := bill.Calls[3].Cost
	assert.InDelta(t, 0, b.Main, 1e-9)
	assert.InDelta(t, 2.50, b.Other, 1e-9)
	assert.InDelta(t, 1.00, b.Bonus, 1e-9)
	assert.InDelta(t, 3.50, b.Total, 1e-9)

	assert.Equal(t, 6.50, bill.Summary.TotalMonthSum)
	assert.Equal(t, 4, bill.Summary.CallCount)
	assert.InDelta(t, 360, bill.Summary.MainSeconds, 1e-9)
	assert.InDelta(t, 600, bill.Summary.OtherSeconds, 1e-9)
	assert.InDelta(t, 600, bill.Summary.BonusSeconds, 1e-9)

	st := bill.Summary.Stats.TotalCost
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 1.625, st.Mean, 1e-9)
	assert.InDelta(t, 1.8874586088176875, st.Std, 1e-9)
	assert.InDelta(t, 0, st.Min, 1e-9)
	assert.InDelta(t, 0, st.P25, 1e-9)
	assert.InDelta(t, 1.5, st.P50, 1e-9)
	assert.InDelta(t, 3.125, st.P75, 1e-9)
	assert.InDelta(t, 3.5, st.Max, 1e-9)
}

func TestRate_TopCallerAlwaysFree(t *testing.T) {
	cfg := tariff.Default()
	calls := []model.CallRecord{
		rec("vip", at(6, 0, 0), at(18, 0, 0)),
		rec("vip", at(10, 0, 0), at(11, 0, 0)),
		rec("x", at(10, 0, 0), at(10, 1, 0)),
	}

	bill, err := billing.Rate(calls, segmentAll(t, calls, cfg), cfg)
	require.NoError(t, err)

	for _, rc := range bill.Calls {
		if rc.Call.Caller == "vip" {
			assert.Zero(t, rc.Cost.Total)
			assert.NotZero(t, rc.Segments.Total())
		}
	}
	assert.Equal(t, 1.00, bill.Summary.TotalMonthSum)
}

func TestRate_Deterministic(t *testing.T) {
	cfg := tariff.Default()
	var calls []model.CallRecord
	for i := 0; i < 50; i++ {
		start := at(7, 0, 0).Add(time.Duration(i*13) * time.Minute)
		calls = append(calls, rec(string(rune('a'+i%7)), start, start.Add(time.Duration(i*37)*time.Second)))
	}
	segments := segmentAll(t, calls, cfg)

	first, err := billing.Rate(calls, segments, cfg)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := billing.Rate(calls, segments, cfg)
		require.NoError(t, err)
		assert.Equal(t, first.Summary.TotalMonthSum, again.Summary.TotalMonthSum)
		assert.Equal(t, first.Summary.TopCaller, again.Summary.TopCaller)
	}

	var sum float64
	for _, rc := range first.Calls {
		sum += rc.Cost.Total
	}
	assert.InDelta(t, sum, first.Summary.TotalMonthSum, 0.005)
}

func TestRate_Empty(t *testing.T) {
	bill, err := billing.Rate(nil, nil, tariff.Default())
	require.NoError(t, err)
	assert.Empty(t, bill.Calls)
	assert.Equal(t, 0.0, bill.Summary.TotalMonthSum)
	assert.Equal(t, "", bill.Summary.TopCaller)
}

func TestRate_MismatchedSegments(t *testing.T) {
	_, err := billing.Rate([]model.CallRecord{{Caller: "a"}}, nil, tariff.Default())
	assert.Error(t, err)
}
