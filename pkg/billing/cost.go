package billing

import (
	"fmt"

	"github.com/ogulcanaydogan/callbill/pkg/model"
)

// Cost prices a segmented call. Minutes are fractional: a 90 second main
// segment at 1.00 per minute costs 1.50.
func Cost(seg model.SegmentedDuration, t model.TariffConfig) model.CostBreakdown {
	c := model.CostBreakdown{
		Main:  seg.Main.Seconds() / 60 * t.MainRate,
		Other: seg.Other.Seconds() / 60 * t.OtherRate,
		Bonus: seg.Bonus.Seconds() / 60 * t.BonusRate,
	}
	c.Total = c.Main + c.Other + c.Bonus
	return c
}

// TopCaller returns the caller with the most calls and that count.
// Ties go to the caller seen first in calls. Empty input yields "".
func TopCaller(calls []model.CallRecord) (string, int) {
	counts := make(map[string]int, len(calls))
	order := make([]string, 0)

	for _, c := range calls {
		if _, seen := counts[c.Caller]; !seen {
			order = append(order, c.Caller)
		}
		counts[c.Caller]++
	}

	var top string
	var best int
	for _, caller := range order {
		if counts[caller] > best {
			top, best = caller, counts[caller]
		}
	}
	return top, best
}

// Rate turns segmented calls into a bill. The top caller's calls cost nothing.
// segments must be index-aligned with calls.
func Rate(calls []model.CallRecord, segments []model.SegmentedDuration, t model.TariffConfig) (*model.Bill, error) {
	if len(calls) != len(segments) {
		return nil, fmt.Errorf("rate calls: %d calls but %d segments", len(calls), len(segments))
	}

	top, topCount := TopCaller(calls)

	rated := make([]model.RatedCall, len(calls))
	mainCosts := make([]float64, len(calls))
	otherCosts := make([]float64, len(calls))
	bonusCosts := make([]float64, len(calls))
	totalCosts := make([]float64, len(calls))

	summary := model.BillingSummary{
		Tariff:         t.Name,
		Currency:       t.Currency,
		CallCount:      len(calls),
		TopCaller:      top,
		TopCallerCalls: topCount,
	}

	for i, c := range calls {
		seg := segments[i]
		free := c.Caller == top

		var cost model.CostBreakdown
		if !free {
			cost = Cost(seg, t)
		}

		rated[i] = model.RatedCall{Index: i, Call: c, Segments: seg, Cost: cost, Free: free}
		mainCosts[i] = cost.Main
		otherCosts[i] = cost.Other
		bonusCosts[i] = cost.Bonus
		totalCosts[i] = cost.Total

		summary.MainSeconds += seg.Main.Seconds()
		summary.OtherSeconds += seg.Other.Seconds()
		summary.BonusSeconds += seg.Bonus.Seconds()
	}

	total, err := SumRounded(totalCosts, 2)
	if err != nil {
		return nil, fmt.Errorf("sum total cost: %w", err)
	}
	summary.TotalMonthSum = total

	summary.Stats = model.CostStats{
		MainCost:  Describe(mainCosts),
		OtherCost: Describe(otherCosts),
		BonusCost: Describe(bonusCosts),
		TotalCost: Describe(totalCosts),
	}

	return &model.Bill{Summary: summary, Calls: rated}, nil
}
