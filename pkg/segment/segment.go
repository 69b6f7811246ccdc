// Package segment splits a call into main-window, other and bonus time.
//
// The main window is a daily time-of-day interval anchored to the calendar
// date of the call's start. An instant exactly on a window boundary counts as
// outside the window; since only overlap lengths are billed, boundary
// instants never change the result.
//
// When the tariff has a bonus threshold and the call is longer than it, only
// the first threshold's worth of the call, taken chronologically from the
// start, is split into main and other time. Everything after that is bonus
// time regardless of the window.
package segment

import (
	"time"

	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

// Placement describes where an interval lies relative to the main window.
type Placement int

const (
	Outside Placement = iota // no overlap with the window
	Inside                   // fully inside the window
	Leaves                   // starts inside, ends at or after window end
	Enters                   // starts at or before window start, ends inside
	Spans                    // starts at or before window start, ends at or after window end
)

func (p Placement) String() string {
	switch p {
	case Inside:
		return "inside"
	case Leaves:
		return "leaves"
	case Enters:
		return "enters"
	case Spans:
		return "spans"
	default:
		return "outside"
	}
}

// Segment partitions one call according to the tariff.
// The result always satisfies Main+Other+Bonus == call.End-call.Start.
func Segment(call model.CallRecord, t model.TariffConfig) (model.SegmentedDuration, error) {
	if call.End.Before(call.Start) {
		return model.SegmentedDuration{}, &IntervalError{Index: -1, Caller: call.Caller, Start: call.Start, End: call.End}
	}
	if err := tariff.ValidateWindow(t); err != nil {
		return model.SegmentedDuration{}, err
	}

	ws, we := Window(call.Start, t)
	total := call.Duration()

	billedEnd := call.End
	var bonus time.Duration
	if t.BonusEnabled() && total > t.BonusThreshold {
		billedEnd = call.Start.Add(t.BonusThreshold)
		bonus = total - t.BonusThreshold
	}

	main, other := split(call.Start, billedEnd, ws, we)
	return model.SegmentedDuration{Main: main, Other: other, Bonus: bonus}, nil
}

// Window returns the main window anchored to the date of start.
func Window(start time.Time, t model.TariffConfig) (time.Time, time.Time) {
	return t.MainWindowStart.On(start), t.MainWindowEnd.On(start)
}

// InMainWindow reports whether ts lies strictly inside (ws, we).
func InMainWindow(ts, ws, we time.Time) bool {
	return ws.Before(ts) && ts.Before(we)
}

// Classify reports the placement of [from, to] relative to the window (ws, we).
func Classify(from, to, ws, we time.Time) Placement {
	startIn := InMainWindow(from, ws, we)
	endIn := InMainWindow(to, ws, we)

	switch {
	case startIn && endIn:
		return Inside
	case startIn:
		return Leaves
	case endIn:
		return Enters
	case !from.After(ws) && !to.Before(we):
		return Spans
	default:
		return Outside
	}
}

func split(from, to, ws, we time.Time) (main, other time.Duration) {
	total := to.Sub(from)

	switch Classify(from, to, ws, we) {
	case Inside:
		main = total
	case Leaves:
		main = we.Sub(from)
	case Enters:
		main = to.Sub(ws)
	case Spans:
		main = we.Sub(ws)
	}
	return main, total - main
}
