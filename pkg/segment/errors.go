package segment

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInterval is matched by every *IntervalError.
var ErrInvalidInterval = errors.New("invalid interval: end before start")

// IntervalError identifies a call whose end precedes its start.
type IntervalError struct {
	Index  int // 0-based position in the batch, -1 when unknown
	Caller string
	Start  time.Time
	End    time.Time
}

func (e *IntervalError) Error() string {
	const layout = "2006-01-02 15:04:05"
	if e.Index >= 0 {
		return fmt.Sprintf("%s: call %d (caller %q): start %s, end %s",
			ErrInvalidInterval, e.Index+1, e.Caller, e.Start.Format(layout), e.End.Format(layout))
	}
	return fmt.Sprintf("%s: caller %q: start %s, end %s",
		ErrInvalidInterval, e.Caller, e.Start.Format(layout), e.End.Format(layout))
}

func (e *IntervalError) Is(target error) bool {
	return target == ErrInvalidInterval
}
