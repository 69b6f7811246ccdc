package billing

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/segment"
)

// SegmentAll segments every call on a pool of workers. The result is
// index-aligned with calls. On failure it returns the error of the
// lowest-indexed bad call.
func SegmentAll(ctx context.Context, calls []model.CallRecord, t model.TariffConfig, workers int) ([]model.SegmentedDuration, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(calls) {
		workers = len(calls)
	}

	out := make([]model.SegmentedDuration, len(calls))
	if len(calls) == 0 {
		return out, ctx.Err()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstIdx = -1
		firstErr error
	)
	fail := func(i int, err error) {
		mu.Lock()
		if firstIdx < 0 || i < firstIdx {
			firstIdx, firstErr = i, err
		}
		mu.Unlock()
		cancel()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				seg, err := segment.Segment(calls[i], t)
				if err != nil {
					var ierr *segment.IntervalError
					if errors.As(err, &ierr) {
						ierr.Index = i
					}
					fail(i, err)
					continue
				}
				out[i] = seg
			}
		}()
	}

	// Jobs are fed in index order, so once a failure stops feeding every
	// lower index has already been handed out.
feed:
	for i := range calls {
		select {
		case <-runCtx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
