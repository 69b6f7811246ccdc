package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/callbill/pkg/billing"
	"github.com/ogulcanaydogan/callbill/pkg/model"
	"github.com/ogulcanaydogan/callbill/pkg/segment"
	"github.com/ogulcanaydogan/callbill/pkg/tariff"
)

func manyCalls(n int) []model.CallRecord {
	calls := make([]model.CallRecord, n)
	for i := range calls {
		start := at(0, 0, 0).Add(time.Duration(i*7) * time.Minute)
		calls[i] = rec("c", start, start.Add(time.Duration(i%90)*time.Minute))
	}
	return calls
}

func TestSegmentAll_MatchesSequential(t *testing.T) {
	cfg := tariff.Default()
	calls := manyCalls(500)
	want := segmentAll(t, calls, cfg)

	for _, workers := range []int{0, 1, 3, 16, 1000} {
		got, err := billing.SegmentAll(context.Background(), calls, cfg, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestSegmentAll_Empty(t *testing.T) {
	got, err := billing.SegmentAll(context.Background(), nil, tariff.Default(), 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSegmentAll_ReportsLowestBadIndex(t *testing.T) {
	calls := manyCalls(200)
	for _, i := range []int{150, 40, 41} {
		calls[i].End = calls[i].Start.Add(-time.Second)
	}

	for _, workers := range []int{1, 8} {
		_, err := billing.SegmentAll(context.Background(), calls, tariff.Default(), workers)
		require.Error(t, err)
		assert.True(t, errors.Is(err, segment.ErrInvalidInterval))

		var ierr *segment.IntervalError
		require.True(t, errors.As(err, &ierr))
		assert.Equal(t, 40, ierr.Index)
		assert.Contains(t, err.Error(), "call 41")
	}
}

func TestSegmentAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := billing.SegmentAll(ctx, manyCalls(100), tariff.Default(), 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkSegmentAll(b *testing.B) {
	calls := manyCalls(10_000)
	cfg := tariff.Default()
	for b.Loop() {
		_, _ = billing.SegmentAll(context.Background(), calls, cfg, 0)
	}
}
