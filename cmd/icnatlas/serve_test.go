package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/pipeline"
)

func TestNextRunTime(t *testing.T) {
	loc := time.FixedZone("AEST", 10*60*60)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2026, 3, 1, 1, 0, 0, 0, loc), time.Date(2026, 3, 1, 2, 30, 0, 0, loc)},
		{"exactly now rolls over", time.Date(2026, 3, 1, 2, 30, 0, 0, loc), time.Date(2026, 3, 2, 2, 30, 0, 0, loc)},
		{"past today", time.Date(2026, 12, 31, 23, 0, 0, 0, loc), time.Date(2027, 1, 1, 2, 30, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextRunTime(tt.now, 2, 30))
		})
	}
}

type flakyReloader struct {
	failures int
	calls    int
}

func (f *flakyReloader) Reload(ctx context.Context) (*pipeline.Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("source unavailable")
	}
	return &pipeline.Result{}, nil
}

func TestReloadWithRetry(t *testing.T) {
	r := &flakyReloader{failures: 2}
	require.NoError(t, reloadWithRetry(context.Background(), r, time.Millisecond))
	assert.Equal(t, 3, r.calls)

	r = &flakyReloader{failures: maxReloadRetry}
	err := reloadWithRetry(context.Background(), r, time.Millisecond)
	assert.EqualError(t, err, "source unavailable")
	assert.Equal(t, maxReloadRetry, r.calls)
}

func TestReloadWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &flakyReloader{failures: 10}
	err := reloadWithRetry(ctx, r, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, r.calls)
}
