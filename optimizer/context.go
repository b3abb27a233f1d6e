package optimizer

import (
	"context"
	"fmt"
	"sync/atomic"
)

type statsKey struct{}

// Stats tracks optimization progress for a run.
type Stats struct {
	Candidates atomic.Int64
	Skipped    atomic.Int64
	Compressed atomic.Int64
	Failed     atomic.Int64
	BytesIn    atomic.Int64
	BytesOut   atomic.Int64
}

func (s *Stats) String() string {
	return fmt.Sprintf("candidates=%d compressed=%d skipped=%d failed=%d bytes_in=%d bytes_out=%d",
		s.Candidates.Load(), s.Compressed.Load(), s.Skipped.Load(), s.Failed.Load(), s.BytesIn.Load(), s.BytesOut.Load())
}

// WithStats attaches a shared stats tracker to the context.
func WithStats(ctx context.Context, stats *Stats) context.Context {
	if ctx == nil || stats == nil {
		return ctx
	}
	return context.WithValue(ctx, statsKey{}, stats)
}

func statsFrom(ctx context.Context) *Stats {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(statsKey{}).(*Stats); ok {
		return v
	}
	return nil
}
