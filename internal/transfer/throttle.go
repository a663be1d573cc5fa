package transfer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBatchWidth = 3
	DefaultBatchPause = time.Second
)

// Throttle paces batches. Width is the number of assets transferred
// concurrently; Wait blocks before batch n starts.
type Throttle interface {
	Width() int
	Wait(ctx context.Context, batch int) error
}

// BatchThrottle runs fixed-width batches with a fixed pause between them.
type BatchThrottle struct {
	Size  int
	Pause time.Duration
}

func NewBatchThrottle() *BatchThrottle {
	return &BatchThrottle{Size: DefaultBatchWidth, Pause: DefaultBatchPause}
}

func (t *BatchThrottle) Width() int {
	return max(t.Size, 1)
}

func (t *BatchThrottle) Wait(ctx context.Context, batch int) error {
	if batch == 0 || t.Pause <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.Pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RateThrottle admits batches at a steady rate instead of pausing a fixed
// interval after each one.
type RateThrottle struct {
	size    int
	limiter *rate.Limiter
}

func NewRateThrottle(batchesPerSecond float64, size int) *RateThrottle {
	return &RateThrottle{size: size, limiter: rate.NewLimiter(rate.Limit(batchesPerSecond), 1)}
}

func (t *RateThrottle) Width() int {
	return max(t.size, 1)
}

func (t *RateThrottle) Wait(ctx context.Context, _ int) error {
	return t.limiter.Wait(ctx)
}
