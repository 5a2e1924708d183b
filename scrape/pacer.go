package scrape

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces page requests at least minDelay apart, plus a random extra
// delay of up to maxDelay-minDelay.
type pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

func newPacer(minDelay, maxDelay time.Duration) *pacer {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	limiter := rate.NewLimiter(limit, 1)
	// The first page goes out immediately; spend its token now.
	limiter.Allow()
	return &pacer{
		limiter: limiter,
		jitter:  maxDelay - minDelay,
	}
}

// Wait blocks until the next request may be sent.
func (p *pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if p.jitter <= 0 {
		return nil
	}

	timer := time.NewTimer(rand.N(p.jitter))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
