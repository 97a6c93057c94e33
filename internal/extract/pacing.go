// File: internal/extract/pacing.go
package extract

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veiloak/rednote-cli/api/schemas"
)

// randomPacer is the production schemas.Pacer: a uniform delay drawn from
// the caller's [min,max] seconds window, behind a rate limiter floored at
// the window minimum so back-to-back waits can never compress into a
// machine-speed burst.
type randomPacer struct {
	mu      sync.Mutex
	rng     *rand.Rand
	limiter *rate.Limiter
}

var _ schemas.Pacer = (*randomPacer)(nil)

// NewPacer builds the production pacer. minSeconds floors the inter-wait
// spacing; zero disables the floor.
func NewPacer(minSeconds float64) schemas.Pacer {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if minSeconds > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(minSeconds*float64(time.Second))), 1)
	}
	return &randomPacer{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		limiter: limiter,
	}
}

// Wait blocks for a delay drawn uniformly from [minSeconds, maxSeconds].
func (p *randomPacer) Wait(ctx context.Context, minSeconds, maxSeconds float64) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	delay := minSeconds
	if span := maxSeconds - minSeconds; span > 0 {
		p.mu.Lock()
		delay = minSeconds + p.rng.Float64()*span
		p.mu.Unlock()
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(delay * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopPacer skips pacing entirely; tests substitute it for determinism.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context, _, _ float64) error { return nil }
