package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/rojanmagar2001/readsync/internal/ports"
)

const defaultDelay = time.Second

// Pacer enforces a fixed delay between successive page fetches of the
// same source. The first Take for a source never blocks; each following
// Take waits out the remainder of the configured delay.
type Pacer struct {
	delay time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

func New(delay time.Duration) ports.Limiter {
	if delay <= 0 {
		delay = defaultDelay
	}
	return &Pacer{
		delay: delay,
		last:  make(map[string]time.Time),
	}
}

func (p *Pacer) Take(ctx context.Context, source string) error {
	now := time.Now()

	p.mu.Lock()
	release := now
	if prev, seen := p.last[source]; seen && prev.Add(p.delay).After(now) {
		release = prev.Add(p.delay)
	}
	p.last[source] = release
	p.mu.Unlock()

	wait := release.Sub(now)
	if wait <= 0 {
		return nil
	}

	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
