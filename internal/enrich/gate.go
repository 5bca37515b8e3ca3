package enrich

import (
	"context"
	"sync"
	"time"
)

// gate paces calls so they respect a requests-per-minute ceiling: the
// minimum inter-call interval is 60s / RPM. Wait blocks until the next
// slot or context cancellation.
type gate struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	clk      func() time.Time
}

func newGate(requestsPerMinute int, clk func() time.Time) *gate {
	if clk == nil {
		clk = time.Now
	}
	g := &gate{clk: clk}
	if requestsPerMinute > 0 {
		g.interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return g
}

func (g *gate) Wait(ctx context.Context) error {
	if g.interval <= 0 {
		return nil
	}

	g.mu.Lock()
	now := g.clk()
	wait := g.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	slot := now.Add(wait)
	g.next = slot.Add(g.interval)
	g.mu.Unlock()

	return sleepCtx(ctx, wait)
}

// sleepCtx sleeps in short slices so cancellation is honored promptly.
func sleepCtx(ctx context.Context, d time.Duration) error {
	const step = 200 * time.Millisecond
	for d > 0 {
		s := d
		if s > step {
			s = step
		}
		t := time.NewTimer(s)
		select {
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return ctx.Err()
		case <-t.C:
		}
		d -= s
	}
	return nil
}
