package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"main/pkg/exception"
)

// Limiter is a token bucket throttling outbound calls for one
// exchange. Tokens refill lazily on each acquisition; callers queue
// behind a single mutex rather than racing on the counter.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	burst      float64
	rate       float64
	lastRefill time.Time

	now func() time.Time

	requests   atomic.Uint64
	waitEvents atomic.Uint64
	waitNanos  atomic.Int64

	windowStart atomic.Int64
	windowCount atomic.Uint64
}

// NewLimiter creates a limiter with the given sustained rate in
// requests per second. Burst defaults to 2 * rate when zero.
func NewLimiter(rate, burst float64) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 2 * rate
	}
	l := &Limiter{
		tokens: burst,
		burst:  burst,
		rate:   rate,
		now:    time.Now,
	}
	l.lastRefill = l.now()
	l.windowStart.Store(l.lastRefill.UnixNano())
	return l
}

// Acquire blocks until at least n tokens are available, then debits
// them. It never returns early with tokens still owed; the only early
// exits are context cancellation and an impossible request (n > burst).
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if n <= 0 {
		n = 1
	}
	need := float64(n)
	if need > l.burst {
		return exception.ErrOrderInvalidRequest
	}

	l.observe()

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		l.refill()
		if l.tokens >= need {
			l.tokens -= need
			return nil
		}

		deficit := need - l.tokens
		wait := time.Duration(deficit / l.rate * float64(time.Second))
		l.waitEvents.Add(1)

		started := l.now()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		l.waitNanos.Add(int64(l.now().Sub(started)))
	}
}

// refill tops tokens up to min(burst, tokens + elapsed * rate).
// Callers must hold mu.
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastRefill = now
}

func (l *Limiter) observe() {
	l.requests.Add(1)
	nowNano := l.now().UnixNano()
	start := l.windowStart.Load()
	if nowNano-start >= int64(time.Second) && l.windowStart.CompareAndSwap(start, nowNano) {
		l.windowCount.Store(0)
	}
	l.windowCount.Add(1)
}

// Stats is a rolling view of limiter activity.
type Stats struct {
	Requests   uint64
	WaitEvents uint64
	TotalWait  time.Duration
	RecentRate float64
	Tokens     float64
}

// Stats returns current counters without disturbing token accounting.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	l.refill()
	tokens := l.tokens
	l.mu.Unlock()

	elapsed := time.Duration(l.now().UnixNano() - l.windowStart.Load()).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(l.windowCount.Load()) / elapsed
	}
	return Stats{
		Requests:   l.requests.Load(),
		WaitEvents: l.waitEvents.Load(),
		TotalWait:  time.Duration(l.waitNanos.Load()),
		RecentRate: rate,
		Tokens:     tokens,
	}
}
