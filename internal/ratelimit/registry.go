package ratelimit

import (
	"strings"
	"sync"
)

// Default sustained rates per exchange, requests per second.
const (
	_rateBinance = 20
	_rateOKX     = 300
	_rateDefault = 10
)

// Registry hands out one limiter per exchange name. Callers never
// share tokens across exchanges. Construct it once at startup and
// inject it; there is no package-level instance.
type Registry struct {
	mu        sync.Mutex
	limiters  map[string]*Limiter
	overrides map[string]float64
}

// NewRegistry creates a registry. overrides maps exchange name to a
// sustained rate replacing the built-in default; nil is fine.
func NewRegistry(overrides map[string]float64) *Registry {
	normalized := make(map[string]float64, len(overrides))
	for name, rate := range overrides {
		if rate > 0 {
			normalized[strings.ToLower(name)] = rate
		}
	}
	return &Registry{
		limiters:  make(map[string]*Limiter),
		overrides: normalized,
	}
}

// For returns the limiter for an exchange, creating it on first use.
func (r *Registry) For(exchange string) *Limiter {
	name := strings.ToLower(exchange)

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[name]; ok {
		return l
	}
	l := NewLimiter(r.rateFor(name), 0)
	r.limiters[name] = l
	return l
}

func (r *Registry) rateFor(name string) float64 {
	if rate, ok := r.overrides[name]; ok {
		return rate
	}
	switch name {
	case "binance":
		return _rateBinance
	case "okx":
		return _rateOKX
	default:
		return _rateDefault
	}
}

// Stats returns per-exchange limiter stats for the exchanges seen so far.
func (r *Registry) Stats() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Stats, len(r.limiters))
	for name, l := range r.limiters {
		out[name] = l.Stats()
	}
	return out
}
