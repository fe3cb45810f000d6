package gateway

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/obs"
	"main/internal/ratelimit"
	"main/pkg/exception"
)

const (
	_defaultTimeout    = 30 * time.Second
	_defaultMaxRetries = 3
)

// CallFunc is one outbound exchange call. Implementations must honor
// ctx cancellation: when the timeout stage cancels, the underlying
// request is abandoned, never left to complete in the background.
type CallFunc func(ctx context.Context) error

// Config controls the resilience stages of a Caller.
type Config struct {
	Exchange         string
	Timeout          time.Duration
	MaxRetries       int
	Backoff          Backoff
	RateLimitBackoff Backoff
}

func (cfg Config) withDefaults() Config {
	if cfg.Timeout <= 0 {
		cfg.Timeout = _defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = _defaultMaxRetries
	}
	if cfg.Backoff == (Backoff{}) {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.RateLimitBackoff == (Backoff{}) {
		cfg.RateLimitBackoff = RateLimitBackoff()
	}
	return cfg
}

// Caller wraps every outbound exchange call with a fixed stage order,
// innermost to outermost: classify, log, timeout, retry. Each attempt
// acquires a rate-limiter token before the network request goes out.
type Caller struct {
	cfg     Config
	limiter *ratelimit.Limiter
	metrics *obs.Metrics
}

// NewCaller builds a caller for one exchange. The limiter comes from
// the per-exchange registry; metrics may be nil.
func NewCaller(cfg Config, limiter *ratelimit.Limiter, metrics *obs.Metrics) *Caller {
	return &Caller{
		cfg:     cfg.withDefaults(),
		limiter: limiter,
		metrics: metrics,
	}
}

// Do runs fn through the full stage stack. Transient faults are
// retried up to the configured bound, then the terminal fault is
// returned for the caller to log and skip this tick. Order faults
// propagate on first occurrence.
func (c *Caller) Do(ctx context.Context, op string, fn CallFunc) error {
	return c.retryStage(ctx, op, fn)
}

// retryStage re-invokes the call for retryable classifications only.
func (c *Caller) retryStage(ctx context.Context, op string, fn CallFunc) error {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.IncGatewayRetry()
			kind := exception.KindOf(lastErr)
			backoff := c.cfg.Backoff
			if kind == exception.KindRateLimit {
				backoff = c.cfg.RateLimitBackoff
			}
			wait := backoff.Next(attempt)
			logs.Warnf("gateway %s %s: attempt %d backing off %s, err: %+v",
				c.cfg.Exchange, op, attempt, wait, lastErr)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := c.limiter.Acquire(ctx, 1); err != nil {
			return err
		}

		err := c.timeoutStage(ctx, op, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !exception.KindOf(err).Retryable() {
			c.metrics.IncGatewayFailure()
			return err
		}
		lastErr = err
	}

	c.metrics.IncGatewayFailure()
	return lastErr
}

// timeoutStage bounds one attempt with a hard deadline. Expiry cancels
// the underlying call and surfaces as a retryable connectivity fault
// via classification.
func (c *Caller) timeoutStage(ctx context.Context, op string, fn CallFunc) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return c.logStage(ctx, op, fn)
}

// logStage records every attempt outcome with its classification.
func (c *Caller) logStage(ctx context.Context, op string, fn CallFunc) error {
	started := time.Now()
	err := c.classifyStage(ctx, fn)
	elapsed := time.Since(started)
	if err != nil {
		logs.Warnf("gateway %s %s: failed in %s kind=%s, err: %+v",
			c.cfg.Exchange, op, elapsed, exception.KindOf(err), err)
		return err
	}
	logs.Debugf("gateway %s %s: ok in %s", c.cfg.Exchange, op, elapsed)
	return nil
}

// classifyStage maps whatever the raw call raised onto the taxonomy.
func (c *Caller) classifyStage(ctx context.Context, fn CallFunc) error {
	return Classify(fn(ctx))
}
