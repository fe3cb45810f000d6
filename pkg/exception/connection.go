package exception

import "errors"

// Connection faults are transient and retryable with backoff.
var (
	ErrConnection        = errors.New("connection: request failed")
	ErrConnectionTimeout = errors.New("connection: deadline exceeded")
	ErrConnectionRefused = errors.New("connection: refused")
	ErrConnectionClosed  = errors.New("connection: closed")
)

// Rate-limit faults are retryable with a longer, dedicated backoff.
var (
	ErrRateLimited = errors.New("ratelimit: exchange throttled request")
)
