package exception

import "errors"

// Kind buckets an error for retry decisions.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConnection
	KindRateLimit
	KindOrder
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindRateLimit:
		return "rate_limit"
	case KindOrder:
		return "order"
	default:
		return "unknown"
	}
}

// Retryable reports whether errors of this kind may be re-attempted.
func (k Kind) Retryable() bool {
	return k == KindConnection || k == KindRateLimit
}

// KindOf maps an error to its taxonomy kind. Unknown errors are
// treated as connection faults so a transient hiccup from a layer
// that did not classify still gets retried.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrOrderInsufficientBalance),
		errors.Is(err, ErrOrderInvalidRequest),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderTerminal),
		errors.Is(err, ErrOrderDuplicate),
		errors.Is(err, ErrOrderUnsupportedType),
		errors.Is(err, ErrOrderUnsupportedExchange):
		return KindOrder
	default:
		return KindConnection
	}
}
