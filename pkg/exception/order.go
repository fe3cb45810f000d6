package exception

import "errors"

// Order faults indicate a bad request shape or account state.
// They are never retried.
var (
	ErrOrderInsufficientBalance = errors.New("order: insufficient balance")
	ErrOrderInvalidRequest      = errors.New("order: invalid request")
	ErrOrderNotFound            = errors.New("order: not found")
	ErrOrderTerminal            = errors.New("order: already terminal")
	ErrOrderDuplicate           = errors.New("order: duplicate client order id")
	ErrOrderUnsupportedType     = errors.New("order: unsupported type")
	ErrOrderUnsupportedExchange = errors.New("order: unsupported exchange")
)

var (
	ErrSignalQueueFull   = errors.New("signal: queue full")
	ErrSignalQueueClosed = errors.New("signal: queue closed")
)

var (
	ErrPriceUnavailable = errors.New("feed: price unavailable")
)
