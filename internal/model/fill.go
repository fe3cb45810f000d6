package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Fill is an immutable, append-only execution record. TradeID is the
// idempotency key for ledger application: re-applying the same TradeID
// is a no-op.
type Fill struct {
	TradeID   string          `json:"tradeId"`
	OrderID   string          `json:"orderId"`
	Symbol    string          `json:"symbol"`
	Side      enum.OrderSide  `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	Leverage  decimal.Decimal `json:"leverage,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notional returns price * amount.
func (f Fill) Notional() decimal.Decimal {
	return f.Price.Mul(f.Amount)
}
