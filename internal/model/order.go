package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Order is the executor's view of a single order. Once the status is
// terminal the order is immutable and kept for audit.
type Order struct {
	ID            string
	ClientOrderID string
	Exchange      string
	Symbol        string
	Side          enum.OrderSide
	Type          enum.OrderType
	Status        enum.OrderStatus
	Price         decimal.Decimal
	Amount        decimal.Decimal
	Filled        decimal.Decimal
	Cost          decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Remaining returns the unfilled amount.
func (o Order) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.Filled)
}
