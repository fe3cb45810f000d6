package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Position is a direction-exclusive open position: at most one per
// symbol, an opposite-side fill reduces before it can flip.
type Position struct {
	Symbol       string            `json:"symbol"`
	Side         enum.PositionSide `json:"side"`
	Amount       decimal.Decimal   `json:"amount"`
	EntryPrice   decimal.Decimal   `json:"entryPrice"`
	CurrentPrice decimal.Decimal   `json:"currentPrice"`
	Margin       decimal.Decimal   `json:"margin"`
	Leverage     decimal.Decimal   `json:"leverage"`
	StopLoss     decimal.Decimal   `json:"stopLoss"`
	TakeProfit   decimal.Decimal   `json:"takeProfit"`
	OpenedAt     time.Time         `json:"openedAt"`
}

// Notional returns the position size at the current price.
func (p Position) Notional() decimal.Decimal {
	return p.CurrentPrice.Mul(p.Amount)
}

// Value is the equity the position ties up: committed margin plus the
// live valuation delta. Cash plus the sum of position values must
// reconcile to the portfolio total after every fill.
func (p Position) Value() decimal.Decimal {
	return p.Margin.Add(p.UnrealizedPnL())
}

// UnrealizedPnL is the live valuation delta against the entry.
func (p Position) UnrealizedPnL() decimal.Decimal {
	diff := p.CurrentPrice.Sub(p.EntryPrice)
	return diff.Mul(p.Amount).Mul(decimal.NewFromInt(int64(p.Side.Sign())))
}

// UnrealizedPnLPercent is the unrealized PnL relative to the entry notional.
func (p Position) UnrealizedPnLPercent() decimal.Decimal {
	entry := p.EntryPrice.Mul(p.Amount)
	if entry.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPnL().Div(entry).Mul(decimal.NewFromInt(100))
}

// ClosedPosition is the immutable audit record written when a
// position's amount returns to zero.
type ClosedPosition struct {
	Symbol      string            `json:"symbol"`
	Side        enum.PositionSide `json:"side"`
	Amount      decimal.Decimal   `json:"amount"`
	EntryPrice  decimal.Decimal   `json:"entryPrice"`
	ExitPrice   decimal.Decimal   `json:"exitPrice"`
	RealizedPnL decimal.Decimal   `json:"realizedPnl"`
	OpenedAt    time.Time         `json:"openedAt"`
	ClosedAt    time.Time         `json:"closedAt"`
}
