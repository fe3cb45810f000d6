package model

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Signal is the decision producer's proposal for one symbol. The
// producer is external; this core only validates and executes it.
type Signal struct {
	Symbol          string          `json:"symbol"`
	Type            enum.SignalType `json:"signalType"`
	Confidence      decimal.Decimal `json:"confidence"`
	SuggestedPrice  decimal.Decimal `json:"suggestedPrice"`
	SuggestedAmount decimal.Decimal `json:"suggestedAmount"`
	StopLoss        decimal.Decimal `json:"stopLoss"`
	TakeProfit      decimal.Decimal `json:"takeProfit"`
	Leverage        decimal.Decimal `json:"leverage"`
}

// Margin returns the capital the signal would commit: notional divided
// by leverage for leveraged instruments, raw notional otherwise.
func (s Signal) Margin() decimal.Decimal {
	notional := s.SuggestedPrice.Mul(s.SuggestedAmount)
	if s.Leverage.GreaterThan(decimal.NewFromInt(1)) {
		return notional.Div(s.Leverage)
	}
	return notional
}
