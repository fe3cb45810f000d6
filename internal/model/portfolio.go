package model

import "github.com/shopspring/decimal"

// Portfolio is a point-in-time valuation of the ledger. It is always
// derived from cash plus marked positions, never summed from an
// external source.
type Portfolio struct {
	Cash        decimal.Decimal     `json:"cash"`
	Positions   map[string]Position `json:"positions"`
	TotalValue  decimal.Decimal     `json:"totalValue"`
	TotalPnL    decimal.Decimal     `json:"totalPnl"`
	DailyPnL    decimal.Decimal     `json:"dailyPnl"`
	TotalReturn decimal.Decimal     `json:"totalReturn"`
	PeakValue   decimal.Decimal     `json:"peakValue"`
}

// Position returns the open position for a symbol, if any.
func (p Portfolio) Position(symbol string) (Position, bool) {
	pos, ok := p.Positions[symbol]
	return pos, ok
}

// PerformanceMetrics is derived from the accumulated fill history.
type PerformanceMetrics struct {
	TotalTrades   int             `json:"totalTrades"`
	WinningTrades int             `json:"winningTrades"`
	LosingTrades  int             `json:"losingTrades"`
	WinRate       decimal.Decimal `json:"winRate"`
	RealizedPnL   decimal.Decimal `json:"realizedPnl"`
	TotalReturn   decimal.Decimal `json:"totalReturn"`
}
