package feed

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"main/pkg/exception"
)

// PriceSource supplies the latest mark price per symbol. The prices
// come from the market-data service; this core only reads them.
type PriceSource interface {
	MarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Static is an in-memory price source for tests and paper trading.
type Static struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewStatic creates a source seeded with the given prices; nil is fine.
func NewStatic(prices map[string]decimal.Decimal) *Static {
	copied := make(map[string]decimal.Decimal, len(prices))
	for symbol, price := range prices {
		copied[symbol] = price
	}
	return &Static{prices: copied}
}

// Set records the latest price for a symbol.
func (s *Static) Set(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// MarkPrice returns the stored price for a symbol.
func (s *Static) MarkPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[symbol]
	if !ok {
		return decimal.Zero, exception.ErrPriceUnavailable
	}
	return price, nil
}
