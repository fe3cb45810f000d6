package store

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
)

// OrderRecord mirrors an order's latest state.
type OrderRecord struct {
	ID            string          `gorm:"primaryKey"`
	ClientOrderID string          `gorm:"index"`
	Exchange      string
	Symbol        string          `gorm:"index"`
	Side          string
	Type          string
	Status        string
	Price         decimal.Decimal `gorm:"type:numeric"`
	Amount        decimal.Decimal `gorm:"type:numeric"`
	Filled        decimal.Decimal `gorm:"type:numeric"`
	Cost          decimal.Decimal `gorm:"type:numeric"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FillRecord is one immutable execution.
type FillRecord struct {
	TradeID   string          `gorm:"primaryKey;column:trade_id"`
	OrderID   string          `gorm:"index"`
	Symbol    string          `gorm:"index"`
	Side      string
	Price     decimal.Decimal `gorm:"type:numeric"`
	Amount    decimal.Decimal `gorm:"type:numeric"`
	Fee       decimal.Decimal `gorm:"type:numeric"`
	Timestamp time.Time
}

// ClosedPositionRecord is one completed round trip.
type ClosedPositionRecord struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	Symbol      string          `gorm:"index"`
	Side        string
	Amount      decimal.Decimal `gorm:"type:numeric"`
	EntryPrice  decimal.Decimal `gorm:"type:numeric"`
	ExitPrice   decimal.Decimal `gorm:"type:numeric"`
	RealizedPnL decimal.Decimal `gorm:"type:numeric;column:realized_pnl"`
	OpenedAt    time.Time
	ClosedAt    time.Time
}

func orderRecord(order model.Order) *OrderRecord {
	return &OrderRecord{
		ID:            order.ID,
		ClientOrderID: order.ClientOrderID,
		Exchange:      order.Exchange,
		Symbol:        order.Symbol,
		Side:          order.Side.String(),
		Type:          order.Type.String(),
		Status:        order.Status.String(),
		Price:         order.Price,
		Amount:        order.Amount,
		Filled:        order.Filled,
		Cost:          order.Cost,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

func fillRecord(fill model.Fill) *FillRecord {
	return &FillRecord{
		TradeID:   fill.TradeID,
		OrderID:   fill.OrderID,
		Symbol:    fill.Symbol,
		Side:      fill.Side.String(),
		Price:     fill.Price,
		Amount:    fill.Amount,
		Fee:       fill.Fee,
		Timestamp: fill.Timestamp,
	}
}

func closedPositionRecord(closed model.ClosedPosition) *ClosedPositionRecord {
	return &ClosedPositionRecord{
		Symbol:      closed.Symbol,
		Side:        closed.Side.String(),
		Amount:      closed.Amount,
		EntryPrice:  closed.EntryPrice,
		ExitPrice:   closed.ExitPrice,
		RealizedPnL: closed.RealizedPnL,
		OpenedAt:    closed.OpenedAt,
		ClosedAt:    closed.ClosedAt,
	}
}
