package executor

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
)

// OrderRequest is one logical order intent. ClientOrderID is the
// idempotency key: it is generated once per logical request and reused
// on every retry attempt so exchange-side deduplication recognizes a
// retried transient failure as the same order.
type OrderRequest struct {
	Symbol        string
	Side          enum.OrderSide
	Type          enum.OrderType
	Amount        decimal.Decimal
	Price         decimal.Decimal
	StopPrice     decimal.Decimal
	ClientOrderID string
}

// Executor creates, cancels and queries orders. Paper and live
// implementations share this contract so the risk and portfolio
// layers can be exercised deterministically without network access.
type Executor interface {
	CreateOrder(ctx context.Context, req OrderRequest) (model.Order, error)
	CancelOrder(ctx context.Context, orderID, symbol string) (bool, error)
	GetOrder(ctx context.Context, orderID, symbol string) (model.Order, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]model.Order, error)
}

// FillHandler receives fills as the executor produces them. The
// portfolio manager is the intended consumer.
type FillHandler func(fill model.Fill)

func newClientOrderID() string {
	return "ta-" + uuid.NewString()
}

func newOrderID() string {
	return uuid.NewString()
}

func newTradeID() string {
	return uuid.NewString()
}
