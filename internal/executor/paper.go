package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// PaperExecutor simulates fills locally against reference prices.
// Market orders fill immediately at the supplied price; limit orders
// rest until a later Tick crosses them.
type PaperExecutor struct {
	book    *book
	onFill  FillHandler
	feeRate decimal.Decimal
	now     func() time.Time
}

// NewPaperExecutor creates a paper executor. feeRate is the simulated
// taker fee as a fraction of notional; onFill may be nil.
func NewPaperExecutor(feeRate decimal.Decimal, onFill FillHandler) *PaperExecutor {
	return &PaperExecutor{
		book:    newBook(),
		onFill:  onFill,
		feeRate: feeRate,
		now:     time.Now,
	}
}

// SetFillHandler replaces the fill consumer.
func (e *PaperExecutor) SetFillHandler(onFill FillHandler) {
	e.onFill = onFill
}

// CreateOrder simulates submission. A market order requires a
// reference price and fills in full immediately.
func (e *PaperExecutor) CreateOrder(_ context.Context, req OrderRequest) (model.Order, error) {
	if req.Symbol == "" || !req.Side.IsAvailable() || !req.Type.IsAvailable() || req.Amount.LessThanOrEqual(decimal.Zero) {
		return model.Order{}, exception.ErrOrderInvalidRequest
	}
	if req.Price.LessThanOrEqual(decimal.Zero) {
		return model.Order{}, exception.ErrOrderInvalidRequest
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = newClientOrderID()
	}

	now := e.now()
	order := model.Order{
		ID:            newOrderID(),
		ClientOrderID: req.ClientOrderID,
		Exchange:      "paper",
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Status:        enum.OrderStatusOpen,
		Price:         req.Price,
		Amount:        req.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	stored, fresh := e.book.add(order)
	if !fresh {
		// Duplicate client order id: same logical request, no new order.
		return stored, nil
	}

	if req.Type == enum.OrderTypeMarket {
		if err := e.fill(stored, req.Price, now); err != nil {
			return model.Order{}, err
		}
		return e.book.get(stored.ID)
	}
	return stored, nil
}

// Tick feeds a simulated price to resting limit orders for a symbol
// and returns the orders it filled.
func (e *PaperExecutor) Tick(symbol string, price decimal.Decimal) []model.Order {
	now := e.now()
	var filled []model.Order
	for _, order := range e.book.open(symbol) {
		if order.Type != enum.OrderTypeLimit {
			continue
		}
		crossed := (order.Side == enum.OrderSideBuy && price.LessThanOrEqual(order.Price)) ||
			(order.Side == enum.OrderSideSell && price.GreaterThanOrEqual(order.Price))
		if !crossed {
			continue
		}
		if err := e.fill(order, order.Price, now); err != nil {
			continue
		}
		updated, err := e.book.get(order.ID)
		if err == nil {
			filled = append(filled, updated)
		}
	}
	return filled
}

func (e *PaperExecutor) fill(order model.Order, price decimal.Decimal, now time.Time) error {
	amount := order.Remaining()
	if err := e.book.applyFill(order.ID, amount, price, now); err != nil {
		return err
	}
	if e.onFill != nil {
		e.onFill(model.Fill{
			TradeID:   newTradeID(),
			OrderID:   order.ID,
			Symbol:    order.Symbol,
			Side:      order.Side,
			Price:     price,
			Amount:    amount,
			Fee:       price.Mul(amount).Mul(e.feeRate),
			Timestamp: now,
		})
	}
	return nil
}

// CancelOrder moves an open or partially filled order to canceled.
// Already-terminal orders report false without error.
func (e *PaperExecutor) CancelOrder(_ context.Context, orderID, _ string) (bool, error) {
	return e.book.cancel(orderID, e.now())
}

// GetOrder returns the session's view of an order.
func (e *PaperExecutor) GetOrder(_ context.Context, orderID, _ string) (model.Order, error) {
	return e.book.get(orderID)
}

// GetOpenOrders lists non-terminal orders, optionally by symbol.
func (e *PaperExecutor) GetOpenOrders(_ context.Context, symbol string) ([]model.Order, error) {
	return e.book.open(symbol), nil
}
