package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/gateway"
	"main/internal/model"
	"main/internal/obs"
	"main/pkg/exception"
)

// Delegator sends order actions to one exchange's REST contract.
type Delegator interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (model.Order, error)
	CancelOrder(ctx context.Context, orderID, symbol string) error
	QueryOrder(ctx context.Context, orderID, symbol string) (model.Order, error)
	OpenOrders(ctx context.Context, symbol string) ([]model.Order, error)
}

// LiveExecutor routes orders through the resilient gateway to a real
// exchange. The returned order mirrors exchange-reported status.
type LiveExecutor struct {
	caller    *gateway.Caller
	delegator Delegator
	book      *book
	onFill    FillHandler
	metrics   *obs.Metrics
	now       func() time.Time
}

// NewLiveExecutor wires a delegator behind the gateway stages.
// metrics may be nil.
func NewLiveExecutor(caller *gateway.Caller, delegator Delegator, onFill FillHandler, metrics *obs.Metrics) *LiveExecutor {
	return &LiveExecutor{
		caller:    caller,
		delegator: delegator,
		book:      newBook(),
		onFill:    onFill,
		metrics:   metrics,
		now:       time.Now,
	}
}

// CreateOrder submits through the gateway. The client order id is
// fixed before the first attempt so every retry carries the same
// idempotency key and exchange-side deduplication collapses them.
func (e *LiveExecutor) CreateOrder(ctx context.Context, req OrderRequest) (model.Order, error) {
	if req.Symbol == "" || !req.Side.IsAvailable() || !req.Type.IsAvailable() || req.Amount.LessThanOrEqual(decimal.Zero) {
		return model.Order{}, exception.ErrOrderInvalidRequest
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = newClientOrderID()
	}

	var placed model.Order
	err := e.caller.Do(ctx, "create_order", func(ctx context.Context) error {
		var err error
		placed, err = e.delegator.PlaceOrder(ctx, req)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}

	stored, fresh := e.book.add(placed)
	if !fresh {
		e.book.update(placed)
		stored = placed
	}
	e.emitExecuted(stored, model.Order{})
	return stored, nil
}

// CancelOrder asks the exchange to cancel, then mirrors the result.
// A terminal order is a no-op reporting false.
func (e *LiveExecutor) CancelOrder(ctx context.Context, orderID, symbol string) (bool, error) {
	order, err := e.book.get(orderID)
	if err != nil {
		return false, err
	}
	if order.Status.IsTerminal() {
		return false, nil
	}

	err = e.caller.Do(ctx, "cancel_order", func(ctx context.Context) error {
		return e.delegator.CancelOrder(ctx, orderID, symbol)
	})
	if err != nil {
		return false, err
	}
	canceled, err := e.book.cancel(orderID, e.now())
	if canceled {
		e.metrics.IncOrderCanceled()
	}
	return canceled, err
}

// GetOrder refreshes a non-terminal order from the exchange and
// returns the session's view. Ids unknown to this session fail with
// a not-found condition.
func (e *LiveExecutor) GetOrder(ctx context.Context, orderID, symbol string) (model.Order, error) {
	order, err := e.book.get(orderID)
	if err != nil {
		return model.Order{}, err
	}
	if order.Status.IsTerminal() {
		return order, nil
	}

	var remote model.Order
	err = e.caller.Do(ctx, "get_order", func(ctx context.Context) error {
		var err error
		remote, err = e.delegator.QueryOrder(ctx, orderID, symbol)
		return err
	})
	if err != nil {
		return model.Order{}, err
	}
	e.book.update(remote)
	updated, err := e.book.get(orderID)
	if err != nil {
		return model.Order{}, err
	}
	e.emitExecuted(updated, order)
	return updated, nil
}

// GetOpenOrders lists the session's non-terminal orders.
func (e *LiveExecutor) GetOpenOrders(_ context.Context, symbol string) ([]model.Order, error) {
	return e.book.open(symbol), nil
}

// emitExecuted synthesizes a fill for the executed delta between two
// order states, so the ledger hears about executions reported inline
// on the order endpoints. The fill is priced from the cost increment
// since the previous state, not the cumulative average, so each delta
// books exactly what the exchange charged for it.
func (e *LiveExecutor) emitExecuted(current, previous model.Order) {
	if e.onFill == nil {
		return
	}
	delta := current.Filled.Sub(previous.Filled)
	if delta.LessThanOrEqual(decimal.Zero) {
		return
	}
	price := current.Price
	if costDelta := current.Cost.Sub(previous.Cost); costDelta.IsPositive() {
		price = costDelta.Div(delta)
	} else if current.Filled.IsPositive() && current.Cost.IsPositive() {
		price = current.Cost.Div(current.Filled)
	}
	e.onFill(model.Fill{
		TradeID:   current.ID + ":" + current.Filled.String(),
		OrderID:   current.ID,
		Symbol:    current.Symbol,
		Side:      current.Side,
		Price:     price,
		Amount:    delta,
		Fee:       decimal.Zero,
		Timestamp: e.now(),
	})
}
