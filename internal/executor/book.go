package executor

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// book tracks every order of one executor session, keyed by order id
// and client order id. Terminal orders stay for audit; they are never
// deleted.
type book struct {
	mu       sync.Mutex
	orders   map[string]*model.Order
	byClient map[string]string
}

func newBook() *book {
	return &book{
		orders:   make(map[string]*model.Order),
		byClient: make(map[string]string),
	}
}

// add registers a new order. A known client order id returns the
// already-registered order so a retried logical request never creates
// a second entry.
func (b *book) add(order model.Order) (model.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.byClient[order.ClientOrderID]; ok {
		return *b.orders[id], false
	}
	stored := order
	b.orders[order.ID] = &stored
	b.byClient[order.ClientOrderID] = order.ID
	return stored, true
}

// update replaces the stored state of an order the exchange reported
// on. Terminal orders are immutable.
func (b *book) update(order model.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.orders[order.ID]
	if !ok || current.Status.IsTerminal() {
		return
	}
	order.CreatedAt = current.CreatedAt
	*current = order
}

// applyFill reduces the remaining amount and advances the status.
func (b *book) applyFill(orderID string, amount, price decimal.Decimal, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return exception.ErrOrderNotFound
	}
	if order.Status.IsTerminal() {
		return exception.ErrOrderTerminal
	}

	order.Filled = order.Filled.Add(amount)
	order.Cost = order.Cost.Add(amount.Mul(price))
	order.UpdatedAt = now
	if order.Filled.GreaterThanOrEqual(order.Amount) {
		order.Filled = order.Amount
		order.Status = enum.OrderStatusFilled
	} else {
		order.Status = enum.OrderStatusPartialFilled
	}
	return nil
}

// cancel transitions a non-terminal order to canceled. It reports
// false without error when the order is already terminal.
func (b *book) cancel(orderID string, now time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return false, exception.ErrOrderNotFound
	}
	if order.Status.IsTerminal() {
		return false, nil
	}
	order.Status = enum.OrderStatusCanceled
	order.UpdatedAt = now
	return true, nil
}

func (b *book) get(orderID string) (model.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[orderID]
	if !ok {
		return model.Order{}, exception.ErrOrderNotFound
	}
	return *order, nil
}

// open returns all non-terminal orders, optionally filtered by symbol.
func (b *book) open(symbol string) []model.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Order, 0, len(b.orders))
	for _, order := range b.orders {
		if order.Status.IsTerminal() {
			continue
		}
		if symbol != "" && order.Symbol != symbol {
			continue
		}
		out = append(out, *order)
	}
	return out
}
