package portfolio

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

// FillJournal receives every applied fill for durable replay.
type FillJournal interface {
	Append(fill model.Fill) error
}

// Archiver receives closed-position audit records.
type Archiver interface {
	ArchiveClosedPosition(closed model.ClosedPosition) error
}

// Config wires optional collaborators into the ledger.
type Config struct {
	InitialCash decimal.Decimal
	Journal     FillJournal
	Metrics     *obs.Metrics
	Archiver    Archiver
}

// Manager is the authoritative ledger of cash and positions. Fills
// are the only mutation; valuation is always recomputed from the
// ledger plus the latest known prices, never summed from an external
// source. All mutations run under one mutex so multi-step updates
// (reduce-then-flip in particular) are atomic to concurrent readers.
type Manager struct {
	mu sync.Mutex

	cash        decimal.Decimal
	initialCash decimal.Decimal
	positions   map[string]*model.Position
	closed      []model.ClosedPosition
	applied     map[string]struct{}
	realized    decimal.Decimal

	dayStart      time.Time
	dayStartValue decimal.Decimal
	peakValue     decimal.Decimal

	journal  FillJournal
	metrics  *obs.Metrics
	archiver Archiver
	now      func() time.Time
}

// NewManager creates a ledger seeded with the initial cash balance.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		cash:        cfg.InitialCash,
		initialCash: cfg.InitialCash,
		positions:   make(map[string]*model.Position),
		applied:     make(map[string]struct{}),
		journal:     cfg.Journal,
		metrics:     cfg.Metrics,
		archiver:    cfg.Archiver,
		now:         time.Now,
	}
	m.dayStart = m.now()
	m.dayStartValue = cfg.InitialCash
	m.peakValue = cfg.InitialCash
	return m
}

// ApplyFill applies one execution to the ledger. Application is
// idempotent per trade id: a replayed fill reports false and changes
// nothing. A fill that opens or grows a position commits
// notional/leverage margin; a missing leverage means 1.
func (m *Manager) ApplyFill(fill model.Fill) (bool, error) {
	leverage := fill.Leverage
	if leverage.LessThanOrEqual(decimal.Zero) {
		leverage = decimal.NewFromInt(1)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.applied[fill.TradeID]; dup {
		m.metrics.IncFillDuplicate()
		return false, nil
	}

	fillSide := enum.SideOfFill(fill.Side)
	pos, exists := m.positions[fill.Symbol]

	switch {
	case !exists:
		m.openPosition(fill, fillSide, fill.Amount, leverage, true)

	case pos.Side == fillSide:
		m.growPosition(pos, fill, leverage)

	default:
		reduce := decimal.Min(fill.Amount, pos.Amount)
		m.reducePosition(pos, fill, reduce)
		if remainder := fill.Amount.Sub(reduce); remainder.IsPositive() {
			// Flip: the close above and this open happen under the
			// same lock hold, so no intermediate state is observable.
			m.openPosition(fill, fillSide, remainder, leverage, false)
		}
	}

	m.applied[fill.TradeID] = struct{}{}
	m.metrics.IncFillApplied()
	m.trackPeakLocked()

	if m.journal != nil {
		if err := m.journal.Append(fill); err != nil {
			logs.Errorf("portfolio: journal append trade %s, err: %+v", fill.TradeID, err)
		}
	}
	return true, nil
}

// openPosition creates a position sized amount at the fill price.
// chargeFee is false when the fee was already charged by the reduce
// leg of a flip.
func (m *Manager) openPosition(fill model.Fill, side enum.PositionSide, amount, leverage decimal.Decimal, chargeFee bool) {
	margin := fill.Price.Mul(amount).Div(leverage)
	m.cash = m.cash.Sub(margin)
	if chargeFee {
		m.cash = m.cash.Sub(fill.Fee)
	}
	m.positions[fill.Symbol] = &model.Position{
		Symbol:       fill.Symbol,
		Side:         side,
		Amount:       amount,
		EntryPrice:   fill.Price,
		CurrentPrice: fill.Price,
		Margin:       margin,
		Leverage:     leverage,
		OpenedAt:     fill.Timestamp,
	}
}

// growPosition adds a same-direction fill: entry price becomes the
// volume-weighted average of old and new.
func (m *Manager) growPosition(pos *model.Position, fill model.Fill, leverage decimal.Decimal) {
	oldNotional := pos.EntryPrice.Mul(pos.Amount)
	newNotional := fill.Price.Mul(fill.Amount)
	total := pos.Amount.Add(fill.Amount)

	pos.EntryPrice = oldNotional.Add(newNotional).Div(total)
	pos.Amount = total
	pos.CurrentPrice = fill.Price

	if pos.Leverage.LessThanOrEqual(decimal.Zero) {
		pos.Leverage = leverage
	}
	margin := newNotional.Div(pos.Leverage)
	pos.Margin = pos.Margin.Add(margin)
	m.cash = m.cash.Sub(margin).Sub(fill.Fee)
}

// reducePosition closes part (or all) of a position against an
// opposite-direction fill, realizing PnL and releasing margin
// proportionally.
func (m *Manager) reducePosition(pos *model.Position, fill model.Fill, reduce decimal.Decimal) {
	diff := fill.Price.Sub(pos.EntryPrice)
	if pos.Side == enum.PositionSideShort {
		diff = diff.Neg()
	}
	realized := diff.Mul(reduce)

	released := pos.Margin
	if !pos.Amount.Equal(reduce) {
		released = pos.Margin.Mul(reduce).Div(pos.Amount)
	}

	m.cash = m.cash.Add(released).Add(realized).Sub(fill.Fee)
	m.realized = m.realized.Add(realized)

	pos.Amount = pos.Amount.Sub(reduce)
	pos.Margin = pos.Margin.Sub(released)
	pos.CurrentPrice = fill.Price

	if pos.Amount.IsZero() {
		closed := model.ClosedPosition{
			Symbol:      pos.Symbol,
			Side:        pos.Side,
			Amount:      reduce,
			EntryPrice:  pos.EntryPrice,
			ExitPrice:   fill.Price,
			RealizedPnL: realized,
			OpenedAt:    pos.OpenedAt,
			ClosedAt:    fill.Timestamp,
		}
		m.closed = append(m.closed, closed)
		delete(m.positions, pos.Symbol)
		if m.archiver != nil {
			if err := m.archiver.ArchiveClosedPosition(closed); err != nil {
				logs.Errorf("portfolio: archive closed position %s, err: %+v", closed.Symbol, err)
			}
		}
	}
}

// UpdatePrice records the latest mark price for a symbol's position.
func (m *Manager) UpdatePrice(symbol string, price decimal.Decimal) {
	if price.LessThanOrEqual(decimal.Zero) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.positions[symbol]; ok {
		pos.CurrentPrice = price
	}
}

// GetCurrentPortfolio recomputes the valuation from cash plus marked
// positions and returns a copy safe for the caller to hold.
func (m *Manager) GetCurrentPortfolio() model.Portfolio {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.portfolioLocked()
}

func (m *Manager) portfolioLocked() model.Portfolio {
	positions := make(map[string]model.Position, len(m.positions))
	total := m.cash
	for symbol, pos := range m.positions {
		positions[symbol] = *pos
		total = total.Add(pos.Value())
	}

	totalPnL := total.Sub(m.initialCash)
	totalReturn := decimal.Zero
	if m.initialCash.IsPositive() {
		totalReturn = totalPnL.Div(m.initialCash)
	}

	if total.GreaterThan(m.peakValue) {
		m.peakValue = total
	}

	return model.Portfolio{
		Cash:        m.cash,
		Positions:   positions,
		TotalValue:  total,
		TotalPnL:    totalPnL,
		DailyPnL:    total.Sub(m.dayStartValue),
		TotalReturn: totalReturn,
		PeakValue:   m.peakValue,
	}
}

func (m *Manager) trackPeakLocked() {
	total := m.cash
	for _, pos := range m.positions {
		total = total.Add(pos.Value())
	}
	if total.GreaterThan(m.peakValue) {
		m.peakValue = total
	}
}

// ResetDaily rebases the daily PnL anchor, typically at UTC midnight.
func (m *Manager) ResetDaily(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dayStart = at
	m.dayStartValue = m.portfolioLockedTotal()
}

func (m *Manager) portfolioLockedTotal() decimal.Decimal {
	total := m.cash
	for _, pos := range m.positions {
		total = total.Add(pos.Value())
	}
	return total
}

// Position returns a copy of the open position for a symbol.
func (m *Manager) Position(symbol string) (model.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[symbol]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// SetProtectivePrices attaches stop-loss/take-profit levels to an
// open position.
func (m *Manager) SetProtectivePrices(symbol string, stopLoss, takeProfit decimal.Decimal) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[symbol]
	if !ok {
		return false
	}
	pos.StopLoss = stopLoss
	pos.TakeProfit = takeProfit
	return true
}

// ClosedPositions returns the audit trail of completed round trips.
func (m *Manager) ClosedPositions() []model.ClosedPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ClosedPosition, len(m.closed))
	copy(out, m.closed)
	return out
}

// CalculateMetrics derives performance from the accumulated history.
// It is a pure read; nothing is mutated.
func (m *Manager) CalculateMetrics() model.PerformanceMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := model.PerformanceMetrics{
		TotalTrades: len(m.closed),
		RealizedPnL: m.realized,
	}
	for _, closed := range m.closed {
		if closed.RealizedPnL.IsPositive() {
			metrics.WinningTrades++
		} else {
			metrics.LosingTrades++
		}
	}
	if metrics.TotalTrades > 0 {
		metrics.WinRate = decimal.NewFromInt(int64(metrics.WinningTrades)).
			Div(decimal.NewFromInt(int64(metrics.TotalTrades)))
	}
	if m.initialCash.IsPositive() {
		metrics.TotalReturn = m.portfolioLockedTotal().Sub(m.initialCash).Div(m.initialCash)
	}
	return metrics
}
