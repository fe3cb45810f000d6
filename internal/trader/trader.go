package trader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/executor"
	"main/internal/feed"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/portfolio"
	"main/internal/risk"
	"main/pkg/exception"
)

// OrderSink persists order state for audit; the Postgres store
// implements it. A nil sink is valid.
type OrderSink interface {
	SaveOrder(order model.Order) error
	SaveFill(fill model.Fill) error
}

// Config sizes the signal pipeline.
type Config struct {
	Risk            risk.Parameters
	Workers         int
	QueueSize       int
	MonitorInterval time.Duration
}

// Trader converts signals into orders behind the risk gate and keeps
// positions monitored against live prices. Signals queue into a
// bounded channel consumed by workers; one symbol's failure never
// aborts another symbol's execution.
type Trader struct {
	cfg       Config
	risk      *risk.Manager
	ledger    *portfolio.Manager
	exec      executor.Executor
	prices    feed.PriceSource
	metrics   *obs.Metrics
	sink      OrderSink

	queue   chan model.Signal
	running atomic.Bool

	mu       sync.Mutex
	leverage map[string]decimal.Decimal
}

// New wires the execution pipeline. prices must not be nil; metrics
// and sink may be.
func New(cfg Config, riskManager *risk.Manager, ledger *portfolio.Manager, exec executor.Executor, prices feed.PriceSource, metrics *obs.Metrics, sink OrderSink) *Trader {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = 5 * time.Second
	}
	return &Trader{
		cfg:      cfg,
		risk:     riskManager,
		ledger:   ledger,
		exec:     exec,
		prices:   prices,
		metrics:  metrics,
		sink:     sink,
		queue:    make(chan model.Signal, cfg.QueueSize),
		leverage: make(map[string]decimal.Decimal),
	}
}

// OnFill is the executor's fill handler: it stamps the leverage the
// entry signal asked for and applies the fill to the ledger.
func (t *Trader) OnFill(fill model.Fill) {
	t.mu.Lock()
	if lev, ok := t.leverage[fill.Symbol]; ok {
		fill.Leverage = lev
	}
	t.mu.Unlock()

	applied, err := t.ledger.ApplyFill(fill)
	if err != nil {
		logs.Errorf("trader: apply fill %s, err: %+v", fill.TradeID, err)
		return
	}
	if applied && t.sink != nil {
		if err := t.sink.SaveFill(fill); err != nil {
			logs.Errorf("trader: persist fill %s, err: %+v", fill.TradeID, err)
		}
	}
}

// Handle enqueues a signal without blocking the producer.
func (t *Trader) Handle(signal model.Signal) error {
	select {
	case t.queue <- signal:
		return nil
	default:
		return exception.ErrSignalQueueFull
	}
}

// Run starts the signal workers and the position monitor, and blocks
// until ctx is done.
func (t *Trader) Run(ctx context.Context) {
	if t.running.Swap(true) {
		return
	}

	var wg sync.WaitGroup
	for range t.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.workerLoop(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		t.monitorLoop(ctx)
	}()

	wg.Wait()
}

func (t *Trader) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case signal := <-t.queue:
			if err := t.Process(ctx, signal); err != nil {
				logs.Errorf("trader: signal %s %s skipped, err: %+v", signal.Symbol, signal.Type, err)
			}
		}
	}
}

// Process executes one signal end to end: risk gate, order
// submission, protective price attachment. A risk rejection is a
// normal outcome and returns nil.
func (t *Trader) Process(ctx context.Context, signal model.Signal) error {
	if signal.Type == enum.SignalHold || !signal.Type.IsAvailable() {
		return nil
	}

	price, err := t.referencePrice(ctx, signal)
	if err != nil {
		return err
	}
	signal.SuggestedPrice = price

	if signal.Type.IsEntry() {
		return t.enter(ctx, signal)
	}
	if signal.Type.IsExit() {
		return t.exit(ctx, signal)
	}
	return nil
}

func (t *Trader) enter(ctx context.Context, signal model.Signal) error {
	if signal.SuggestedAmount.LessThanOrEqual(decimal.Zero) {
		return exception.ErrOrderInvalidRequest
	}

	current := t.ledger.GetCurrentPortfolio()
	started := time.Now()
	result := t.risk.CheckOrderRisk(signal, current, t.cfg.Risk)
	t.metrics.ObserveRiskEval(time.Since(started))
	if !result.Passed {
		t.metrics.IncRiskRejection(result.Reason)
		logs.Infof("trader: %s %s rejected by %s: %s", signal.Symbol, signal.Type, result.Reason, result.Detail)
		return nil
	}

	t.mu.Lock()
	if signal.Leverage.GreaterThan(decimal.NewFromInt(1)) {
		t.leverage[signal.Symbol] = signal.Leverage
	} else {
		delete(t.leverage, signal.Symbol)
	}
	t.mu.Unlock()

	order, err := t.submit(ctx, executor.OrderRequest{
		Symbol: signal.Symbol,
		Side:   signal.Type.OrderSide(),
		Type:   enum.OrderTypeMarket,
		Amount: signal.SuggestedAmount,
		Price:  signal.SuggestedPrice,
	})
	if err != nil {
		return err
	}

	t.attachProtectivePrices(signal, order)
	return nil
}

func (t *Trader) exit(ctx context.Context, signal model.Signal) error {
	position, ok := t.ledger.Position(signal.Symbol)
	if !ok {
		logs.Infof("trader: %s %s with no open position, skipping", signal.Symbol, signal.Type)
		return nil
	}

	wantSide := enum.PositionSideLong
	if signal.Type == enum.SignalExitShort {
		wantSide = enum.PositionSideShort
	}
	if position.Side != wantSide {
		logs.Infof("trader: %s %s does not match open %s position, skipping",
			signal.Symbol, signal.Type, position.Side)
		return nil
	}

	amount := signal.SuggestedAmount
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(position.Amount) {
		amount = position.Amount
	}

	_, err := t.submit(ctx, executor.OrderRequest{
		Symbol: signal.Symbol,
		Side:   signal.Type.OrderSide(),
		Type:   enum.OrderTypeMarket,
		Amount: amount,
		Price:  signal.SuggestedPrice,
	})
	return err
}

func (t *Trader) submit(ctx context.Context, req executor.OrderRequest) (model.Order, error) {
	started := time.Now()
	order, err := t.exec.CreateOrder(ctx, req)
	if err != nil {
		t.metrics.IncOrderFailed()
		return model.Order{}, err
	}
	t.metrics.IncOrderPlaced()
	t.metrics.ObserveOrder(time.Since(started))

	if t.sink != nil {
		if err := t.sink.SaveOrder(order); err != nil {
			logs.Errorf("trader: persist order %s, err: %+v", order.ID, err)
		}
	}
	return order, nil
}

func (t *Trader) attachProtectivePrices(signal model.Signal, order model.Order) {
	position, ok := t.ledger.Position(signal.Symbol)
	if !ok {
		return
	}

	stop, take := signal.StopLoss, signal.TakeProfit
	if stop.LessThanOrEqual(decimal.Zero) || take.LessThanOrEqual(decimal.Zero) {
		derived := t.risk.StopLossTakeProfit(position.EntryPrice, position.Side, t.cfg.Risk)
		if stop.LessThanOrEqual(decimal.Zero) {
			stop = derived.StopLoss
		}
		if take.LessThanOrEqual(decimal.Zero) {
			take = derived.TakeProfit
		}
	}
	t.ledger.SetProtectivePrices(signal.Symbol, stop, take)
	logs.Debugf("trader: %s order %s protected stop=%s take=%s", signal.Symbol, order.ID, stop, take)
}

func (t *Trader) referencePrice(ctx context.Context, signal model.Signal) (decimal.Decimal, error) {
	if signal.SuggestedPrice.IsPositive() {
		return signal.SuggestedPrice, nil
	}
	return t.prices.MarkPrice(ctx, signal.Symbol)
}

// monitorLoop marks open positions to the live feed and acts on
// protective-threshold recommendations.
func (t *Trader) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.monitorOnce(ctx)
		}
	}
}

type limitTicker interface {
	Tick(symbol string, price decimal.Decimal) []model.Order
}

func (t *Trader) monitorOnce(ctx context.Context) {
	current := t.ledger.GetCurrentPortfolio()
	for symbol, position := range current.Positions {
		price, err := t.prices.MarkPrice(ctx, symbol)
		if err != nil {
			logs.Warnf("trader: mark price %s unavailable, err: %+v", symbol, err)
			continue
		}
		t.ledger.UpdatePrice(symbol, price)

		if ticker, ok := t.exec.(limitTicker); ok {
			ticker.Tick(symbol, price)
		}

		result := t.risk.CheckPositionRisk(position, price)
		if result.Passed || result.Adjustment == nil || result.Adjustment.Action != risk.ActionClosePosition {
			continue
		}

		logs.Infof("trader: closing %s %s position, %s", symbol, position.Side, result.Detail)
		_, err = t.submit(ctx, executor.OrderRequest{
			Symbol: symbol,
			Side:   closeSide(position.Side),
			Type:   enum.OrderTypeMarket,
			Amount: position.Amount,
			Price:  price,
		})
		if err != nil {
			logs.Errorf("trader: close %s position, err: %+v", symbol, err)
		}
	}
}

func closeSide(side enum.PositionSide) enum.OrderSide {
	if side == enum.PositionSideShort {
		return enum.OrderSideBuy
	}
	return enum.OrderSideSell
}
