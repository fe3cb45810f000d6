package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model"
	"main/internal/model/enum"
)

func d(v string) decimal.Decimal {
	out, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return out
}

func buy(tradeID, symbol, price, amount string) model.Fill {
	return model.Fill{
		TradeID:   tradeID,
		Symbol:    symbol,
		Side:      enum.OrderSideBuy,
		Price:     d(price),
		Amount:    d(amount),
		Timestamp: time.Now(),
	}
}

func sell(tradeID, symbol, price, amount string) model.Fill {
	f := buy(tradeID, symbol, price, amount)
	f.Side = enum.OrderSideSell
	return f
}

func mustApply(t *testing.T, m *Manager, fill model.Fill) {
	t.Helper()
	applied, err := m.ApplyFill(fill)
	if err != nil {
		t.Fatalf("apply %s, err: %+v", fill.TradeID, err)
	}
	if !applied {
		t.Fatalf("apply %s reported duplicate", fill.TradeID)
	}
}

func TestLedgerVWAPEntry(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, buy("t1", "BTCUSDT", "20000", "0.3"))
	mustApply(t, m, buy("t2", "BTCUSDT", "20500", "0.1"))

	pos, ok := m.Position("BTCUSDT")
	if !ok {
		t.Fatal("position should exist")
	}
	if !pos.EntryPrice.Equal(d("20125")) {
		t.Fatalf("entry = %s, want 20125", pos.EntryPrice)
	}
	if !pos.Amount.Equal(d("0.4")) {
		t.Fatalf("amount = %s, want 0.4", pos.Amount)
	}
	if got := m.GetCurrentPortfolio().Cash; !got.Equal(d("1950")) {
		t.Fatalf("cash = %s, want 1950", got)
	}
}

func TestLedgerPartialReduceRealizesPnL(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, buy("t1", "BTCUSDT", "20000", "0.3"))
	mustApply(t, m, buy("t2", "BTCUSDT", "20500", "0.1"))
	mustApply(t, m, sell("t3", "BTCUSDT", "21000", "0.1"))

	pos, ok := m.Position("BTCUSDT")
	if !ok {
		t.Fatal("position should remain after partial reduce")
	}
	if !pos.Amount.Equal(d("0.3")) {
		t.Fatalf("amount = %s, want 0.3", pos.Amount)
	}
	// Entry price is untouched by a reduce.
	if !pos.EntryPrice.Equal(d("20125")) {
		t.Fatalf("entry = %s, want 20125", pos.EntryPrice)
	}
	// realized = (21000 - 20125) * 0.1
	if got := m.CalculateMetrics().RealizedPnL; !got.Equal(d("87.5")) {
		t.Fatalf("realized = %s, want 87.5", got)
	}
}

func TestLedgerExactCloseRemovesPosition(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, buy("t1", "BTCUSDT", "20000", "0.4"))
	mustApply(t, m, sell("t2", "BTCUSDT", "21000", "0.4"))

	if _, ok := m.Position("BTCUSDT"); ok {
		t.Fatal("position should be removed on exact close")
	}

	closed := m.ClosedPositions()
	if len(closed) != 1 {
		t.Fatalf("closed = %d, want 1", len(closed))
	}
	if !closed[0].RealizedPnL.Equal(d("400")) {
		t.Fatalf("realized = %s, want 400", closed[0].RealizedPnL)
	}

	// All margin released plus profit: cash reconciles to a flat book.
	if got := m.GetCurrentPortfolio().Cash; !got.Equal(d("10400")) {
		t.Fatalf("cash = %s, want 10400", got)
	}
}

func TestLedgerShortRoundTrip(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, sell("t1", "ETHUSDT", "100", "1"))

	pos, ok := m.Position("ETHUSDT")
	if !ok || pos.Side != enum.PositionSideShort {
		t.Fatalf("want short position, got %+v", pos)
	}

	{ // price falls, unrealized gain, valuation reconciles
		m.UpdatePrice("ETHUSDT", d("90"))
		current := m.GetCurrentPortfolio()
		if !current.TotalValue.Equal(d("10010")) {
			t.Fatalf("total = %s, want 10010", current.TotalValue)
		}
	}

	mustApply(t, m, buy("t2", "ETHUSDT", "90", "1"))

	current := m.GetCurrentPortfolio()
	if !current.Cash.Equal(d("10010")) {
		t.Fatalf("cash = %s, want 10010", current.Cash)
	}
	if !current.TotalValue.Equal(d("10010")) {
		t.Fatalf("total = %s, want 10010", current.TotalValue)
	}
}

func TestLedgerFlipIsAtomic(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, buy("t1", "SOLUSDT", "100", "0.2"))
	// Oversized sell: close the 0.2 long, open a 0.3 short, one fill.
	mustApply(t, m, sell("t2", "SOLUSDT", "110", "0.5"))

	pos, ok := m.Position("SOLUSDT")
	if !ok {
		t.Fatal("flip should leave a short open")
	}
	if pos.Side != enum.PositionSideShort {
		t.Fatalf("side = %s, want short", pos.Side)
	}
	if !pos.Amount.Equal(d("0.3")) {
		t.Fatalf("amount = %s, want 0.3", pos.Amount)
	}
	if !pos.EntryPrice.Equal(d("110")) {
		t.Fatalf("entry = %s, want 110", pos.EntryPrice)
	}

	// realized on the long leg: (110 - 100) * 0.2
	closed := m.ClosedPositions()
	if len(closed) != 1 || !closed[0].RealizedPnL.Equal(d("2")) {
		t.Fatalf("closed leg = %+v, want realized 2", closed)
	}
	// Flat at entry: total value equals cash plus short margin.
	if got := m.GetCurrentPortfolio().TotalValue; !got.Equal(d("10002")) {
		t.Fatalf("total = %s, want 10002", got)
	}
}

func TestLedgerIdempotentByTradeID(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	fill := buy("t1", "BTCUSDT", "20000", "0.1")
	mustApply(t, m, fill)

	applied, err := m.ApplyFill(fill)
	if err != nil {
		t.Fatalf("replay, err: %+v", err)
	}
	if applied {
		t.Fatal("replayed trade id must be a no-op")
	}

	pos, _ := m.Position("BTCUSDT")
	if !pos.Amount.Equal(d("0.1")) {
		t.Fatalf("amount = %s, want 0.1", pos.Amount)
	}
	if got := m.GetCurrentPortfolio().Cash; !got.Equal(d("8000")) {
		t.Fatalf("cash = %s, want 8000", got)
	}
}

func TestLedgerLeveragedMargin(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	fill := buy("t1", "ETHUSDT", "3500", "3.5")
	fill.Leverage = d("8")
	mustApply(t, m, fill)

	pos, _ := m.Position("ETHUSDT")
	// margin = 3.5 * 3500 / 8
	if !pos.Margin.Equal(d("1531.25")) {
		t.Fatalf("margin = %s, want 1531.25", pos.Margin)
	}
	if got := m.GetCurrentPortfolio().Cash; !got.Equal(d("8468.75")) {
		t.Fatalf("cash = %s, want 8468.75", got)
	}
}

func TestLedgerFeesDebited(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	open := buy("t1", "BTCUSDT", "20000", "0.1")
	open.Fee = d("2")
	mustApply(t, m, open)

	if got := m.GetCurrentPortfolio().Cash; !got.Equal(d("7998")) {
		t.Fatalf("cash after open = %s, want 7998", got)
	}

	close := sell("t2", "BTCUSDT", "20000", "0.1")
	close.Fee = d("2")
	mustApply(t, m, close)

	// Round trip at flat price loses exactly the two fees.
	if got := m.GetCurrentPortfolio().Cash; !got.Equal(d("9996")) {
		t.Fatalf("cash after close = %s, want 9996", got)
	}
}

func TestLedgerDailyReset(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, buy("t1", "BTCUSDT", "100", "1"))
	mustApply(t, m, sell("t2", "BTCUSDT", "150", "1"))

	if got := m.GetCurrentPortfolio().DailyPnL; !got.Equal(d("50")) {
		t.Fatalf("daily pnl = %s, want 50", got)
	}

	m.ResetDaily(time.Now())
	if got := m.GetCurrentPortfolio().DailyPnL; !got.IsZero() {
		t.Fatalf("daily pnl after reset = %s, want 0", got)
	}
	// Total PnL keeps accumulating across the reset.
	if got := m.GetCurrentPortfolio().TotalPnL; !got.Equal(d("50")) {
		t.Fatalf("total pnl = %s, want 50", got)
	}
}

func TestLedgerPeakTracksDrawdownBase(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, buy("t1", "BTCUSDT", "100", "10"))
	m.UpdatePrice("BTCUSDT", d("150"))
	if got := m.GetCurrentPortfolio().PeakValue; !got.Equal(d("10500")) {
		t.Fatalf("peak = %s, want 10500", got)
	}

	// Peak is sticky through a decline.
	m.UpdatePrice("BTCUSDT", d("80"))
	current := m.GetCurrentPortfolio()
	if !current.PeakValue.Equal(d("10500")) {
		t.Fatalf("peak = %s, want 10500", current.PeakValue)
	}
	if !current.TotalValue.Equal(d("9800")) {
		t.Fatalf("total = %s, want 9800", current.TotalValue)
	}
}

func TestLedgerPerformanceMetrics(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	mustApply(t, m, buy("t1", "A", "100", "1"))
	mustApply(t, m, sell("t2", "A", "120", "1"))
	mustApply(t, m, buy("t3", "B", "100", "1"))
	mustApply(t, m, sell("t4", "B", "90", "1"))

	metrics := m.CalculateMetrics()
	if metrics.TotalTrades != 2 {
		t.Fatalf("trades = %d, want 2", metrics.TotalTrades)
	}
	if metrics.WinningTrades != 1 || metrics.LosingTrades != 1 {
		t.Fatalf("wins/losses = %d/%d, want 1/1", metrics.WinningTrades, metrics.LosingTrades)
	}
	if !metrics.WinRate.Equal(d("0.5")) {
		t.Fatalf("win rate = %s, want 0.5", metrics.WinRate)
	}
	if !metrics.RealizedPnL.Equal(d("10")) {
		t.Fatalf("realized = %s, want 10", metrics.RealizedPnL)
	}
}

func TestLedgerProtectivePrices(t *testing.T) {
	m := NewManager(Config{InitialCash: d("10000")})

	if m.SetProtectivePrices("BTCUSDT", d("19000"), d("21000")) {
		t.Fatal("no position yet, set should report false")
	}

	mustApply(t, m, buy("t1", "BTCUSDT", "20000", "0.1"))
	if !m.SetProtectivePrices("BTCUSDT", d("19000"), d("21000")) {
		t.Fatal("set on open position should succeed")
	}

	pos, _ := m.Position("BTCUSDT")
	if !pos.StopLoss.Equal(d("19000")) || !pos.TakeProfit.Equal(d("21000")) {
		t.Fatalf("protective prices = %s/%s", pos.StopLoss, pos.TakeProfit)
	}
}
