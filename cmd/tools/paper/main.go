package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"

	"main/internal/executor"
	"main/internal/feed"
	"main/internal/journal"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/portfolio"
	"main/internal/risk"
	"main/internal/trader"
)

var protective = risk.NewManager()

// event is one line of the replay file: a price tick or a signal.
type event struct {
	Kind   string          `json:"kind"`
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Signal *model.Signal   `json:"signal"`
}

func main() {
	inputPath := flag.String("input", "testdata/events.jsonl", "Replay event file (JSONL)")
	configPath := flag.String("config", "", "Path to JSON config")
	journalPath := flag.String("journal", "", "Fill journal output (empty=disable)")
	flag.Parse()

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	input, err := os.Open(*inputPath)
	if err != nil {
		log.Fatalf("open input failed: %v", err)
	}
	defer input.Close()

	ledgerCfg := portfolio.Config{
		InitialCash: loaded.InitialCash,
		Metrics:     obs.NewMetrics(),
	}
	if *journalPath != "" {
		writer, err := journalWriter(*journalPath)
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
		defer writer.Close()
		ledgerCfg.Journal = writer
	}
	ledger := portfolio.NewManager(ledgerCfg)

	prices := feed.NewStatic(nil)

	var agent *trader.Trader
	exec := executor.NewPaperExecutor(loaded.FeeRate, func(fill model.Fill) {
		agent.OnFill(fill)
	})
	agent = trader.New(trader.Config{Risk: loaded.Risk}, risk.NewManager(), ledger, exec, prices, ledgerCfg.Metrics, nil)

	ctx := context.Background()
	var ticks, signals, failures int

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Fatalf("malformed event line: %v", err)
		}
		switch ev.Kind {
		case "price":
			ticks++
			prices.Set(ev.Symbol, ev.Price)
			ledger.UpdatePrice(ev.Symbol, ev.Price)
			exec.Tick(ev.Symbol, ev.Price)
			checkPosition(ctx, agent, ledger, ev.Symbol, ev.Price)
		case "signal":
			if ev.Signal == nil {
				log.Fatalf("signal event missing signal body")
			}
			signals++
			if err := agent.Process(ctx, *ev.Signal); err != nil {
				failures++
				log.Printf("signal %s failed: %v", ev.Signal.Symbol, err)
			}
		default:
			log.Fatalf("unknown event kind %q", ev.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read input failed: %v", err)
	}

	printReport(ledger, ticks, signals, failures)
}

// loadConfig resolves the file config, falling back to paper-mode
// defaults when no path is given.
func loadConfig(path string) (ops.Loaded, error) {
	if path != "" {
		return ops.Load(path)
	}
	return ops.Resolve(ops.FileConfig{
		Exchange:    "binance",
		Mode:        ops.ModePaper,
		InitialCash: decimal.NewFromInt(10000),
		FeeRate:     decimal.NewFromFloat(0.001),
	})
}

func journalWriter(path string) (*journal.Writer, error) {
	return journal.NewWriter(path)
}

func exitSignal(position model.Position) enum.SignalType {
	if position.Side == enum.PositionSideShort {
		return enum.SignalExitShort
	}
	return enum.SignalExitLong
}

// checkPosition applies the position-level protective checks the live
// monitor loop would run on each price update.
func checkPosition(ctx context.Context, agent *trader.Trader, ledger *portfolio.Manager, symbol string, price decimal.Decimal) {
	position, ok := ledger.Position(symbol)
	if !ok {
		return
	}
	result := protective.CheckPositionRisk(position, price)
	if result.Passed || result.Adjustment == nil || result.Adjustment.Action != risk.ActionClosePosition {
		return
	}
	exitType := exitSignal(position)
	if err := agent.Process(ctx, model.Signal{Symbol: symbol, Type: exitType, SuggestedPrice: price}); err != nil {
		log.Printf("protective close %s failed: %v", symbol, err)
	}
}

func printReport(ledger *portfolio.Manager, ticks, signals, failures int) {
	current := ledger.GetCurrentPortfolio()
	perf := ledger.CalculateMetrics()

	fmt.Printf("events: %d ticks, %d signals (%d failed)\n", ticks, signals, failures)
	fmt.Printf("cash: %s  total value: %s\n", current.Cash, current.TotalValue)
	fmt.Printf("pnl: %s (return %s)\n", current.TotalPnL, current.TotalReturn)
	fmt.Printf("trades: %d closed, win rate %s\n", perf.TotalTrades, perf.WinRate)
	for symbol, position := range current.Positions {
		fmt.Printf("open %s: %s %s @ %s, unrealized %s\n",
			symbol, position.Side, position.Amount, position.EntryPrice, position.UnrealizedPnL())
	}
	for _, closed := range ledger.ClosedPositions() {
		fmt.Printf("closed %s: %s %s @ %s -> %s, realized %s\n",
			closed.Symbol, closed.Side, closed.Amount, closed.EntryPrice, closed.ExitPrice, closed.RealizedPnL)
	}
}
