package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"main/internal/executor"
	"main/internal/executor/delegator/binance"
	"main/internal/feed"
	"main/internal/gateway"
	"main/internal/journal"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/portfolio"
	"main/internal/ratelimit"
	"main/internal/risk"
	"main/internal/store"
	"main/internal/trader"
)

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	recoverEnabled := flag.Bool("recover", false, "Rebuild the ledger from snapshot + fill journal")
	snapshotInterval := flag.Duration("snapshot-interval", time.Minute, "Ledger snapshot interval (0=disable)")
	workers := flag.Int("workers", 2, "Signal worker count")
	queueSize := flag.Int("queue-size", 64, "Signal queue capacity")
	pyroscopeAddr := flag.String("pyroscope-addr", "", "Pyroscope server address (empty=disable)")
	flag.Parse()

	if err := run(*configPath, *recoverEnabled, *snapshotInterval, *workers, *queueSize, *pyroscopeAddr); err != nil {
		log.Fatalf("trader: %v", err)
	}
}

func run(configPath string, recoverEnabled bool, snapshotInterval time.Duration, workers, queueSize int, pyroscopeAddr string) error {
	loaded, err := ops.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "trading/agent",
			ServerAddress:   pyroscopeAddr,
			Tags: map[string]string{
				"exchange": loaded.Exchange,
				"mode":     string(loaded.Mode),
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	metrics := obs.NewMetrics()

	var auditStore *store.Store
	if loaded.Store.Enabled {
		auditStore, err = store.Open(store.Option{
			Host:     loaded.Store.Host,
			Port:     loaded.Store.Port,
			User:     loaded.Store.User,
			Password: loaded.Store.Password,
			Database: loaded.Store.Database,
			SSLMode:  loaded.Store.SSLMode,
		})
		if err != nil {
			return err
		}
		defer auditStore.Close()
	}

	var fillJournal portfolio.FillJournal
	if loaded.JournalPath != "" {
		writer, err := journal.NewWriter(loaded.JournalPath)
		if err != nil {
			return err
		}
		defer writer.Close()
		fillJournal = writer
	}

	ledgerCfg := portfolio.Config{
		InitialCash: loaded.InitialCash,
		Journal:     fillJournal,
		Metrics:     metrics,
		Archiver:    auditStore,
	}
	var ledger *portfolio.Manager
	if recoverEnabled {
		ledger, err = portfolio.Recover(portfolio.RecoverConfig{
			SnapshotPath: loaded.SnapshotPath,
			JournalPath:  loaded.JournalPath,
			Ledger:       ledgerCfg,
		})
		if err != nil {
			return err
		}
		logs.Infof("trader: ledger recovered, cash=%s", ledger.GetCurrentPortfolio().Cash)
	} else {
		ledger = portfolio.NewManager(ledgerCfg)
	}

	var prices feed.PriceSource
	if loaded.Feed.RedisAddr != "" {
		prices = feed.NewRedisSource(loaded.Feed.RedisAddr, loaded.Feed.RedisPassword, loaded.Feed.RedisDB)
	} else {
		logs.Warnf("trader: no price feed configured, signals must carry suggested prices")
		prices = feed.NewStatic(nil)
	}

	registry := ratelimit.NewRegistry(loaded.RateLimits)
	caller := gateway.NewCaller(gateway.Config{
		Exchange:   loaded.Exchange,
		Timeout:    loaded.GatewayTimeout,
		MaxRetries: loaded.GatewayRetries,
	}, registry.For(loaded.Exchange), metrics)

	// The executor reports fills to the trader, which is built after
	// the executor; the indirection breaks the cycle.
	var agent *trader.Trader
	onFill := func(fill model.Fill) {
		agent.OnFill(fill)
	}

	var exec executor.Executor
	switch loaded.Mode {
	case ops.ModeLive:
		delegator := binance.NewDelegator(&http.Client{}, loaded.API.Key, loaded.API.Secret, loaded.API.Testnet)
		exec = executor.NewLiveExecutor(caller, delegator, onFill, metrics)
	default:
		exec = executor.NewPaperExecutor(loaded.FeeRate, onFill)
	}

	agent = trader.New(trader.Config{
		Risk:            loaded.Risk,
		Workers:         workers,
		QueueSize:       queueSize,
		MonitorInterval: loaded.MonitorInterval,
	}, risk.NewManager(), ledger, exec, prices, metrics, auditStore)

	logs.Infof("trader: %s mode on %s, initial cash %s", loaded.Mode, loaded.Exchange, loaded.InitialCash)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		agent.Run(ctx)
	}()

	if loaded.SnapshotPath != "" && snapshotInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshotLoop(ctx, ledger, loaded.SnapshotPath, snapshotInterval)
		}()
	}

	readSignals(ctx, os.Stdin, agent)

	stop()
	wg.Wait()

	if loaded.SnapshotPath != "" {
		if err := portfolio.WriteSnapshot(loaded.SnapshotPath, ledger.Snapshot()); err != nil {
			logs.Errorf("trader: final snapshot, err: %+v", err)
		}
	}

	report(ledger, metrics, registry)
	return nil
}

type signalHandler interface {
	Handle(signal model.Signal) error
}

// readSignals consumes JSON signal lines from the producer until EOF
// or shutdown. A malformed line is logged and skipped. Scanning runs
// in its own goroutine so a shutdown signal is not stuck behind a
// blocked read.
func readSignals(ctx context.Context, r io.Reader, agent signalHandler) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logs.Errorf("trader: read signals, err: %+v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if len(line) == 0 {
				continue
			}
			var signal model.Signal
			if err := json.Unmarshal([]byte(line), &signal); err != nil {
				logs.Warnf("trader: malformed signal line, err: %+v", err)
				continue
			}
			if err := agent.Handle(signal); err != nil {
				logs.Warnf("trader: signal %s dropped, err: %+v", signal.Symbol, err)
			}
		}
	}
}

func snapshotLoop(ctx context.Context, ledger *portfolio.Manager, path string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := portfolio.WriteSnapshot(path, ledger.Snapshot()); err != nil {
				logs.Errorf("trader: snapshot, err: %+v", err)
			}
		}
	}
}

func report(ledger *portfolio.Manager, metrics *obs.Metrics, registry *ratelimit.Registry) {
	current := ledger.GetCurrentPortfolio()
	perf := ledger.CalculateMetrics()
	snap := metrics.Snapshot()
	logs.Infof("trader: final value %s, pnl %s, trades %d, win rate %s",
		current.TotalValue, current.TotalPnL, perf.TotalTrades, perf.WinRate)
	logs.Infof("trader: orders placed %d, failed %d, canceled %d, fills %d (%d duplicate), gateway retries %d",
		snap.OrdersPlaced, snap.OrdersFailed, snap.OrdersCanceled, snap.FillsApplied, snap.FillsDuplicate, snap.GatewayRetries)
	for exchange, stats := range registry.Stats() {
		logs.Infof("trader: limiter %s requests %d, wait events %d, total wait %s",
			exchange, stats.Requests, stats.WaitEvents, stats.TotalWait)
	}
}
