package obs

import (
	"sync/atomic"
	"time"

	"main/internal/risk"
)

// Metrics collects lightweight counters and latency stats for the
// execution core. All methods are nil-safe so wiring stays optional.
type Metrics struct {
	riskRejections [risk.ReasonCount]uint64

	ordersPlaced   uint64
	ordersFailed   uint64
	ordersCanceled uint64
	fillsApplied   uint64
	fillsDuplicate uint64

	gatewayRetries  uint64
	gatewayFailures uint64

	orderLatency    LatencyStats
	riskEvalLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	RiskRejections  map[risk.Reason]uint64
	OrdersPlaced    uint64
	OrdersFailed    uint64
	OrdersCanceled  uint64
	FillsApplied    uint64
	FillsDuplicate  uint64
	GatewayRetries  uint64
	GatewayFailures uint64
	OrderLatency    LatencySnapshot
	RiskEvalLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncRiskRejection counts a failed risk check by reason.
func (m *Metrics) IncRiskRejection(reason risk.Reason) {
	if m == nil {
		return
	}
	idx := int(reason)
	if idx >= 0 && idx < len(m.riskRejections) {
		atomic.AddUint64(&m.riskRejections[idx], 1)
	}
}

// IncOrderPlaced counts a successfully submitted order.
func (m *Metrics) IncOrderPlaced() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersPlaced, 1)
}

// IncOrderFailed counts an order attempt that surfaced an error.
func (m *Metrics) IncOrderFailed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersFailed, 1)
}

// IncOrderCanceled counts a cancellation.
func (m *Metrics) IncOrderCanceled() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersCanceled, 1)
}

// IncFillApplied counts a fill applied to the ledger.
func (m *Metrics) IncFillApplied() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.fillsApplied, 1)
}

// IncFillDuplicate counts a fill skipped by idempotency.
func (m *Metrics) IncFillDuplicate() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.fillsDuplicate, 1)
}

// IncGatewayRetry counts a retried gateway attempt.
func (m *Metrics) IncGatewayRetry() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.gatewayRetries, 1)
}

// IncGatewayFailure counts a gateway call exhausted or rejected.
func (m *Metrics) IncGatewayFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.gatewayFailures, 1)
}

// ObserveOrder measures order submission round-trip latency.
func (m *Metrics) ObserveOrder(d time.Duration) {
	if m == nil {
		return
	}
	m.orderLatency.Observe(d)
}

// ObserveRiskEval measures risk evaluation latency.
func (m *Metrics) ObserveRiskEval(d time.Duration) {
	if m == nil {
		return
	}
	m.riskEvalLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	rejections := make(map[risk.Reason]uint64)
	for i := range m.riskRejections {
		if v := atomic.LoadUint64(&m.riskRejections[i]); v > 0 {
			rejections[risk.Reason(i)] = v
		}
	}
	return Snapshot{
		RiskRejections:  rejections,
		OrdersPlaced:    atomic.LoadUint64(&m.ordersPlaced),
		OrdersFailed:    atomic.LoadUint64(&m.ordersFailed),
		OrdersCanceled:  atomic.LoadUint64(&m.ordersCanceled),
		FillsApplied:    atomic.LoadUint64(&m.fillsApplied),
		FillsDuplicate:  atomic.LoadUint64(&m.fillsDuplicate),
		GatewayRetries:  atomic.LoadUint64(&m.gatewayRetries),
		GatewayFailures: atomic.LoadUint64(&m.gatewayFailures),
		OrderLatency:    m.orderLatency.Snapshot(),
		RiskEvalLatency: m.riskEvalLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
