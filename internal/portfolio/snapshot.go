package portfolio

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/model"
)

// Snapshot captures the ledger at a point in time. Together with the
// fill journal written after it, a snapshot is enough to rebuild the
// manager exactly.
type Snapshot struct {
	Timestamp     int64                  `json:"timestamp"`
	Cash          decimal.Decimal        `json:"cash"`
	InitialCash   decimal.Decimal        `json:"initialCash"`
	Realized      decimal.Decimal        `json:"realized"`
	DayStartValue decimal.Decimal        `json:"dayStartValue"`
	PeakValue     decimal.Decimal        `json:"peakValue"`
	Positions     []model.Position       `json:"positions"`
	Closed        []model.ClosedPosition `json:"closed"`
	AppliedTrades []string               `json:"appliedTrades"`
}

// Snapshot builds a snapshot of the current ledger state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	positions := make([]model.Position, 0, len(m.positions))
	for _, pos := range m.positions {
		positions = append(positions, *pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	applied := make([]string, 0, len(m.applied))
	for id := range m.applied {
		applied = append(applied, id)
	}
	sort.Strings(applied)

	closed := make([]model.ClosedPosition, len(m.closed))
	copy(closed, m.closed)

	return Snapshot{
		Timestamp:     time.Now().UTC().UnixNano(),
		Cash:          m.cash,
		InitialCash:   m.initialCash,
		Realized:      m.realized,
		DayStartValue: m.dayStartValue,
		PeakValue:     m.peakValue,
		Positions:     positions,
		Closed:        closed,
		AppliedTrades: applied,
	}
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CompareSnapshots checks that two snapshots describe the same ledger.
func CompareSnapshots(expected, actual Snapshot) error {
	if !expected.Cash.Equal(actual.Cash) {
		return errors.Errorf("snapshot cash mismatch: expected=%s actual=%s", expected.Cash, actual.Cash)
	}
	if !expected.Realized.Equal(actual.Realized) {
		return errors.Errorf("snapshot realized mismatch: expected=%s actual=%s", expected.Realized, actual.Realized)
	}
	if len(expected.Positions) != len(actual.Positions) {
		return errors.Errorf("snapshot position count mismatch: expected=%d actual=%d",
			len(expected.Positions), len(actual.Positions))
	}
	bySymbol := make(map[string]model.Position, len(expected.Positions))
	for _, pos := range expected.Positions {
		bySymbol[pos.Symbol] = pos
	}
	for _, pos := range actual.Positions {
		want, ok := bySymbol[pos.Symbol]
		if !ok {
			return errors.Errorf("snapshot missing symbol: %s", pos.Symbol)
		}
		if want.Side != pos.Side || !want.Amount.Equal(pos.Amount) || !want.EntryPrice.Equal(pos.EntryPrice) {
			return errors.Errorf("snapshot position mismatch for %s: expected=%+v actual=%+v", pos.Symbol, want, pos)
		}
	}
	return nil
}
