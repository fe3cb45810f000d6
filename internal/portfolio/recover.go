package portfolio

import (
	"os"

	"main/internal/journal"
	"main/internal/model"
)

// RecoverConfig locates the durable ledger artifacts.
type RecoverConfig struct {
	SnapshotPath string
	JournalPath  string
	Ledger       Config
}

// Recover rebuilds a Manager from the last snapshot plus the journal
// tail. Fills already recorded in the snapshot are skipped by trade
// id, so replaying an overlapping journal cannot double-count.
func Recover(cfg RecoverConfig) (*Manager, error) {
	m := NewManager(cfg.Ledger)

	if cfg.SnapshotPath != "" {
		snap, err := ReadSnapshot(cfg.SnapshotPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else {
			m.restore(snap)
		}
	}

	if cfg.JournalPath != "" {
		err := journal.Replay(cfg.JournalPath, func(fill model.Fill) error {
			_, err := m.replayFill(fill)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Manager) restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cash = snap.Cash
	if !snap.InitialCash.IsZero() {
		m.initialCash = snap.InitialCash
	}
	m.realized = snap.Realized
	if !snap.DayStartValue.IsZero() {
		m.dayStartValue = snap.DayStartValue
	}
	if !snap.PeakValue.IsZero() {
		m.peakValue = snap.PeakValue
	}

	m.positions = make(map[string]*model.Position, len(snap.Positions))
	for _, pos := range snap.Positions {
		stored := pos
		m.positions[pos.Symbol] = &stored
	}
	m.closed = append(m.closed[:0], snap.Closed...)
	m.applied = make(map[string]struct{}, len(snap.AppliedTrades))
	for _, id := range snap.AppliedTrades {
		m.applied[id] = struct{}{}
	}
}

// replayFill applies a journaled fill without re-journaling it.
func (m *Manager) replayFill(fill model.Fill) (bool, error) {
	saved := m.journal
	m.journal = nil
	applied, err := m.ApplyFill(fill)
	m.journal = saved
	return applied, err
}
