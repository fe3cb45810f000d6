package portfolio

import (
	"path/filepath"
	"testing"

	"main/internal/journal"
)

func TestRecoverFromJournalOnly(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "fills.jsonl")

	{ // live session writes fills through the journal
		writer, err := journal.NewWriter(journalPath)
		if err != nil {
			t.Fatalf("journal open, err: %+v", err)
		}
		m := NewManager(Config{InitialCash: d("10000"), Journal: writer})
		mustApply(t, m, buy("t1", "BTCUSDT", "20000", "0.3"))
		mustApply(t, m, buy("t2", "BTCUSDT", "20500", "0.1"))
		mustApply(t, m, sell("t3", "BTCUSDT", "21000", "0.1"))
		if err := writer.Close(); err != nil {
			t.Fatalf("journal close, err: %+v", err)
		}
	}

	recovered, err := Recover(RecoverConfig{
		JournalPath: journalPath,
		Ledger:      Config{InitialCash: d("10000")},
	})
	if err != nil {
		t.Fatalf("recover, err: %+v", err)
	}

	pos, ok := recovered.Position("BTCUSDT")
	if !ok {
		t.Fatal("recovered ledger should hold the position")
	}
	if !pos.Amount.Equal(d("0.3")) || !pos.EntryPrice.Equal(d("20125")) {
		t.Fatalf("recovered position = %s @ %s, want 0.3 @ 20125", pos.Amount, pos.EntryPrice)
	}
	if got := recovered.CalculateMetrics().RealizedPnL; !got.Equal(d("87.5")) {
		t.Fatalf("recovered realized = %s, want 87.5", got)
	}
}

func TestRecoverSnapshotPlusJournalTail(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "fills.jsonl")
	snapshotPath := filepath.Join(dir, "ledger.json")

	writer, err := journal.NewWriter(journalPath)
	if err != nil {
		t.Fatalf("journal open, err: %+v", err)
	}
	m := NewManager(Config{InitialCash: d("10000"), Journal: writer})
	mustApply(t, m, buy("t1", "BTCUSDT", "20000", "0.4"))

	// Snapshot mid-session, then keep trading.
	if err := WriteSnapshot(snapshotPath, m.Snapshot()); err != nil {
		t.Fatalf("write snapshot, err: %+v", err)
	}
	mustApply(t, m, sell("t2", "BTCUSDT", "21000", "0.4"))
	if err := writer.Close(); err != nil {
		t.Fatalf("journal close, err: %+v", err)
	}

	recovered, err := Recover(RecoverConfig{
		SnapshotPath: snapshotPath,
		JournalPath:  journalPath,
		Ledger:       Config{InitialCash: d("10000")},
	})
	if err != nil {
		t.Fatalf("recover, err: %+v", err)
	}

	// t1 overlaps the snapshot and replays as a no-op; t2 applies.
	if err := CompareSnapshots(m.Snapshot(), recovered.Snapshot()); err != nil {
		t.Fatalf("recovered ledger diverged: %+v", err)
	}
	if _, ok := recovered.Position("BTCUSDT"); ok {
		t.Fatal("position should be closed after tail replay")
	}
	if got := recovered.GetCurrentPortfolio().Cash; !got.Equal(d("10400")) {
		t.Fatalf("cash = %s, want 10400", got)
	}
}

func TestRecoverMissingArtifacts(t *testing.T) {
	dir := t.TempDir()

	recovered, err := Recover(RecoverConfig{
		SnapshotPath: filepath.Join(dir, "absent.json"),
		JournalPath:  filepath.Join(dir, "absent.jsonl"),
		Ledger:       Config{InitialCash: d("5000")},
	})
	if err != nil {
		t.Fatalf("recover with nothing on disk, err: %+v", err)
	}
	if got := recovered.GetCurrentPortfolio().Cash; !got.Equal(d("5000")) {
		t.Fatalf("cash = %s, want initial 5000", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")

	m := NewManager(Config{InitialCash: d("10000")})
	mustApply(t, m, buy("t1", "BTCUSDT", "20000", "0.2"))
	mustApply(t, m, sell("t2", "BTCUSDT", "19000", "0.1"))

	if err := WriteSnapshot(path, m.Snapshot()); err != nil {
		t.Fatalf("write, err: %+v", err)
	}
	loaded, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read, err: %+v", err)
	}
	if err := CompareSnapshots(m.Snapshot(), loaded); err != nil {
		t.Fatalf("round trip diverged: %+v", err)
	}
	if len(loaded.AppliedTrades) != 2 {
		t.Fatalf("applied trades = %d, want 2", len(loaded.AppliedTrades))
	}
}
