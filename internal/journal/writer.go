package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"main/internal/model"
)

// Writer appends fills to a JSONL journal, one record per line. The
// journal is the replay source for ledger recovery; records are never
// rewritten.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewWriter opens (or creates) the journal at path for appending.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Append writes one fill record.
func (w *Writer) Append(fill model.Fill) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(fill)
}

// Sync flushes the journal to stable storage.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// Close syncs and closes the journal file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
