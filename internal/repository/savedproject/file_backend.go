package savedproject

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// FileBackend keeps the whole record list as one JSON file. MaxBytes
// caps the serialized size; exceeding it is the quota condition.
type FileBackend struct {
	path     string
	maxBytes int64
}

// DefaultMaxBytes roughly matches a browser origin's storage allowance.
const DefaultMaxBytes = 10 << 20

func NewFileBackend(path string, maxBytes int64) *FileBackend {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileBackend{path: path, maxBytes: maxBytes}
}

// Load reads the record list. A missing file is an empty list; a corrupt
// file is cleared and treated as empty.
func (f *FileBackend) Load(ctx context.Context) ([]Record, error) {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("savedproject: read %s: %w", f.path, err)
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		log.Printf("savedproject: corrupt store %s, clearing: %v", f.path, err)
		_ = os.Remove(f.path)
		return nil, nil
	}
	return records, nil
}

func (f *FileBackend) Persist(ctx context.Context, records []Record) error {
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("savedproject: encode records: %w", err)
	}
	if int64(len(b)) > f.maxBytes {
		return fmt.Errorf("%w: %d bytes over a %d byte cap", ErrQuotaExceeded, len(b), f.maxBytes)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("savedproject: mkdir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("savedproject: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileBackend) Close() error { return nil }
