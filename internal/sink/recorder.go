package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/tomeir2105/stockops-final-project/internal/series"
)

// Recorder appends points as JSON lines. It backs the dry-run sink mode and
// lets tests observe exactly what a cycle would have persisted.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewRecorder creates/opens the target file in append mode.
func NewRecorder(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Recorder{file: file, enc: json.NewEncoder(file)}, nil
}

// Write appends every point in the batch as one JSON line each.
func (r *Recorder) Write(_ context.Context, batch []series.Point) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range batch {
		if err := r.enc.Encode(&batch[i]); err != nil {
			return i, err
		}
	}
	return len(batch), nil
}

// Close flushes and closes the file handle.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
