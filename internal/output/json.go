package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// JSONOutput writes newline-delimited rows, one file per partition.
type JSONOutput struct {
	store store
	mu    sync.Mutex
	files map[string]io.WriteCloser
}

func NewJSONOutput(st store) *JSONOutput {
	return &JSONOutput{store: st, files: make(map[string]io.WriteCloser)}
}

func (j *JSONOutput) WriteRanking(r Ranking) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	key := r.Topic + "/" + r.PartitionPath() + "/data.json"
	f, ok := j.files[key]
	if !ok {
		var err error
		if f, err = j.store.Create(key); err != nil {
			return fmt.Errorf("failed to create %s: %w", key, err)
		}
		j.files[key] = f
	}

	enc := json.NewEncoder(f)
	for _, row := range r.Rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", key, err)
		}
	}
	return nil
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	var lastErr error
	for _, f := range j.files {
		if err := f.Close(); err != nil {
			lastErr = err
		}
	}
	j.files = make(map[string]io.WriteCloser)
	return lastErr
}
