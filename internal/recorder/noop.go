package recorder

import "sync"

// NoopRecorder is an in-memory implementation used when SQLite is not
// configured. Keys survive only for the life of the process.
type NoopRecorder struct {
	mu   sync.Mutex
	keys map[string][]string
}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{keys: map[string][]string{}} }

func (n *NoopRecorder) LastKeys(scan string) ([]string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.keys[scan]...), nil
}

func (n *NoopRecorder) SaveKeys(scan string, keys []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys[scan] = append([]string(nil), keys...)
	return nil
}

func (n *NoopRecorder) RecordRun(_ *ScanRun) error { return nil }
func (n *NoopRecorder) Close() error               { return nil }
