package recorder

import "time"

// ScanRun is one execution of an alert scan.
type ScanRun struct {
	Scan      string // "market" or "etf"
	BatchID   string
	StartedAt time.Time
	Symbols   int
	Matched   int // recommendations that passed the alert filter
	Alerted   int // matched keys not seen in the previous run
	Synthetic int
	Error     string
}

// Recorder persists alert bookkeeping between scans. It never stores bars.
type Recorder interface {
	// LastKeys returns the alert keys saved by the previous run of scan.
	LastKeys(scan string) ([]string, error)
	// SaveKeys replaces the stored keys of scan.
	SaveKeys(scan string, keys []string) error
	RecordRun(run *ScanRun) error
	Close() error
}
