package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists alert state to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read run history while the alert daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.Named("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alert_keys (
			scan       TEXT NOT NULL,
			key        TEXT NOT NULL,
			saved_at   INTEGER NOT NULL,
			PRIMARY KEY (scan, key)
		)`,

		`CREATE TABLE IF NOT EXISTS scan_runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			scan       TEXT NOT NULL,
			batch_id   TEXT,
			symbols    INTEGER,
			matched    INTEGER,
			alerted    INTEGER,
			synthetic  INTEGER,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_ts ON scan_runs(scan, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) LastKeys(scan string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT key FROM alert_keys WHERE scan = ? ORDER BY key`, scan)
	if err != nil {
		return nil, fmt.Errorf("query alert keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan alert key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *SQLiteRecorder) SaveKeys(scan string, keys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM alert_keys WHERE scan = ?`, scan); err != nil {
		return fmt.Errorf("clear alert keys: %w", err)
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	now := time.Now().Unix()
	for _, k := range sorted {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO alert_keys (scan, key, saved_at) VALUES (?,?,?)`, scan, k, now); err != nil {
			return fmt.Errorf("insert alert key: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordRun(run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := run.StartedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO scan_runs
		(timestamp, scan, batch_id, symbols, matched, alerted, synthetic, error)
		VALUES (?,?,?,?,?,?,?,?)`,
		ts.Unix(), run.Scan, run.BatchID, run.Symbols,
		run.Matched, run.Alerted, run.Synthetic, run.Error,
	)
	return err
}

// RecentRuns returns up to limit runs of scan, newest first.
func (r *SQLiteRecorder) RecentRuns(scan string, limit int) ([]ScanRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, scan, batch_id, symbols, matched, alerted, synthetic, error
		FROM scan_runs WHERE scan = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, scan, limit)
	if err != nil {
		return nil, fmt.Errorf("query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var (
			run ScanRun
			ts  int64
		)
		if err := rows.Scan(&ts, &run.Scan, &run.BatchID, &run.Symbols,
			&run.Matched, &run.Alerted, &run.Synthetic, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.StartedAt = time.Unix(ts, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
