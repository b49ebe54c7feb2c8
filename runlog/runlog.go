// Package runlog records comparison runs in a local SQLite database.
// Writes never propagate errors: a failing log store must not affect
// the run it describes.
package runlog

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// Schema for the run log tables.
const Schema = `
CREATE TABLE IF NOT EXISTS comparison_runs (
	run_id       TEXT PRIMARY KEY,
	base_url     TEXT NOT NULL,
	compare_url  TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER,
	total_cases  INTEGER
);
CREATE TABLE IF NOT EXISTS comparison_cases (
	run_id              TEXT NOT NULL,
	path                TEXT NOT NULL,
	viewport            TEXT NOT NULL,
	status              TEXT NOT NULL,
	mismatched_pixels   INTEGER,
	mismatch_percentage REAL,
	created_at          INTEGER NOT NULL
);
`

// Log writes run events.
type Log struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the run log database at path.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("runlog: ensure schema: %w", err)
	}
	return &Log{db: db, logger: logger}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// StartRun records the beginning of a run and returns its ID.
func (l *Log) StartRun(ctx context.Context, baseURL, compareURL string) string {
	id := newID()
	if l == nil {
		return id
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO comparison_runs (run_id, base_url, compare_url, started_at)
		VALUES (?,?,?,?)`,
		id, baseURL, compareURL, time.Now().Unix())
	if err != nil {
		l.logger.Warn("runlog: start run failed", "error", err)
	}
	return id
}

// RecordCase records one (path, viewport) outcome. Status is
// "compared" or "skipped".
func (l *Log) RecordCase(ctx context.Context, runID, path, viewport, status string, mismatchedPixels int, mismatchPct float64) {
	if l == nil {
		return
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO comparison_cases (run_id, path, viewport, status, mismatched_pixels, mismatch_percentage, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		runID, path, viewport, status, mismatchedPixels, mismatchPct, time.Now().Unix())
	if err != nil {
		l.logger.Warn("runlog: record case failed", "error", err, "path", path)
	}
}

// FinishRun stamps the run's completion and its total emitted cases.
func (l *Log) FinishRun(ctx context.Context, runID string, totalCases int) {
	if l == nil {
		return
	}
	_, err := l.db.ExecContext(ctx, `
		UPDATE comparison_runs SET finished_at = ?, total_cases = ? WHERE run_id = ?`,
		time.Now().Unix(), totalCases, runID)
	if err != nil {
		l.logger.Warn("runlog: finish run failed", "error", err)
	}
}

func newID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	return "run_" + hex.EncodeToString(b[:])
}
