package runlog

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLog_RunLifecycle(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	runID := l.StartRun(ctx, "https://base.example", "https://cmp.example")
	if runID == "" {
		t.Fatal("empty run ID")
	}
	l.RecordCase(ctx, runID, "/", "1366x768", "compared", 12, 0.0034)
	l.RecordCase(ctx, runID, "/about", "1366x768", "skipped", 0, 0)
	l.FinishRun(ctx, runID, 1)

	var total int
	err := l.db.QueryRowContext(ctx,
		`SELECT total_cases FROM comparison_runs WHERE run_id = ?`, runID).Scan(&total)
	if err != nil {
		t.Fatalf("query run: %v", err)
	}
	if total != 1 {
		t.Errorf("total_cases = %d, want 1", total)
	}

	var cases int
	err = l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comparison_cases WHERE run_id = ?`, runID).Scan(&cases)
	if err != nil {
		t.Fatalf("query cases: %v", err)
	}
	if cases != 2 {
		t.Errorf("cases = %d, want 2", cases)
	}
}

func TestLog_NilLogIsSafe(t *testing.T) {
	// WHAT: A nil *Log accepts every call and does nothing.
	// WHY: The run log is optional; callers should not have to branch.
	var l *Log
	ctx := context.Background()
	runID := l.StartRun(ctx, "a", "b")
	if runID == "" {
		t.Error("nil log should still mint run IDs")
	}
	l.RecordCase(ctx, runID, "/", "1x1", "compared", 0, 0)
	l.FinishRun(ctx, runID, 0)
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
