package logging

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE query_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		outcome      TEXT NOT NULL,
		reason       TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-query-tests
func TestLogQuery_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := QueryEntry{
		RunID:       "run-1",
		TriggerType: TriggerCLI,
		Outcome:     OutcomeOK,
		Reason:      "all checks passed",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogQuery(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM query_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var runID, outcome string
	db.QueryRow("SELECT run_id, outcome FROM query_log").Scan(&runID, &outcome)
	if runID != "run-1" {
		t.Errorf("expected run_id 'run-1', got %q", runID)
	}
	if outcome != "ok" {
		t.Errorf("expected outcome 'ok', got %q", outcome)
	}
}

func TestLogQuery_Defaults(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	err := LogQuery(db, QueryEntry{RunID: "run-2", TriggerType: TriggerRPC})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr, outcome string
	var reason sql.NullString
	db.QueryRow("SELECT created_at, outcome, reason FROM query_log").Scan(&createdAtStr, &outcome, &reason)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
	if outcome != OutcomeOK {
		t.Errorf("expected default outcome ok, got %q", outcome)
	}
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
}

func TestLogQuery_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	err := LogQuery(db, QueryEntry{RunID: "run-3", TriggerType: TriggerReplay})
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-query-tests

// #region console-tests
func TestNewConsoleLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewConsoleLogger(&buf, "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("shown", "query", "B")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "query=B") {
		t.Errorf("expected warn line with key/value, got %q", out)
	}
}

func TestNewConsoleLogger_BadLevel(t *testing.T) {
	if _, err := NewConsoleLogger(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

// #endregion console-tests

// #region null-if-empty-tests
func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("expected nil for empty string")
	}
	if nullIfEmpty("x") != "x" {
		t.Error("expected passthrough for non-empty string")
	}
}

// #endregion null-if-empty-tests
