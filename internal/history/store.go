package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS query_runs (
	run_id            TEXT PRIMARY KEY,
	query             TEXT NOT NULL,
	evidence_json     TEXT NOT NULL,
	order_json        TEXT NOT NULL,
	planner           TEXT NOT NULL,
	distribution_json TEXT,
	error_kind        TEXT,
	error_text        TEXT,
	created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS query_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	trigger_type  TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES query_runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON query_runs(created_at);
`

// timeLayout keeps fixed-width fractions so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion schema

// #region store-struct
// Store keeps an audit trail of query runs in SQLite. It is never read to
// answer a query.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region from-result
// FromResult builds a Run from an engine result or error.
func FromResult(query string, evidence inference.Evidence, planner string, res inference.Result, err error) Run {
	run := Run{
		Query:    query,
		Evidence: evidence,
		Planner:  planner,
	}
	if err != nil {
		run.ErrorKind = inference.ErrorKind(err)
		run.ErrorText = err.Error()
		return run
	}
	run.Order = res.Order
	run.Distribution = res.Distribution
	return run
}

// #endregion from-result

// #region record-run
// RecordRun inserts a run, assigning a RunID and CreatedAt when unset.
func (s *Store) RecordRun(run Run) (Run, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Evidence == nil {
		run.Evidence = inference.Evidence{}
	}
	if run.Order == nil {
		run.Order = []string{}
	}

	evJSON, err := json.Marshal(run.Evidence)
	if err != nil {
		return Run{}, fmt.Errorf("marshal evidence: %w", err)
	}
	orderJSON, err := json.Marshal(run.Order)
	if err != nil {
		return Run{}, fmt.Errorf("marshal order: %w", err)
	}
	var distPtr interface{}
	if run.Distribution != nil {
		b, err := json.Marshal(run.Distribution)
		if err != nil {
			return Run{}, fmt.Errorf("marshal distribution: %w", err)
		}
		distPtr = string(b)
	}

	_, err = s.db.Exec(
		`INSERT INTO query_runs (run_id, query, evidence_json, order_json, planner, distribution_json, error_kind, error_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Query, string(evJSON), string(orderJSON), run.Planner, distPtr,
		nullIfEmpty(run.ErrorKind), nullIfEmpty(run.ErrorText),
		run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// #endregion record-run

// #region get-run
// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, query, evidence_json, order_json, planner, distribution_json, error_kind, error_text, created_at
		 FROM query_runs WHERE run_id = ?`, id,
	)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// GetRunWithLog retrieves a run and its latest log row, if any.
func (s *Store) GetRunWithLog(id string) (RunWithLog, error) {
	run, err := s.GetRun(id)
	if err != nil {
		return RunWithLog{}, err
	}
	out := RunWithLog{Run: run}
	var reason sql.NullString
	err = s.db.QueryRow(
		`SELECT trigger_type, outcome, reason FROM query_log
		 WHERE run_id = ? ORDER BY id DESC LIMIT 1`, id,
	).Scan(&out.TriggerType, &out.Outcome, &reason)
	if err != nil && err != sql.ErrNoRows {
		return RunWithLog{}, fmt.Errorf("get log for %s: %w", id, err)
	}
	out.Reason = reason.String
	return out, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, query, evidence_json, order_json, planner, distribution_json, error_kind, error_text, created_at
		 FROM query_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListRunsWithLog returns the most recent runs joined with their latest log row.
func (s *Store) ListRunsWithLog(limit int) ([]RunWithLog, error) {
	runs, err := s.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunWithLog, 0, len(runs))
	for _, r := range runs {
		rl, err := s.GetRunWithLog(r.RunID)
		if err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	return out, nil
}

// #endregion list-runs

// #region scan
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var evJSON, orderJSON, createdStr string
	var distJSON, errKind, errText sql.NullString

	if err := sc.Scan(&run.RunID, &run.Query, &evJSON, &orderJSON, &run.Planner,
		&distJSON, &errKind, &errText, &createdStr); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(evJSON), &run.Evidence); err != nil {
		return Run{}, fmt.Errorf("unmarshal evidence: %w", err)
	}
	if err := json.Unmarshal([]byte(orderJSON), &run.Order); err != nil {
		return Run{}, fmt.Errorf("unmarshal order: %w", err)
	}
	if distJSON.Valid {
		if err := json.Unmarshal([]byte(distJSON.String), &run.Distribution); err != nil {
			return Run{}, fmt.Errorf("unmarshal distribution: %w", err)
		}
	}
	run.ErrorKind = errKind.String
	run.ErrorText = errText.String
	run.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return run, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion scan
