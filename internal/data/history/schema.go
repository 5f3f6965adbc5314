package history

import (
	"database/sql"
	"time"
)

const SchemaVersion = 1

// Snapshot is one persisted analysis run summary.
type Snapshot struct {
	SchemaVersion int
	RunID         string
	Timestamp     time.Time
	UnitCount     int
	SkippedCount  int
	FindingCount  int
	ByRule        map[string]int
}

func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  schema_version INTEGER NOT NULL,
  run_id TEXT NOT NULL UNIQUE,
  ts_utc TEXT NOT NULL,
  unit_count INTEGER NOT NULL,
  skipped_count INTEGER NOT NULL,
  finding_count INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS run_rules (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  rule TEXT NOT NULL,
  findings INTEGER NOT NULL,
  PRIMARY KEY (run_id, rule)
)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts_utc)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
