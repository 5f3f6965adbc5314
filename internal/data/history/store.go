// Package history persists one summary row per analysis run so
// consecutive runs over the same tree can be compared.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSnapshot(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.RunID == "" {
		return fmt.Errorf("snapshot run id must not be empty")
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO runs (schema_version, run_id, ts_utc, unit_count, skipped_count, finding_count)
 VALUES (?, ?, ?, ?, ?, ?)`,
		snapshot.SchemaVersion,
		snapshot.RunID,
		snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
		snapshot.UnitCount,
		snapshot.SkippedCount,
		snapshot.FindingCount,
	)
	if err != nil {
		return fmt.Errorf("insert run %q: %w", snapshot.RunID, err)
	}

	names := make([]string, 0, len(snapshot.ByRule))
	for rule := range snapshot.ByRule {
		names = append(names, rule)
	}
	sort.Strings(names)
	for _, rule := range names {
		if _, err := tx.Exec(
			`INSERT INTO run_rules (run_id, rule, findings) VALUES (?, ?, ?)`,
			snapshot.RunID, rule, snapshot.ByRule[rule],
		); err != nil {
			return fmt.Errorf("insert run rule %q/%q: %w", snapshot.RunID, rule, err)
		}
	}

	return tx.Commit()
}

// Recent returns the latest snapshots, newest first.
func (s *Store) Recent(limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT schema_version, run_id, ts_utc, unit_count, skipped_count, finding_count
 FROM runs ORDER BY ts_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ts string
		if err := rows.Scan(&snap.SchemaVersion, &snap.RunID, &ts, &snap.UnitCount, &snap.SkippedCount, &snap.FindingCount); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			snap.Timestamp = parsed
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range snapshots {
		byRule, err := s.rulesForRun(snapshots[i].RunID)
		if err != nil {
			return nil, err
		}
		snapshots[i].ByRule = byRule
	}
	return snapshots, nil
}

func (s *Store) rulesForRun(runID string) (map[string]int, error) {
	rows, err := s.db.Query(`SELECT rule, findings FROM run_rules WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRule := make(map[string]int)
	for rows.Next() {
		var rule string
		var findings int
		if err := rows.Scan(&rule, &findings); err != nil {
			return nil, err
		}
		byRule[rule] = findings
	}
	return byRule, rows.Err()
}
