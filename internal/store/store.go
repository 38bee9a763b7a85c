// Package store keeps local sync state in sqlite: run records, per-table
// sync history, run logs and the learned sync rate.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sheetsync/internal/model"
)

type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the local store at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			spreadsheet_id TEXT,
			sheet_name TEXT,
			target_table TEXT,
			status TEXT,
			processed INTEGER DEFAULT 0,
			inserted INTEGER DEFAULT 0,
			updated INTEGER DEFAULT 0,
			errors INTEGER DEFAULT 0,
			message TEXT,
			started_at DATETIME,
			finished_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS sync_history (
			target_table TEXT NOT NULL,
			spreadsheet_id TEXT NOT NULL,
			last_sync_time DATETIME,
			PRIMARY KEY (target_table, spreadsheet_id)
		)`,
		`CREATE TABLE IF NOT EXISTS run_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			tag TEXT,
			message TEXT,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate store: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CreateRun records the start of a sync run.
func (s *Store) CreateRun(run model.SyncRun) error {
	_, err := s.db.Exec(
		`INSERT INTO sync_runs (id, spreadsheet_id, sheet_name, target_table, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.SpreadsheetID, run.SheetName, run.TargetTable, run.Status, run.StartedAt,
	)
	return err
}

// FinishRun records the terminal state and counts of a run.
func (s *Store) FinishRun(run model.SyncRun) error {
	_, err := s.db.Exec(
		`UPDATE sync_runs
		 SET status = ?, processed = ?, inserted = ?, updated = ?, errors = ?, message = ?, finished_at = ?
		 WHERE id = ?`,
		run.Status, run.Processed, run.Inserted, run.Updated, run.Errors, run.Message, run.FinishedAt, run.ID,
	)
	return err
}

func scanRun(scan func(dest ...interface{}) error) (model.SyncRun, error) {
	var run model.SyncRun
	var message sql.NullString
	var finished sql.NullTime
	err := scan(
		&run.ID, &run.SpreadsheetID, &run.SheetName, &run.TargetTable, &run.Status,
		&run.Processed, &run.Inserted, &run.Updated, &run.Errors, &message,
		&run.StartedAt, &finished,
	)
	if err != nil {
		return run, err
	}
	run.Message = message.String
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return run, nil
}

const runColumns = `id, spreadsheet_id, sheet_name, target_table, status,
	processed, inserted, updated, errors, message, started_at, finished_at`

// GetRun fetches one run by ID.
func (s *Store) GetRun(id string) (model.SyncRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM sync_runs WHERE id = ?`, id)
	return scanRun(row.Scan)
}

// ListRuns returns recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]model.SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.SyncRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AppendLog stores one tagged log line for a run.
func (s *Store) AppendLog(runID, tag, message string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_logs (run_id, tag, message, created_at) VALUES (?, ?, ?, ?)`,
		runID, tag, message, time.Now().UTC(),
	)
	return err
}

// RunLog is one stored log line.
type RunLog struct {
	Tag       string    `json:"tag"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetLogs returns a run's log lines in append order.
func (s *Store) GetLogs(runID string, limit int) ([]RunLog, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.Query(
		`SELECT tag, message, created_at FROM run_logs WHERE run_id = ? ORDER BY id LIMIT ?`,
		runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []RunLog
	for rows.Next() {
		var l RunLog
		if err := rows.Scan(&l.Tag, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// LastSyncTime returns the recorded last successful sync for a table and
// spreadsheet, or zero time when none is recorded.
func (s *Store) LastSyncTime(table, spreadsheetID string) (time.Time, error) {
	var t sql.NullTime
	err := s.db.QueryRow(
		`SELECT last_sync_time FROM sync_history WHERE target_table = ? AND spreadsheet_id = ?`,
		table, spreadsheetID,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if !t.Valid {
		return time.Time{}, nil
	}
	return t.Time, nil
}

// SetLastSyncTime upserts the last successful sync marker.
func (s *Store) SetLastSyncTime(table, spreadsheetID string, at time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO sync_history (target_table, spreadsheet_id, last_sync_time) VALUES (?, ?, ?)
		 ON CONFLICT (target_table, spreadsheet_id) DO UPDATE SET last_sync_time = excluded.last_sync_time`,
		table, spreadsheetID, at,
	)
	return err
}

const rateKey = "sync_ms_per_row"

// LearnedRate returns the persisted ms-per-row estimate. A missing or
// malformed value yields fallback.
func (s *Store) LearnedRate(fallback float64) float64 {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, rateKey).Scan(&value)
	if err != nil {
		return fallback
	}
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("store: ignoring malformed learned rate %q: %v", value, err)
		return fallback
	}
	return rate
}

// SetLearnedRate persists the ms-per-row estimate for the next run.
func (s *Store) SetLearnedRate(rate float64) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		rateKey, strconv.FormatFloat(rate, 'f', -1, 64),
	)
	return err
}
