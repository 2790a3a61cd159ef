package reports

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users will need to delete the history database afterwards.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Report is one completed analysis keyed by artifact file name.
type Report struct {
	File        string
	PatientName string
	PatientID   string
	StudyDate   string
	StudyTime   string
	Protocol    string
	Response    string
	Flagged     bool
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database under dir.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the database to reset)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Save upserts one report keyed by file name.
func (s *Store) Save(ctx context.Context, report Report) error {
	if report.File == "" {
		return errors.New("report file name is empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (file, patient_name, patient_id, study_date, study_time, protocol, response, flagged)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET
			patient_name = excluded.patient_name,
			patient_id = excluded.patient_id,
			study_date = excluded.study_date,
			study_time = excluded.study_time,
			protocol = excluded.protocol,
			response = excluded.response,
			flagged = excluded.flagged`,
		report.File, report.PatientName, report.PatientID, report.StudyDate,
		report.StudyTime, report.Protocol, report.Response, boolToInt(report.Flagged))
	if err != nil {
		return fmt.Errorf("save report %s: %w", report.File, err)
	}
	return nil
}

// Recent returns up to limit reports, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT file, patient_name, patient_id, study_date, study_time, protocol, response, flagged
		FROM history
		ORDER BY created_at DESC, file DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Report
	for rows.Next() {
		var r Report
		var flagged int
		if err := rows.Scan(&r.File, &r.PatientName, &r.PatientID, &r.StudyDate,
			&r.StudyTime, &r.Protocol, &r.Response, &flagged); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.Flagged = flagged != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return out, nil
}

// Get returns one report by artifact file name, or sql.ErrNoRows wrapped
// when it does not exist.
func (s *Store) Get(ctx context.Context, file string) (Report, error) {
	var r Report
	var flagged int
	err := s.db.QueryRowContext(ctx, `
		SELECT file, patient_name, patient_id, study_date, study_time, protocol, response, flagged
		FROM history WHERE file = ?`, file).
		Scan(&r.File, &r.PatientName, &r.PatientID, &r.StudyDate,
			&r.StudyTime, &r.Protocol, &r.Response, &flagged)
	if err != nil {
		return Report{}, fmt.Errorf("get report %s: %w", file, err)
	}
	r.Flagged = flagged != 0
	return r, nil
}

// Count returns the number of stored reports.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM history").Scan(&n); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// SetFlagged marks or clears the flagged bit on one report.
func (s *Store) SetFlagged(ctx context.Context, file string, flagged bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE history SET flagged = ? WHERE file = ?",
		boolToInt(flagged), file)
	if err != nil {
		return fmt.Errorf("flag report %s: %w", file, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("flag report %s: %w", file, err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s not found", file)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
