package history

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zqshi/metricstd/internal/consistency"
	"github.com/zqshi/metricstd/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating when needed) a report database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "failed to create history directory").
				WithContext("path", dbPath).Build()
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "open sqlite database").
			WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.WrapError(err, errors.CategoryStorage, "initialize schema").
			WithContext("path", dbPath).Build()
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		generated_at INTEGER NOT NULL,
		total_issues INTEGER NOT NULL,
		highest_severity TEXT,
		auto_fixable INTEGER NOT NULL,
		files_scanned INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_root ON reports(root);
	CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores a report, replacing any report with the same id.
func (s *SQLiteStore) Save(ctx context.Context, report *consistency.Report) error {
	if report == nil || report.ID == "" {
		return errors.ValidationError("report without id cannot be stored").Build()
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	e := entryFor(report)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports
		 (id, root, generated_at, total_issues, highest_severity, auto_fixable, files_scanned, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Root, e.GeneratedAt.UnixNano(), e.TotalIssues, e.HighestSeverity, e.AutoFixable, e.FilesScanned, payload,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "insert report").
			WithContext("report_id", e.ID).Build()
	}
	return nil
}

// List returns the newest entries first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, root, generated_at, total_issues, highest_severity, auto_fixable, files_scanned
		FROM reports ORDER BY generated_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query reports").Build()
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			generated int64
			highest   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Root, &generated, &e.TotalIssues, &highest, &e.AutoFixable, &e.FilesScanned); err != nil {
			return nil, fmt.Errorf("scan report entry: %w", err)
		}
		e.GeneratedAt = time.Unix(0, generated).UTC()
		e.HighestSeverity = highest.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Get returns the full report with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*consistency.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, err := s.loadOne(ctx, "SELECT payload FROM reports WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errors.NotFoundError("report not found").WithContext("report_id", id).Build()
	}
	return report, nil
}

// Latest returns the newest report for root, or nil when none exists.
func (s *SQLiteStore) Latest(ctx context.Context, root string) (*consistency.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadOne(ctx,
		"SELECT payload FROM reports WHERE root = ? ORDER BY generated_at DESC, id LIMIT 1", root)
}

func (s *SQLiteStore) loadOne(ctx context.Context, query string, arg any) (*consistency.Report, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query report").Build()
	}

	var report consistency.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
