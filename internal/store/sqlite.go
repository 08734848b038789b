package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/netspider/internal/model"
)

// DatabaseFile is the SQLite file name inside the state directory.
const DatabaseFile = "netspider.db"

// SQLiteStore keeps documents and run history in a single SQLite file.
//
// Design decision: A checkpoint is one SQL transaction covering every
// document it saves, so the frontier and visited sets on disk always come
// from the same iteration. This is stronger than the per-file guarantee
// of JSONStore and is why SQLite is the default backend.
type SQLiteStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// SQLiteOptions configures SQLiteStore behavior.
type SQLiteOptions struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultSQLiteOptions returns the default database options.
func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenSQLite opens or creates the state database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func OpenSQLite(dbDir string, opts SQLiteOptions) (*SQLiteStore, error) {
	if dbDir == "" {
		return nil, errors.New("sqlite store requires a state directory")
	}
	dbPath := filepath.Join(dbDir, DatabaseFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create a new file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer and the crawler is single-threaded.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: failed to enable WAL mode: %w", ErrCorruptDocument, err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to create tables: %w", ErrCorruptDocument, err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *SQLiteStore) createTables() error {
	schema := `
	-- One row per known document, so empty documents are distinguishable
	-- from documents that were never initialized
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Document entries; position preserves frontier order
	CREATE TABLE IF NOT EXISTS entries (
		document TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (document, id)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_position ON entries(document, position);

	-- Run history for the status command
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		visited INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Load returns the named document, registering it if it does not exist.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*model.Batch, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return nil, fmt.Errorf("failed to initialize document %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label FROM entries WHERE document = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("%w: document %q: %w", ErrCorruptDocument, name, err)
	}
	defer rows.Close()

	batch := model.NewBatch()
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("%w: document %q: %w", ErrCorruptDocument, name, err)
		}
		batch.Add(id, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: document %q: %w", ErrCorruptDocument, name, err)
	}

	return batch, nil
}

// Save overwrites the named document in its own transaction.
func (s *SQLiteStore) Save(ctx context.Context, name string, batch *model.Batch) error {
	return s.Checkpoint(ctx, Document{Name: name, Batch: batch})
}

// Checkpoint overwrites all given documents in a single transaction.
func (s *SQLiteStore) Checkpoint(ctx context.Context, docs ...Document) (err error) {
	for _, doc := range docs {
		if err := validateName(doc.Name); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback() //nolint:errcheck // Original error takes precedence
		}
	}()

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (document, position, id, label) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare checkpoint: %w", err)
	}
	defer insert.Close()

	for _, doc := range docs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO documents (name, updated_at) VALUES (?, CURRENT_TIMESTAMP)
			ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, doc.Name); err != nil {
			return fmt.Errorf("failed to save document %q: %w", doc.Name, err)
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE document = ?`, doc.Name); err != nil {
			return fmt.Errorf("failed to save document %q: %w", doc.Name, err)
		}
		for i, e := range doc.Batch.Entries() {
			if _, err = insert.ExecContext(ctx, doc.Name, i, e.ID, e.Label); err != nil {
				return fmt.Errorf("failed to save document %q: %w", doc.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// StartRun inserts a new run record.
func (s *SQLiteStore) StartRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO runs (id, started_at, status, visited)
	VALUES (?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Status,
		run.Visited,
	)
	if err != nil {
		return fmt.Errorf("failed to start run record: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE runs SET finished_at = ?, status = ?, visited = ?, error = ?
	WHERE id = ?
	`,
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Status,
		run.Visited,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run record: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of 0 or less
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, started_at, finished_at, status, visited, error
	FROM runs
	ORDER BY started_at DESC
	`
	args := make([]interface{}, 0)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt string
		var finishedAt, errMsg sql.NullString

		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Status, &run.Visited, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(startedAt)
		if finishedAt.Valid {
			run.FinishedAt = parseTimestamp(finishedAt.String)
		}
		run.Error = errMsg.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Written by StartRun/FinishRun
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
