// Package journal keeps an append-only SQLite log of compressed files.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// Entry describes one successful compression
type Entry struct {
	Path       string
	InputSize  int
	OutputSize int
	Digest     string
	Count      int
	CreatedAt  time.Time
}

// Summary aggregates journal entries
type Summary struct {
	Files       int
	InputBytes  int64
	OutputBytes int64
}

// Saved returns number of bytes saved
func (s Summary) Saved() int64 {
	return s.InputBytes - s.OutputBytes
}

// Journal wraps *sql.DB with helpers.
type Journal struct{ sql *sql.DB }

// Open opens or creates the journal database and ensures its schema.
func Open(ctx context.Context, path string) (*Journal, error) {
	dsn := ensurePragmas(fileDSN(path), 5000)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// single writer, pipelines record concurrently
	sqldb.SetMaxOpenConns(1)
	j := &Journal{sql: sqldb}
	if err = j.ensureSchema(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS compression (
            id INTEGER PRIMARY KEY,
            path TEXT NOT NULL,
            input_size INTEGER NOT NULL,
            output_size INTEGER NOT NULL,
            digest TEXT NOT NULL,
            count INTEGER NOT NULL,
            created_at DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_compression_path ON compression(path);`,
	}
	tx, err := j.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Record appends an entry
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	_, err := j.sql.ExecContext(ctx, `INSERT INTO compression(path, input_size, output_size, digest, count, created_at) VALUES(?,?,?,?,?,?)`,
		entry.Path, entry.InputSize, entry.OutputSize, entry.Digest, entry.Count, entry.CreatedAt.UTC())
	return err
}

// Entries returns entries recorded for path, newest first
func (j *Journal) Entries(ctx context.Context, path string) ([]Entry, error) {
	rows, err := j.sql.QueryContext(ctx, `SELECT path, input_size, output_size, digest, count, created_at FROM compression WHERE path = ? ORDER BY id DESC`, path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Path, &entry.InputSize, &entry.OutputSize, &entry.Digest, &entry.Count, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// Summary returns totals over all entries
func (j *Journal) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := j.sql.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(input_size), 0), COALESCE(SUM(output_size), 0) FROM compression`).
		Scan(&s.Files, &s.InputBytes, &s.OutputBytes)
	return s, err
}

// Close releases the database
func (j *Journal) Close() error {
	return j.sql.Close()
}

// fileDSN returns sqlite URI filename, query and fragment characters in path are escaped
func fileDSN(path string) string {
	return "file:" + (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
}

// ensurePragmas appends busy timeout and WAL pragmas to the DSN when missing.
func ensurePragmas(dsn string, busyTimeoutMS int) string {
	lower := strings.ToLower(dsn)
	if !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}
