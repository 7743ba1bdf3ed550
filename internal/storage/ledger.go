// Package storage handles the durable pieces of the store that are not
// embeddings: the ingest ledger (SQLite) and the chunk files themselves.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// LedgerFilename is the ledger database name at the store root.
const LedgerFilename = "ledger.db"

// Ledger records which source files have been ingested, keyed by path
// and content hash, so re-adding unchanged files is a cheap no-op.
type Ledger struct {
	db *sql.DB
}

// ProcessedFile is one ledger row.
type ProcessedFile struct {
	Path        string
	SHA256      string
	Domain      string
	BatchID     string
	ProcessedAt time.Time
}

// OpenLedger opens or creates the ledger database under storeDir.
func OpenLedger(storeDir string) (*Ledger, error) {
	if err := os.MkdirAll(storeDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(storeDir, LedgerFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initLedgerSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

func initLedgerSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL,
		domain TEXT NOT NULL,
		batch_id TEXT NOT NULL,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_processed_batch ON processed_files(batch_id);
	CREATE INDEX IF NOT EXISTS idx_processed_domain ON processed_files(domain);
	`
	_, err := db.Exec(schema)
	return err
}

// Seen reports whether path was already ingested with this exact content
// hash. A path recorded under a different hash counts as unseen, so
// changed files are re-ingested.
func (l *Ledger) Seen(ctx context.Context, path, sha256 string) (bool, error) {
	var stored string
	err := l.db.QueryRowContext(ctx,
		`SELECT sha256 FROM processed_files WHERE path = ?`, path,
	).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == sha256, nil
}

// Record upserts the ledger row for path.
func (l *Ledger) Record(ctx context.Context, f ProcessedFile) error {
	if f.ProcessedAt.IsZero() {
		f.ProcessedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO processed_files (path, sha256, domain, batch_id, processed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   sha256 = excluded.sha256,
		   domain = excluded.domain,
		   batch_id = excluded.batch_id,
		   processed_at = excluded.processed_at`,
		f.Path, f.SHA256, f.Domain, f.BatchID, f.ProcessedAt,
	)
	return err
}

// Count returns the number of ledger rows, optionally scoped to a domain.
func (l *Ledger) Count(ctx context.Context, domain string) (int, error) {
	var n int
	var err error
	if domain == "" {
		err = l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_files`).Scan(&n)
	} else {
		err = l.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM processed_files WHERE domain = ?`, domain).Scan(&n)
	}
	return n, err
}

// Batch returns the files recorded under one ingest batch, oldest first.
func (l *Ledger) Batch(ctx context.Context, batchID string) ([]ProcessedFile, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, sha256, domain, batch_id, processed_at
		 FROM processed_files WHERE batch_id = ? ORDER BY processed_at, path`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []ProcessedFile
	for rows.Next() {
		var f ProcessedFile
		if err := rows.Scan(&f.Path, &f.SHA256, &f.Domain, &f.BatchID, &f.ProcessedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }
