// Package sqlite provides the durable fingerprint ledger backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DedupStore = (*Store)(nil)

// Store is the SQLite-backed dedup ledger. Each row maps a content
// fingerprint to a document record; the PRIMARY KEY on the fingerprint
// column makes the check-and-insert atomic under concurrency.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite ledger at the specified data directory.
// If dataDir is empty, defaults to ~/.quarry/data/ledger.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".quarry", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ledger.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending schema migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Exists reports whether a fingerprint has been recorded.
func (s *Store) Exists(ctx context.Context, fingerprint string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM documents WHERE fingerprint = ?", fingerprint)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("querying fingerprint: %w", err)
	}
	return true, nil
}

// InsertIfAbsent records a document under its fingerprint. The insert is
// atomic with respect to the existence check: ON CONFLICT DO NOTHING on
// the primary key guarantees exactly one winner when callers race.
// Document content is not persisted; the ledger is a fingerprint index.
func (s *Store) InsertIfAbsent(ctx context.Context, doc *domain.Document) (bool, error) {
	var attachmentsJSON sql.NullString
	if len(doc.Attachments) > 0 {
		raw, err := json.Marshal(doc.Attachments)
		if err != nil {
			return false, fmt.Errorf("marshalling attachments: %w", err)
		}
		attachmentsJSON = sql.NullString{String: string(raw), Valid: true}
	}

	publishTime := sql.NullString{}
	if !doc.PublishedAt.IsZero() {
		publishTime = sql.NullString{String: doc.PublishedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (fingerprint, source_id, source_name, url, title, publish_time, attachments, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(fingerprint) DO NOTHING
	`, doc.Fingerprint, doc.SourceID, doc.SourceName, doc.URL, doc.Title, publishTime, attachmentsJSON)
	if err != nil {
		return false, fmt.Errorf("inserting document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return affected == 1, nil
}

// MarkSynced flags a recorded fingerprint as having an index entry.
func (s *Store) MarkSynced(ctx context.Context, fingerprint string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET synced = 1 WHERE fingerprint = ?", fingerprint)
	if err != nil {
		return fmt.Errorf("marking synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of recorded documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Clear removes every ledger entry. Used for full-corpus resets only.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}
