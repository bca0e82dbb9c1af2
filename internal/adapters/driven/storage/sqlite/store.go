// Package sqlite provides the persistent change-token store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/casetrack/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/casetrack/internal/core/domain"
	"github.com/custodia-labs/casetrack/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TokenStore = (*Store)(nil)

// Store persists per-root change tokens in SQLite so a restart can
// resume incremental sync after the mandatory rescan. Nothing else is
// persisted; the item model is always rebuilt from a fresh scan.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and if needed creates) the token database under the
// given data directory. If dataDir is empty, defaults to
// ~/.casetrack/data/tokens.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".casetrack", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tokens.db")

	// WAL mode for better concurrency between the poller and CLI.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

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

// Save stores or replaces the token for a root.
func (s *Store) Save(ctx context.Context, root, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO change_tokens (root, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(root) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at
	`, root, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving token for %s: %w", root, err)
	}
	return nil
}

// Get returns the token for a root.
func (s *Store) Get(ctx context.Context, root string) (string, error) {
	var token string
	row := s.db.QueryRowContext(ctx, "SELECT token FROM change_tokens WHERE root = ?", root)
	if err := row.Scan(&token); err != nil {
		if err == sql.ErrNoRows {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("reading token for %s: %w", root, err)
	}
	return token, nil
}

// All returns the tokens of every tracked root.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT root, token FROM change_tokens")
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	defer rows.Close()

	tokens := make(map[string]string)
	for rows.Next() {
		var root, token string
		if err := rows.Scan(&root, &token); err != nil {
			return nil, fmt.Errorf("scanning token row: %w", err)
		}
		tokens[root] = token
	}
	return tokens, rows.Err()
}

// Delete removes the token for a root.
func (s *Store) Delete(ctx context.Context, root string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM change_tokens WHERE root = ?", root)
	if err != nil {
		return fmt.Errorf("deleting token for %s: %w", root, err)
	}
	return nil
}

// Clear removes all tokens. Called on fatal reset.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM change_tokens")
	if err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}
