// Package storage is the persistent store: durable, versioned SQLite storage
// of transactions, categories and settings, with validation and
// referential-cascade rules. Multi-collection mutations (cascade delete,
// bulk import, wipe) each run inside a single SQL transaction; a half-applied
// state is never observable.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store owns the SQLite database. All operations take a context and are
// safe to call from the single cooperative writer the data layer assumes;
// conflicting writes from separate calls resolve last-write-wins.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at dbPath, runs schema migrations and,
// when the store is brand new, seeds the default category taxonomy.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.seedDefaults(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// WipeAll clears all three collections in one atomic transaction.
func (s *Store) WipeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin wipe: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM transactions`,
		`DELETE FROM subcategories`,
		`DELETE FROM categories`,
		`DELETE FROM settings`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("wipe: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit wipe: %w", err)
	}

	slog.InfoContext(ctx, "store wiped")
	return nil
}
