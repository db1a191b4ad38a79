package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/vocab/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// Querier is the subset of *sql.DB and *sql.Tx used by the query functions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Init initializes the SQLite database at baseDir/vocab.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.vocab.
func Init(baseDir string) (*sql.DB, error) {
	return Open(baseDir, filepath.Join(baseDir, "vocab.db"))
}

// Open initializes the SQLite database at dbPath, creating baseDir and its
// exports subdirectory first.
func Open(baseDir, dbPath string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the connection string apply to every pooled connection
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: cards and review log
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS cards (
		  word             TEXT PRIMARY KEY,
		  translation_en   TEXT,
		  translation_de   TEXT,
		  definition       TEXT,
		  example_sentence TEXT,
		  context          TEXT,
		  first_seen       TEXT NOT NULL,
		  last_seen        TEXT,
		  known            INTEGER NOT NULL DEFAULT 0,
		  box              INTEGER NOT NULL DEFAULT 1 CHECK (box BETWEEN 1 AND 5),
		  next_review      TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cards_due
		ON cards(next_review, box, word)
		WHERE known = 0;

		CREATE TABLE IF NOT EXISTS review_log (
		  id          TEXT PRIMARY KEY,
		  word        TEXT NOT NULL,
		  score       INTEGER NOT NULL CHECK (score BETWEEN 1 AND 5),
		  box_before  INTEGER NOT NULL,
		  box_after   INTEGER NOT NULL,
		  next_review TEXT NOT NULL,
		  reviewed_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_review_log_word
		ON review_log(word, reviewed_at DESC);

		CREATE INDEX IF NOT EXISTS idx_review_log_reviewed_at
		ON review_log(reviewed_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
		version = 1
	}

	// Migration 1 -> 2: calendar date of each review, backfilled in local time
	if version < 2 {
		schema := `
		ALTER TABLE review_log ADD COLUMN reviewed_on TEXT NOT NULL DEFAULT '';

		UPDATE review_log
		SET reviewed_on = date(reviewed_at, 'unixepoch', 'localtime')
		WHERE reviewed_on = '';

		CREATE INDEX IF NOT EXISTS idx_review_log_reviewed_on
		ON review_log(reviewed_on);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
