// Package db owns drape.db, the SQLite file that holds the named slots.
package db

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hpungsan/drape/internal/config"
)

// CurrentSchemaVersion is the latest schema version.
const CurrentSchemaVersion = 1

// FileName is the database file inside the base directory.
const FileName = "drape.db"

// Init opens baseDir/drape.db in WAL mode and migrates it, creating the
// base and exports directories first.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "exports")} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		_ = os.Chmod(dir, 0700)
	}

	dbPath := filepath.Join(baseDir, FileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
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

// Open is Init for process startup. If the existing file is not a usable
// SQLite database it is moved aside to drape.db.corrupt-<unix> (with its
// WAL and shared-memory files) and a fresh database is created, so the
// history starts empty instead of blocking startup.
func Open(baseDir string, logger *slog.Logger) (*sql.DB, error) {
	db, err := Init(baseDir)
	if err == nil || !IsCorrupt(err) {
		return db, err
	}

	dbPath := filepath.Join(baseDir, FileName)
	aside := fmt.Sprintf("%s.corrupt-%d", dbPath, time.Now().Unix())
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if rerr := os.Rename(dbPath+suffix, aside+suffix); rerr != nil && !stderrors.Is(rerr, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to move corrupt database aside: %w", rerr)
		}
	}
	if logger != nil {
		logger.Warn("database unreadable, moved aside and starting empty", "path", aside, "error", err)
	}

	return Init(baseDir)
}

// IsCorrupt reports whether err comes from SQLite rejecting the file
// itself (not a database, or a malformed image).
func IsCorrupt(err error) bool {
	var sErr *sqlite.Error
	if !stderrors.As(err, &sErr) {
		return false
	}
	switch sErr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	}
	return false
}

// ConfigurePool applies the configured connection limits. Zero leaves the
// database/sql default.
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

func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// 1: named slots, one whole JSON document each
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS slots (
		  name       TEXT PRIMARY KEY,
		  value      TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

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

// GetUserVersion returns the schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
