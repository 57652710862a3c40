package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/drape/internal/logging"
)

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer db.Close()

	// Verify database file was created
	dbPath := filepath.Join(tmpDir, "drape.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", dbPath)
	}

	// Verify exports directory was created
	exportsDir := filepath.Join(tmpDir, "exports")
	info, err := os.Stat(exportsDir)
	if os.IsNotExist(err) {
		t.Errorf("exports directory not created at %s", exportsDir)
	} else if !info.IsDir() {
		t.Errorf("exports path is not a directory")
	}

	// Verify WAL mode is active
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}

	// Verify schema was created by checking for slots table
	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='slots'").Scan(&tableName)
	if err != nil {
		t.Fatalf("slots table not found: %v", err)
	}
}

func TestInit_CreatesDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	baseDir := filepath.Join(tmpDir, "nested", "path", ".drape")

	db, err := Init(baseDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		t.Errorf("base directory not created at %s", baseDir)
	}
}

func TestUserVersion(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer db.Close()

	version, err := GetUserVersion(db)
	if err != nil {
		t.Fatalf("GetUserVersion() error = %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version after Init = %d, want %d", version, CurrentSchemaVersion)
	}

	if err := SetUserVersion(db, 99); err != nil {
		t.Fatalf("SetUserVersion() error = %v", err)
	}

	version, err = GetUserVersion(db)
	if err != nil {
		t.Fatalf("GetUserVersion() error = %v", err)
	}
	if version != 99 {
		t.Errorf("user_version = %d, want 99", version)
	}
}

func TestInit_MigrationIdempotent(t *testing.T) {
	tmpDir := t.TempDir()

	db1, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("first Init() error = %v", err)
	}
	db1.Close()

	// Second Init on same DB should succeed (migrations skip if already applied)
	db2, err := Init(tmpDir)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	defer db2.Close()

	version, err := GetUserVersion(db2)
	if err != nil {
		t.Fatalf("GetUserVersion() error = %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version after second Init = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestOpen_CorruptFileMovedAside(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, FileName)
	garbage := []byte(strings.Repeat("not a sqlite file ", 256))
	if err := os.WriteFile(dbPath, garbage, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Init(tmpDir); !IsCorrupt(err) {
		t.Fatalf("Init() error = %v, want a corrupt-file error", err)
	}

	db, err := Open(tmpDir, logging.Discard())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	var tableName string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='slots'").Scan(&tableName); err != nil {
		t.Fatalf("slots table not found: %v", err)
	}

	matches, err := filepath.Glob(dbPath + ".corrupt-*")
	if err != nil || len(matches) != 1 {
		t.Fatalf("corrupt backup = %v (err %v), want one file", matches, err)
	}
	kept, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(kept) != string(garbage) {
		t.Error("backup does not hold the original bytes")
	}
}

func TestOpen_HealthyFileUntouched(t *testing.T) {
	tmpDir := t.TempDir()

	db, err := Open(tmpDir, logging.Discard())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	db.Close()

	db, err = Open(tmpDir, logging.Discard())
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer db.Close()

	if matches, _ := filepath.Glob(filepath.Join(tmpDir, FileName+".corrupt-*")); len(matches) != 0 {
		t.Errorf("unexpected backups: %v", matches)
	}
}

func TestIsCorrupt_OtherErrors(t *testing.T) {
	if IsCorrupt(nil) {
		t.Error("IsCorrupt(nil) = true")
	}
	if IsCorrupt(os.ErrPermission) {
		t.Error("IsCorrupt(ErrPermission) = true")
	}
}
