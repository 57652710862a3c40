package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/drape/internal/errors"
)

// Slot is a single named value in the slots table. It is read whole and
// written whole; there is no incremental format.
type Slot struct {
	db   *sql.DB
	name string
}

// NewSlot returns a handle on the named slot. The slot need not exist yet.
func NewSlot(db *sql.DB, name string) *Slot {
	return &Slot{db: db, name: name}
}

// Name returns the slot name.
func (s *Slot) Name() string {
	return s.name
}

// Read returns the slot contents. ok is false when the slot has never been written.
func (s *Slot) Read(ctx context.Context) (data []byte, ok bool, err error) {
	var value string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE name = ?`, s.name).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewPersistence(err)
	}
	return []byte(value), true, nil
}

// Write replaces the slot contents.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.name, string(data), time.Now().Unix()); err != nil {
		return errors.NewPersistence(err)
	}
	return nil
}
