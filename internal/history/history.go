// Package history keeps the log of completed analyses, newest first, and
// mirrors it to a durable slot after every append.
package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/hpungsan/drape/internal/analysis"
	"github.com/hpungsan/drape/internal/errors"
)

// Slot is the durable storage behind a Store. *db.Slot implements it.
type Slot interface {
	Read(ctx context.Context) ([]byte, bool, error)
	Write(ctx context.Context, data []byte) error
}

// Row is one entry of the history list.
type Row struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Date  string `json:"date"`
}

// Store is the in-memory history log. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	slot    Slot
	entries []analysis.Result
	logger  *slog.Logger
}

// New returns an empty Store backed by slot. Call Load to read what the
// slot already holds.
func New(slot Slot, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{slot: slot, logger: logger}
}

// Load replaces the in-memory log with the slot contents. A missing,
// corrupt or unreadable slot yields an empty log and a warning; startup
// never fails on history. The error is only the caller's cancellation.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, ok, err := s.slot.Read(ctx)
	if err != nil {
		s.logger.Warn("history storage unreadable, starting empty", "error", err, "cause", errors.Cause(err))
		ok = false
	}

	var entries []analysis.Result
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			s.logger.Warn("history slot unreadable, starting empty", "error", err)
			entries = nil
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Append puts r at the head of the log and rewrites the slot.
// If the write fails the entry stays in memory and the error is returned.
func (s *Store) Append(ctx context.Context, r analysis.Result) error {
	s.mu.Lock()
	entries := make([]analysis.Result, 0, len(s.entries)+1)
	entries = append(entries, r)
	entries = append(entries, s.entries...)
	s.entries = entries
	data, err := json.Marshal(entries)
	s.mu.Unlock()

	if err != nil {
		return errors.NewInternal(err)
	}
	return s.slot.Write(ctx, data)
}

// Entries returns a copy of the log, newest first.
func (s *Store) Entries() []analysis.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]analysis.Result, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry with the given ID.
func (s *Store) Get(id string) (analysis.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.entries {
		if r.ID == id {
			return r, nil
		}
	}
	return analysis.Result{}, errors.NewNotFound(id)
}

// Rows returns one list row per entry, newest first.
func (s *Store) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]Row, 0, len(s.entries))
	for _, r := range s.entries {
		rows = append(rows, Row{ID: r.ID, Label: r.Label(), Date: r.Date})
	}
	return rows
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
