// Package chat is the follow-up conversation about the analysis on display.
//
// A send appends the user turn and a provisional placeholder, asks the chat
// service, then swaps the placeholder for the reply (or a fixed fallback).
// The transcript lives only in memory.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hpungsan/drape/internal/errors"
	"github.com/hpungsan/drape/internal/remote"
)

// Fixed transcript texts.
const (
	PlaceholderText = "Thinking..."
	FallbackText    = "Sorry, my connection to the fashion grid is weak right now."
)

// Role is the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript entry.
type Turn struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	Text        string `json:"text"`
	Provisional bool   `json:"provisional,omitempty"`
}

// ContextSource supplies the analysis context a message refers to. It is
// read at send time, so a message follows whatever is on display.
type ContextSource interface {
	ChatContext() (gender, skinTone string)
}

// Session holds the transcript and the window visibility flag.
// It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	turns   []Turn
	open    bool
	chatter remote.Chatter
	source  ContextSource
	logger  *slog.Logger
	newID   func() string
}

// NewSession returns a closed session with an empty transcript.
func NewSession(chatter remote.Chatter, source ContextSource, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		chatter: chatter,
		source:  source,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Send posts msg and returns the assistant turn that answered it.
// A blank message is a no-op and returns ok=false. Failures of the chat
// service never surface as errors: they end in the fallback turn.
func (s *Session) Send(ctx context.Context, msg string) (reply Turn, ok bool) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return Turn{}, false
	}

	placeholder := Turn{ID: s.newID(), Role: RoleAssistant, Text: PlaceholderText, Provisional: true}
	s.mu.Lock()
	s.turns = append(s.turns,
		Turn{ID: s.newID(), Role: RoleUser, Text: msg},
		placeholder,
	)
	s.mu.Unlock()

	gender, tone := s.source.ChatContext()
	text, err := s.chatter.Chat(ctx, remote.ChatRequest{Message: msg, Gender: gender, SkinTone: tone})
	if err != nil {
		s.logger.Warn("chat request failed", "error", err, "cause", errors.Cause(err))
		text = FallbackText
	}

	reply = Turn{ID: s.newID(), Role: RoleAssistant, Text: text}
	s.mu.Lock()
	s.removeLocked(placeholder.ID)
	s.turns = append(s.turns, reply)
	s.mu.Unlock()
	return reply, true
}

func (s *Session) removeLocked(id string) {
	for i, t := range s.turns {
		if t.ID == id {
			s.turns = append(s.turns[:i], s.turns[i+1:]...)
			return
		}
	}
}

// Transcript returns a copy of the turns in order.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Toggle flips the window visibility and returns the new value.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = !s.open
	return s.open
}

// Open reports whether the chat window is visible.
func (s *Session) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
