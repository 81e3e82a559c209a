// Package session accumulates streamed markdown and re-parses it on demand.
package session

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/mdast/internal/parser"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Session is an append-only markdown buffer. It is safe for concurrent use.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`

	mu        sync.Mutex
	buf       strings.Builder
	highlight int
	stamps    map[int]time.Duration
	timeline  Timeline
	updatedAt time.Time
	nextSub   int
	subs      map[int]func()
}

// New returns an empty session with a fresh ID.
func New() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		updatedAt: now,
		subs:      make(map[int]func()),
	}
}

// Append adds chunk to the buffer and notifies subscribers.
func (s *Session) Append(chunk string) {
	s.mu.Lock()
	s.buf.WriteString(chunk)
	s.updatedAt = time.Now()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs)
}

// Clear empties the buffer, resets the highlight and notifies subscribers.
func (s *Session) Clear() {
	s.mu.Lock()
	s.buf.Reset()
	s.highlight = 0
	s.stamps = nil
	s.timeline = Timeline{}
	s.updatedAt = time.Now()
	subs := s.subscribersLocked()
	s.mu.Unlock()
	notify(subs)
}

// Text returns everything appended since the last Clear.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Len returns the buffered size in bytes.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

// SetHighlight records a caller-owned byte position, clamped to the buffer.
func (s *Session) SetHighlight(pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlight = min(max(pos, 0), s.buf.Len())
}

// AddTimestamps merges word start times into the session's timeline.
func (s *Session) AddTimestamps(stamps map[int]time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stamps == nil {
		s.stamps = make(map[int]time.Duration, len(stamps))
	}
	maps.Copy(s.stamps, stamps)
	s.timeline = NewTimeline(s.stamps)
}

// Seek moves the highlight to the end of the last word spoken by playback
// time at and returns the new position.
func (s *Session) Seek(at time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlight = wordEnd(s.buf.String(), s.timeline.Words(at))
	return s.highlight
}

// Highlight returns the current highlight position.
func (s *Session) Highlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}

// UpdatedAt returns the time of the last change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Subscribe registers fn to run after every change. The returned function
// removes it and may be called more than once.
func (s *Session) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Parse builds a tree from the current buffer.
func (s *Session) Parse(ctx context.Context, p parser.Parser) (*parser.Result, error) {
	return p.Parse(ctx, []byte(s.Text()))
}

func (s *Session) subscribersLocked() []func() {
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
