package session

import (
	"sync"
	"time"
)

// Store is a thread-safe session registry with idle-time eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	onChange func(n int)
}

// NewStore returns a Store evicting sessions idle longer than ttl.
// onChange, if set, receives the session count after every change.
func NewStore(ttl time.Duration, onChange func(n int)) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		onChange: onChange,
	}
}

// Create registers and returns a new session.
func (st *Store) Create() *Session {
	s := New()
	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()
	st.changed(n)
	return s
}

// Get returns the session with id or ErrNotFound.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes the session with id or returns ErrNotFound.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	if _, ok := st.sessions[id]; !ok {
		st.mu.Unlock()
		return ErrNotFound
	}
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()
	st.changed(n)
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Cleanup removes sessions idle past the TTL and returns how many went.
func (st *Store) Cleanup() int {
	st.mu.Lock()
	now := time.Now()
	removed := 0
	for id, s := range st.sessions {
		if now.Sub(s.UpdatedAt()) > st.ttl {
			delete(st.sessions, id)
			removed++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()
	if removed > 0 {
		st.changed(n)
	}
	return removed
}

func (st *Store) changed(n int) {
	if st.onChange != nil {
		st.onChange(n)
	}
}
