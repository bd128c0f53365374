package chardev

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
)

// Session is one open handle on a published device node. It owns its
// cursor: the cursor starts at 0 when the session opens, advances only on
// successful transfers and is never shared with other sessions.
//
// A Session must not be used from multiple goroutines at once; distinct
// sessions are safe to use concurrently.
type Session struct {
	id      string
	binding *DeviceBinding

	closed atomic.Bool

	mu       sync.Mutex
	cursor   Cursor
	lastUsed time.Time
}

func newSession(b *DeviceBinding, now time.Time) *Session {
	return &Session{id: xid.New().String(), binding: b, lastUsed: now}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Position returns the current cursor position.
func (s *Session) Position() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Position
}

// LastUsed returns the time of the last successful I/O call (or the open
// time if none happened yet).
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Read reads up to n bytes from the device at the session cursor. A cursor
// at or past capacity yields zero bytes with a nil error (end-of-data).
func (s *Session) Read(n int) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.binding
	if b.State() != StateNodePublished {
		return nil, ErrDeviceNotReady
	}

	data, cur, err := b.buffer.ReadAt(s.cursor, n)
	if err != nil {
		return nil, err
	}
	s.cursor = cur
	s.lastUsed = b.clock.Now()
	return data, nil
}

// Write writes a prefix of p to the device at the session cursor and
// returns the number of bytes accepted. Input past capacity is silently
// truncated; a cursor at or past capacity accepts zero bytes.
func (s *Session) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.binding
	if b.State() != StateNodePublished {
		return 0, ErrDeviceNotReady
	}

	if b.exclusive {
		b.writerMu.Lock()
		defer b.writerMu.Unlock()
	}

	accepted, cur, err := b.buffer.WriteAt(s.cursor, p)
	if err != nil {
		return 0, err
	}
	s.cursor = cur
	s.lastUsed = b.clock.Now()
	return accepted, nil
}

// Close releases the session. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.binding.sessions.remove(s.id)
	return nil
}

// sessionTable tracks the open sessions of one binding.
type sessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[string]*Session)}
}

func (t *sessionTable) add(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.id] = s
}

func (t *sessionTable) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

func (t *sessionTable) get(id string) *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessions[id]
}

func (t *sessionTable) list() []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		result = append(result, s)
	}
	return result
}

func (t *sessionTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// markAllClosed flags every session closed and empties the table. Only the
// closed flag is touched so this is safe to call while holding binding
// locks.
func (t *sessionTable) markAllClosed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.sessions)
	for id, s := range t.sessions {
		s.closed.Store(true)
		delete(t.sessions, id)
	}
	return n
}
