// Package store implements the shared in-memory keyspace: string entries
// with optional millisecond TTLs and append-only stream entries. There is
// no package-level singleton (the teacher's anzi/proto layer and the
// Python original's module-level kvPair both lean on one); callers
// construct one *Store and thread it through the command Context per
// spec.md §9's REDESIGN note on process-wide singletons.
package store

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Kind distinguishes the two value shapes a keyspace Entry can hold.
type Kind int

const (
	KindString Kind = iota
	KindStream
)

// Entry is one keyspace value cell.
type Entry struct {
	Kind      Kind
	Str       string
	StrLen    int
	ExpiresAt time.Time // zero value means "never"
	Stream    []StreamEntry
}

// Sentinel errors surfaced by stream operations. Wire-level message
// strings live with the XADD command handler, not here — these are
// classification errors a caller matches with errors.Is.
var (
	ErrXaddZero     = errors.New("store: XADD id must be greater than 0-0")
	ErrXaddBackward = errors.New("store: XADD id equal or smaller than top item")
	ErrWrongType    = errors.New("store: key holds the wrong value kind")
)

// Store is the process-wide keyspace: a single mutex guards both the
// key map and the stream wait registry, so a stream append's notify and
// a blocking reader's registration can never race past each other
// (spec.md §5).
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	wait map[string]chan struct{}

	now func() time.Time // overridable for tests
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data: make(map[string]*Entry),
		wait: make(map[string]chan struct{}),
		now:  time.Now,
	}
}

// Get returns the entry for key if present and, for string entries, not
// yet expired. An expired string entry is removed as a side effect
// (lazy eviction, spec.md §4.2).
func (s *Store) Get(key string) (*Entry, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.Kind == KindString && !e.ExpiresAt.IsZero() && s.now().After(e.ExpiresAt) {
		s.mu.Lock()
		// re-check under the write lock: another goroutine may have
		// already evicted or overwritten key.
		if cur, ok := s.data[key]; ok && cur == e {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e, true
}

// Set upserts a string entry. ttl <= 0 means infinite.
func (s *Store) Set(key, val string, ttl time.Duration) {
	e := &Entry{Kind: KindString, Str: val, StrLen: len(val)}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
}

// Del removes key unconditionally.
func (s *Store) Del(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// TypeOf reports the RESP TYPE reply for key: "string", "stream", or "none".
func (s *Store) TypeOf(key string) string {
	e, ok := s.Get(key)
	if !ok {
		return "none"
	}
	if e.Kind == KindStream {
		return "stream"
	}
	return "string"
}
