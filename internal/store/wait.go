package store

import (
	"context"
	"time"
)

// notifyLocked closes and removes the wait channel for key, waking every
// goroutine currently selecting on it. Must be called with s.mu held for
// writing (XAdd already holds it). This is the Go-idiomatic rendering of
// "a notification wakes every waiter; waiters re-query the stream after
// waking" (spec.md §3) — closing a channel is a broadcast, and removing
// it means the next waiter to register creates a fresh one (waitChan).
func (s *Store) notifyLocked(key string) {
	if ch, ok := s.wait[key]; ok {
		close(ch)
	}
	delete(s.wait, key)
}

// waitChan returns (creating if absent) the notify channel for key. Must
// be called with s.mu held for writing (it may insert into s.wait) so
// registration can never
// race a concurrent notifyLocked — the same "register-or-miss" guarantee
// spec.md §5 requires of the stream wait registry.
func (s *Store) waitChan(key string) chan struct{} {
	if ch, ok := s.wait[key]; ok {
		return ch
	}
	ch := make(chan struct{})
	s.wait[key] = ch
	return ch
}

// XRead implements the full XREAD contract: non-blocking lookup, BLOCK
// ms>0 (sleep then re-query), and BLOCK 0 (suspend on every requested
// key's notifier until one of them appends). ids[i] == "$" is resolved
// to "the current last id" once, before any wait, matching spec.md §4.2.
func (s *Store) XRead(ctx context.Context, keys, ids []string, block time.Duration, blocking bool) []StreamResult {
	resolved := make([]string, len(ids))
	for i, key := range keys {
		if ids[i] == "$" {
			ms, seq := s.LastID(key)
			resolved[i] = formatID(ms, seq)
		} else {
			resolved[i] = ids[i]
		}
	}

	// The "already has entries" check and the waiter registration must
	// happen under the same lock acquisition: otherwise an XAdd landing
	// between them would notify a channel nobody has registered on yet,
	// and this reader would then block forever on a fresh, never-to-be-
	// closed channel for an append that already happened.
	s.mu.Lock()
	results := s.xReadOnceLocked(keys, resolved)
	if !blocking || anyHasEntries(results) {
		s.mu.Unlock()
		return results
	}
	if block != 0 {
		s.mu.Unlock()
		timer := time.NewTimer(block)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return results
		}
		return s.XReadOnce(keys, resolved)
	}

	chans := make([]chan struct{}, len(keys))
	seen := make(map[string]bool, len(keys))
	for i, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		chans[i] = s.waitChan(key)
	}
	s.mu.Unlock()

	if !waitAny(ctx, chans) {
		return results
	}
	return s.XReadOnce(keys, resolved)
}

// waitAny blocks until any non-nil channel in chans is closed or ctx is
// done, fanning several notify channels into one wakeup so a multi-key
// XREAD BLOCK 0 wakes on an append to any of its streams, not just the
// first. Returns false if ctx ended the wait.
func waitAny(ctx context.Context, chans []chan struct{}) bool {
	woke := make(chan struct{}, 1)
	for _, ch := range chans {
		if ch == nil {
			continue
		}
		go func(c chan struct{}) {
			select {
			case <-c:
				select {
				case woke <- struct{}{}:
				default:
				}
			case <-ctx.Done():
			}
		}(ch)
	}
	select {
	case <-woke:
		return true
	case <-ctx.Done():
		return false
	}
}

func anyHasEntries(results []StreamResult) bool {
	for _, r := range results {
		if len(r.Entries) > 0 {
			return true
		}
	}
	return false
}

func formatID(ms, seq uint64) string {
	return (StreamEntry{TMs: ms, Seq: seq}).ID()
}
