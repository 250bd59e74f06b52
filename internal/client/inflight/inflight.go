// Package inflight keeps concurrent UI requests from overwriting each other.
package inflight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Token identifies one request started through a Tracker.
type Token struct {
	key string
	id  uint64
}

type entry struct {
	id     uint64
	cancel context.CancelFunc
}

// Tracker remembers the latest request per key. Starting a request cancels
// the previous one for the same key so only the newest response is applied.
type Tracker struct {
	mu      sync.Mutex
	seq     uint64
	current map[string]entry
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{current: make(map[string]entry)}
}

// Begin registers a new request for key and returns its context and token.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, Token) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.current[key]; ok {
		prev.cancel()
	}
	t.seq++
	t.current[key] = entry{id: t.seq, cancel: cancel}
	return ctx, Token{key: key, id: t.seq}
}

// Current reports whether tok is still the latest request for its key.
func (t *Tracker) Current(tok Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.current[tok.key]
	return ok && e.id == tok.id
}

// Invalidate drops the latest request for key, cancelling it.
func (t *Tracker) Invalidate(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.current[key]; ok {
		e.cancel()
		delete(t.current, key)
	}
}

// Done releases tok. It is a no-op when a newer request replaced it.
func (t *Tracker) Done(tok Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.current[tok.key]
	if !ok || e.id != tok.id {
		return
	}
	e.cancel()
	delete(t.current, tok.key)
}

// Coalescer collapses concurrent duplicate submissions onto one call.
type Coalescer struct {
	group singleflight.Group
}

// Do runs fn once for all concurrent callers sharing key. leader is true only
// for the caller whose fn actually ran; the others receive its result.
func Do[T any](c *Coalescer, key string, fn func() (T, error)) (result T, leader bool, err error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		leader = true
		return fn()
	})
	if typed, ok := v.(T); ok {
		result = typed
	}
	return result, leader, err
}
