// Package lock serializes settlement per patient. Locks are non-blocking: a
// second caller for a held key is refused, never queued.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrHeld is returned by TryAcquire when the key is already held.
var ErrHeld = errors.New("lock held")

// Release gives the lock back. It is safe to call more than once.
type Release func()

// Locker is a keyed, non-blocking mutual exclusion primitive.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (Release, error)
}

// Inflight is the in-process Locker: a map of keys with a request in flight.
type Inflight struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewInflight() *Inflight {
	return &Inflight{held: make(map[string]struct{})}
}

func (l *Inflight) TryAcquire(_ context.Context, key string) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, ErrHeld
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently held.
func (l *Inflight) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// Chain acquires every locker in order and releases in reverse. If any
// acquisition fails the ones already taken are released.
func Chain(lockers ...Locker) Locker {
	return chain(lockers)
}

type chain []Locker

func (c chain) TryAcquire(ctx context.Context, key string) (Release, error) {
	releases := make([]Release, 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, l := range c {
		r, err := l.TryAcquire(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, r)
	}
	var once sync.Once
	return func() { once.Do(releaseAll) }, nil
}
