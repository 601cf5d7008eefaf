// Package lock serializes work per account id inside one process.
//
// Locks are always acquired in one global order (sorted ids, with the bank last)
// so two operations touching overlapping accounts cannot deadlock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrTimeout is returned when locks cannot be acquired in time.
var ErrTimeout = errors.New("lock: timed out waiting for account lock")

// Keyed is a registry of per-key mutexes. Each key is a channel of capacity
// one so acquisition can be abandoned when the context ends.
type Keyed struct {
	mu      sync.Mutex
	slots   map[string]*slot
	last    string
	timeout time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyed returns a registry. last is the key always acquired after all
// others (the bank). timeout bounds a whole acquisition; zero means no bound.
func NewKeyed(last string, timeout time.Duration) *Keyed {
	return &Keyed{slots: make(map[string]*slot), last: last, timeout: timeout}
}

// Order returns the distinct keys in acquisition order.
func (k *Keyed) Order(keys ...string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	hasLast := false
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if key == k.last {
			hasLast = true
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	if hasLast {
		out = append(out, k.last)
	}
	return out
}

// Lock acquires every key in global order and returns a func releasing them.
// On failure nothing stays held.
func (k *Keyed) Lock(ctx context.Context, keys ...string) (func(), error) {
	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	ordered := k.Order(keys...)
	held := make([]string, 0, len(ordered))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.release(held[i])
		}
	}

	for _, key := range ordered {
		s := k.acquireSlot(key)
		select {
		case s.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			k.dropRef(key)
			release()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrTimeout, key)
			}
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (k *Keyed) acquireSlot(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *Keyed) release(key string) {
	k.mu.Lock()
	s := k.slots[key]
	k.mu.Unlock()
	<-s.ch
	k.dropRef(key)
}

func (k *Keyed) dropRef(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := k.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
