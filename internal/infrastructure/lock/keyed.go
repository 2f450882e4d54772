// Package lock provides the in-process per-lot critical section.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lotmarket/auction-api/internal/core/ports"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// Keyed hands out one mutex per key. Entries are dropped once no caller holds
// or waits for them, so memory stays proportional to contended lots.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	wait    time.Duration
}

// NewKeyed returns a keyed lock. A positive wait bounds how long Lock blocks
// before failing with ports.ErrLockTimeout.
func NewKeyed(wait time.Duration) *Keyed {
	return &Keyed{entries: make(map[string]*entry), wait: wait}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	e := k.acquire(key)

	waitCtx := ctx
	if k.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, k.wait)
		defer cancel()
	}

	select {
	case e.sem <- struct{}{}:
	case <-waitCtx.Done():
		k.release(key, e)
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, ports.ErrLockTimeout
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			k.release(key, e)
		})
	}, nil
}

func (k *Keyed) acquire(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// size reports the number of live entries.
func (k *Keyed) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
