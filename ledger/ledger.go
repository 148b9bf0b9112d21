// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogama/fetchgate/cooldown"
	"github.com/gogama/fetchgate/failure"
)

const (
	// DefaultFreshness is the default success freshness window. It is
	// longer than the longest default error cooldown.
	DefaultFreshness = 7 * 24 * time.Hour
	// DefaultQueueSize is the default capacity of the persistence
	// queue.
	DefaultQueueSize = 256
	// DefaultPersistTimeout is the default timeout for one call to
	// Persister.Persist.
	DefaultPersistTimeout = 5 * time.Second
)

// ErrQueueFull is reported to the Observer when a recorded attempt is
// not persisted because the persistence queue is full.
var ErrQueueFull = errors.New("fetchgate/ledger: persistence queue full")

// A Persister writes recorded attempts to stable storage. The ledger
// calls Persist from a single background goroutine, in the order the
// attempts were recorded.
type Persister interface {
	Persist(ctx context.Context, key string, a Attempt) error
}

// A Loader reads previously persisted attempts, calling fn once per key.
// If fn returns an error, Load stops and returns it.
type Loader interface {
	Load(ctx context.Context, fn func(key string, a Attempt) error) error
}

// An Observer is notified of ledger activity. Its methods are called
// synchronously and must be safe for concurrent use by multiple
// goroutines.
type Observer interface {
	Recorded(key string, a Attempt)
	Queried(key string, info Info)
	PersistFailed(key string, err error)
}

// Config configures a Ledger. The zero value is valid.
type Config struct {
	// Freshness is how long a successful attempt is considered recent.
	// If zero, DefaultFreshness is used.
	Freshness time.Duration
	// Policy decides the cooldown of failed attempts. If nil,
	// cooldown.DefaultPolicy is used.
	Policy cooldown.Policy
	// Persister receives every recorded attempt. If nil, attempts are
	// only kept in memory.
	Persister Persister
	// Observer, if not nil, is notified of ledger activity.
	Observer Observer
	// Logger receives persistence failures. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
	// Clock returns the current time. If nil, time.Now is used.
	Clock func() time.Time
	// QueueSize is the capacity of the persistence queue. If zero,
	// DefaultQueueSize is used.
	QueueSize int
	// PersistTimeout bounds each call to Persister.Persist. If zero,
	// DefaultPersistTimeout is used.
	PersistTimeout time.Duration
}

// A Ledger maps cache keys to the most recent Attempt. It is safe for
// concurrent use by multiple goroutines.
type Ledger struct {
	entries sync.Map

	freshness      time.Duration
	policy         cooldown.Policy
	persister      Persister
	observer       Observer
	logger         *slog.Logger
	clock          func() time.Time
	persistTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	done   chan struct{}
}

type job struct {
	key     string
	attempt Attempt
}

// New constructs a Ledger. If config has a Persister, New starts the
// background goroutine that feeds it; call Close to stop it.
func New(config Config) *Ledger {
	{
		if config.Freshness == 0 {
			config.Freshness = DefaultFreshness
		}
		if config.Policy == nil {
			config.Policy = cooldown.DefaultPolicy
		}
		if config.Logger == nil {
			config.Logger = slog.Default()
		}
		if config.Clock == nil {
			config.Clock = time.Now
		}
	}

	{
		if config.QueueSize <= 0 {
			config.QueueSize = DefaultQueueSize
		}
		if config.PersistTimeout == 0 {
			config.PersistTimeout = DefaultPersistTimeout
		}
	}

	l := &Ledger{
		freshness:      config.Freshness,
		policy:         config.Policy,
		persister:      config.Persister,
		observer:       config.Observer,
		logger:         config.Logger,
		clock:          config.Clock,
		persistTimeout: config.PersistTimeout,
	}

	if l.persister != nil {
		l.queue = make(chan job, config.QueueSize)
		l.done = make(chan struct{})
		go l.drain()
	}

	return l
}

// Info returns the ledger's advice about fetching key now.
func (l *Ledger) Info(key string) Info {
	a, ok := l.Last(key)
	info := l.advise(a, ok, l.clock())
	if l.observer != nil {
		l.observer.Queried(key, info)
	}
	return info
}

func (l *Ledger) advise(a Attempt, ok bool, now time.Time) Info {
	if !ok {
		return NeverAttempted
	}

	elapsed := now.Sub(a.Timestamp)

	if a.Succeeded() {
		if elapsed < l.freshness {
			return FetchedRecently
		}
		return FetchedBeforeButMightNotWork
	}

	if elapsed < l.policy.Cooldown(a.Code) {
		return FailedRecently
	}
	return FailedBeforeButMightWork
}

// Record stores the outcome of an attempt to fetch key, timestamped with
// the current time, replacing any previous attempt for key. The new
// attempt is visible to Info before Record returns.
//
// The attempt is then queued for persistence. Record never blocks on
// the Persister, and persistence failures are logged rather than
// returned.
func (l *Ledger) Record(key string, code failure.Code) Attempt {
	a := Attempt{Code: code, Timestamp: l.clock()}
	l.entries.Store(key, a)
	if l.observer != nil {
		l.observer.Recorded(key, a)
	}
	l.enqueue(key, a)
	return a
}

// Last returns the most recent attempt recorded for key.
func (l *Ledger) Last(key string) (Attempt, bool) {
	v, ok := l.entries.Load(key)
	if !ok {
		return Attempt{}, false
	}
	return v.(Attempt), true
}

// Len returns the number of keys in the ledger.
func (l *Ledger) Len() int {
	n := 0
	l.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Snapshot returns a copy of the ledger contents.
func (l *Ledger) Snapshot() map[string]Attempt {
	m := make(map[string]Attempt)
	l.entries.Range(func(k, v interface{}) bool {
		m[k.(string)] = v.(Attempt)
		return true
	})
	return m
}

// Restore loads persisted attempts into the ledger. An attempt from the
// Loader never replaces a newer attempt already in memory. Restored
// attempts are not persisted again.
//
// Restore returns the number of attempts taken from the Loader.
func (l *Ledger) Restore(ctx context.Context, loader Loader) (int, error) {
	n := 0
	err := loader.Load(ctx, func(key string, a Attempt) error {
		if l.restore(key, a) {
			n++
		}
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("fetchgate/ledger: restore: %w", err)
	}
	return n, nil
}

func (l *Ledger) restore(key string, a Attempt) bool {
	for {
		prev, loaded := l.entries.LoadOrStore(key, a)
		if !loaded {
			return true
		}
		if !prev.(Attempt).Timestamp.Before(a.Timestamp) {
			return false
		}
		if l.entries.CompareAndSwap(key, prev, a) {
			return true
		}
	}
}

// Close stops persistence. Attempts already queued are handed to the
// Persister before Close returns, unless ctx is done first. Record may
// still be called after Close, but its attempts are kept in memory only.
func (l *Ledger) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	if l.queue != nil {
		close(l.queue)
	}
	l.mu.Unlock()

	if l.done == nil {
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
