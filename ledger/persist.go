// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"fmt"
)

func (l *Ledger) enqueue(key string, a Attempt) {
	if l.queue == nil {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	select {
	case l.queue <- job{key: key, attempt: a}:
	default:
		l.persistFailed(key, ErrQueueFull)
	}
}

func (l *Ledger) drain() {
	defer close(l.done)
	for j := range l.queue {
		l.persist(j)
	}
}

func (l *Ledger) persist(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), l.persistTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			l.persistFailed(j.key, fmt.Errorf("fetchgate/ledger: persister panic: %v", r))
		}
	}()

	if err := l.persister.Persist(ctx, j.key, j.attempt); err != nil {
		l.persistFailed(j.key, err)
	}
}

func (l *Ledger) persistFailed(key string, err error) {
	l.logger.Warn("failed to persist fetch attempt", "key", key, "error", err)
	if l.observer != nil {
		l.observer.PersistFailed(key, err)
	}
}
