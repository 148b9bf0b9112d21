// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

import (
	"context"
	"errors"

	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/request"
)

// An Outcome is the terminal result of one fetch attempt made outside
// of Client, delivered to a Listener through Consume.
//
// The outcome is a success if both Signal and Err are nil. Otherwise
// Signal, if present, describes the failure; failing that, Err is
// converted with failure.FromError.
type Outcome struct {
	Key    string
	Signal failure.Signal
	Err    error
}

// A Listener records the outcomes of fetch attempts into a ledger.
//
// Listener methods never panic and never return errors: a nil Ledger
// makes recording a no-op, and persistence problems are handled by the
// ledger itself. The zero value classifies outcomes but records
// nothing.
type Listener struct {
	// Ledger receives the recorded attempts. It may be nil.
	Ledger *ledger.Ledger
	// Connectivity is read when a failure is classified. If nil,
	// AlwaysReachable is used.
	Connectivity Connectivity
}

// Succeeded records a successful fetch of key.
func (l *Listener) Succeeded(key string) {
	l.record(key, failure.Success)
}

// Failed classifies sig against the current connectivity, records the
// resulting code for key, and returns it.
func (l *Listener) Failed(key string, sig failure.Signal) failure.Code {
	c := failure.Classify(sig, l.reachable())
	l.record(key, c)
	return c
}

// Observe records the outcome of an attempt that ended with err, which
// is nil for a success.
func (l *Listener) Observe(key string, err error) failure.Code {
	if err == nil {
		l.Succeeded(key)
		return failure.Success
	}
	return l.Failed(key, failure.FromError(err))
}

// Handle implements Handler, recording the attempt described by e when
// evt is AfterAttempt and setting e.Code to the recorded outcome. Other
// events, suppressed executions, and attempts cancelled by the plan's
// context are ignored.
//
// Client runs an equivalent step itself when it has a Ledger, so Handle
// is only needed to feed a ledger from a Client, or other Doer, that is
// not configured with one.
func (l *Listener) Handle(evt Event, e *request.Execution) {
	if evt != AfterAttempt || e.Suppressed || errors.Is(e.Err, context.Canceled) {
		return
	}
	key := e.Plan.Key()
	sig := signalOf(e)
	if sig == nil {
		l.Succeeded(key)
		e.Code = failure.Success
		return
	}
	e.Code = l.Failed(key, sig)
}

// Consume records each outcome received on outcomes until the channel
// is closed or ctx is done.
func (l *Listener) Consume(ctx context.Context, outcomes <-chan Outcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case o, ok := <-outcomes:
			if !ok {
				return
			}
			l.consume(o)
		}
	}
}

func (l *Listener) consume(o Outcome) {
	switch {
	case o.Signal != nil:
		l.Failed(o.Key, o.Signal)
	case o.Err != nil:
		l.Failed(o.Key, failure.FromError(o.Err))
	default:
		l.Succeeded(o.Key)
	}
}

func (l *Listener) record(key string, c failure.Code) {
	if l.Ledger != nil {
		l.Ledger.Record(key, c)
	}
}

func (l *Listener) reachable() bool {
	if l.Connectivity == nil {
		return true
	}
	return l.Connectivity.Reachable()
}

func signalOf(e *request.Execution) failure.Signal {
	if e.Err != nil {
		return failure.FromError(e.Err)
	}
	if sc := e.StatusCode(); sc < 200 || sc > 299 {
		return failure.Status{StatusCode: sc}
	}
	return nil
}
