// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
)

// An Execution represents the state of a single Plan execution.
//
// Event handlers may set values on an Execution using its SetValue
// method and read them back using the Value method. However, they should
// treat the structure's exported field values as immutable.
type Execution struct {
	// Plan specifies the plan being executed. It is never nil.
	Plan *Plan

	// Start is the start time of the execution.
	Start time.Time

	// End is the end time of the execution. It contains the zero value
	// until the execution ends.
	End time.Time

	// Info is the ledger's advice about the plan's cache key, consulted
	// before the fetch was attempted. It is NeverAttempted if the client
	// has no ledger.
	Info ledger.Info

	// Suppressed is true if the client did not attempt the fetch
	// because of the ledger's advice.
	Suppressed bool

	// Request specifies the HTTP request to be made, or already made.
	Request *http.Request

	// Response specifies the HTTP response received. It will be nil if
	// the attempt ended in an error before a response arrived.
	Response *http.Response

	// Err indicates the error which ended the attempt, if any.
	//
	// A response with a status code outside the 2XX range does not set
	// Err, although it is recorded in the ledger as a failure.
	Err error

	// Body is the complete response body. The Body of a completed
	// execution should be treated as invalid unless Err is nil.
	Body []byte

	// Code is the outcome recorded in the ledger for the attempt.
	// It is failure.Success until the attempt has been classified.
	Code failure.Code

	data context.Context
}

// StatusCode returns the status code of the HTTP response, or 0 if
// there is no HTTP response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// Header returns the HTTP response headers, or the nil header if there
// is no HTTP response.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return e.Response.Header
}

// Duration returns the duration of the execution. It is zero before the
// execution starts and static after it ends.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently contains a timeout.
func (e *Execution) Timeout() bool {
	return e.Err != nil && failure.ClassifyError(e.Err, true) == failure.Timeout
}

// Succeeded reports whether the execution fetched the resource: there
// was no error, and the response had a 2XX status code.
func (e *Execution) Succeeded() bool {
	return e.Err == nil && e.StatusCode() >= 200 && e.StatusCode() < 300
}

// SetValue allows event handlers to store arbitrary data in the
// execution. The key must follow the same rules as the key parameter in
// context.WithValue.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}

	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for key,
// or nil if there is no value associated with key.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
