// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// plan execution starts.
	//
	// When Client fires BeforeExecutionStart, the execution is non-nil
	// but the only field that has been set is the plan.
	BeforeExecutionStart Event = iota
	// AfterSuppressed identifies the event that occurs when the ledger's
	// advice stops the client from attempting the fetch.
	//
	// When Client fires AfterSuppressed, the execution's info field
	// holds the advice, Suppressed is true, and Err is a
	// *SuppressedError. No request has been made.
	AfterSuppressed
	// BeforeAttempt identifies the event that occurs before the HTTP
	// request is sent.
	//
	// When Client fires BeforeAttempt, the execution's request field is
	// set to the HTTP request that WILL BE sent after all BeforeAttempt
	// handlers have finished. Handlers may modify the request, but
	// should clone its URL and Header before changing them, as these
	// initially reference the same-named fields in the plan.
	BeforeAttempt
	// BeforeReadBody identifies the event that occurs after the HTTP
	// request has resulted in an HTTP response but before the response
	// body is read.
	//
	// BeforeReadBody does not fire if the response was rejected by the
	// client's Acceptor based on its headers.
	BeforeReadBody
	// AfterAttemptTimeout identifies the event that occurs after the
	// HTTP request failed because of a timeout error.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after the attempt
	// has concluded and its outcome has been recorded in the ledger.
	//
	// When Client fires AfterAttempt, the execution's code field holds
	// the recorded outcome.
	AfterAttempt
	// AfterExecutionEnd identifies the event that occurs after the plan
	// execution ends, whether or not a fetch was attempted.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"AfterSuppressed",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in a
// plan execution by Client, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		AfterSuppressed,
		BeforeAttempt,
		BeforeReadBody,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
