// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gogama/fetchgate/accept"
	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/request"
)

// DefaultTimeout is the attempt timeout used by a Client whose Timeout
// field is zero.
const DefaultTimeout = 30 * time.Second

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// A Gate decides, from the ledger's advice, whether a fetch should be
// attempted.
type Gate func(info ledger.Info) bool

// DefaultGate attempts every fetch except those whose last attempt
// failed within its cooldown.
func DefaultGate(info ledger.Info) bool {
	return info != ledger.FailedRecently
}

var emptyHandlers = HandlerGroup{}

// A Client is an HTTP client that remembers the outcome of every fetch
// and declines to repeat fetches that failed recently. Its zero value
// is a valid configuration, but without a Ledger it neither remembers
// nor declines anything.
//
// Client makes at most one HTTP request per plan execution. Retrying is
// the caller's concern: the ledger's advice, surfaced through
// Execution.Info and the Gate, tells the caller when another attempt is
// worthwhile.
//
// Client's HTTPDoer typically has an internal state (cached TCP
// connections) so Client instances should be reused instead of created
// as needed. Client is safe for concurrent use by multiple goroutines.
//
// On top of the HTTP request features provided by the HTTPDoer, Client
// adds the following features:
//
// • Client consults its Ledger before each fetch and suppresses the
// fetch if the Gate says so;
//
// • Client reads and buffers the entire HTTP response body into a
// []byte (returned as the Execution.Body field);
//
// • Client checks the response against an optional Acceptor and
// refuses plain HTTP when RequireTLS is set;
//
// • Client classifies the attempt's outcome and records it in the
// Ledger; and
//
// • Client invokes user-provided handler functions at designated plug-in
// points within the execution.
type Client struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard net/http
	// package is used.
	HTTPDoer HTTPDoer
	// Ledger remembers attempt outcomes. If nil, every fetch is
	// attempted and nothing is recorded.
	Ledger *ledger.Ledger
	// Connectivity is read when a failed attempt is classified. If nil,
	// AlwaysReachable is used.
	Connectivity Connectivity
	// Timeout bounds each attempt, including reading the body. If zero,
	// DefaultTimeout is used. A negative value disables the timeout.
	Timeout time.Duration
	// RequireTLS refuses to send requests whose URL scheme is not https.
	// Refused attempts are recorded as failure.SSLRequired.
	RequireTLS bool
	// Acceptor checks each 2XX response. If nil, every response is
	// accepted. If the Acceptor is an accept.Limiter, the body is read
	// no further than its limit.
	Acceptor accept.Acceptor
	// Gate decides whether to attempt a fetch given the ledger's advice.
	// If nil, DefaultGate is used.
	Gate Gate
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request plan.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
}

// Do executes an HTTP request plan and returns the results.
//
// If the client has a Ledger, Do first looks up the advice for the
// plan's cache key and stores it in Execution.Info. If the Gate rejects
// the advice, no request is made: the execution is marked Suppressed
// and the returned error is a *SuppressedError.
//
// Otherwise Do makes a single attempt. An error is returned if the
// attempt failed to speak HTTP, timed out, was refused by RequireTLS,
// was redirected without a target, or was rejected by the Acceptor;
// such errors are of type *url.Error.
// A non-2XX status code does not result in an error, but is recorded in
// the ledger as a failure. Either way Execution.Code holds the recorded
// outcome.
//
// The returned Execution is never nil. If an error was returned, the Err
// field of the Execution always references the same error.
func (c *Client) Do(p *request.Plan) (*request.Execution, error) {
	e := request.Execution{
		Plan: p,
	}

	handlers := c.Handlers
	if handlers == nil {
		handlers = &emptyHandlers
	}
	handlers.run(BeforeExecutionStart, &e)
	e.Start = time.Now()

	key := p.Key()
	if c.Ledger != nil {
		e.Info = c.Ledger.Info(key)
	}

	if !c.gate()(e.Info) {
		err := &SuppressedError{Key: key, Info: e.Info}
		if c.Ledger != nil {
			err.Last, _ = c.Ledger.Last(key)
		}
		e.Suppressed = true
		e.Err = err
		handlers.run(AfterSuppressed, &e)
	} else {
		c.sendAndReceive(p, &e, handlers)
		if e.Timeout() {
			handlers.run(AfterAttemptTimeout, &e)
		}
		l := Listener{Ledger: c.Ledger, Connectivity: c.Connectivity}
		l.Handle(AfterAttempt, &e)
		handlers.run(AfterAttempt, &e)
	}

	e.End = time.Now()
	handlers.run(AfterExecutionEnd, &e)
	return &e, e.Err
}

func (c *Client) sendAndReceive(p *request.Plan, e *request.Execution, handlers *HandlerGroup) {
	ctx, cancel := c.attemptContext(p.Context())
	defer cancel()
	e.Request = p.ToRequest(ctx)
	handlers.run(BeforeAttempt, e)
	if c.RequireTLS && e.Request.URL.Scheme != "https" {
		e.Err = urlErrorWrap(p, failure.NewCoded(failure.SSLRequired, "refusing "+e.Request.URL.Scheme+" fetch"))
		return
	}
	var err error
	e.Response, err = c.doer().Do(e.Request)
	if err != nil {
		if reason, ok := badLocation(err); ok {
			err = failure.NewCoded(failure.MalformedURL, reason)
		}
		e.Err = urlErrorWrap(p, err)
		return
	}
	if isRedirect(e.Response.StatusCode) && e.Response.Header.Get("Location") == "" {
		_ = e.Response.Body.Close()
		e.Err = urlErrorWrap(p, failure.NewCoded(failure.RedirectToNullTarget, e.Response.Status))
		return
	}
	if c.check(p, e, nil) {
		readBody(p, e, handlers, c.limit(e))
		if e.Err == nil {
			c.check(p, e, e.Body)
		}
	} else {
		_ = e.Response.Body.Close()
	}
}

// check runs the acceptor against a 2XX response, once with a nil body
// before the body is read and once with the full body. It reports
// whether the response was accepted.
func (c *Client) check(p *request.Plan, e *request.Execution, body []byte) bool {
	if c.Acceptor == nil || !e.Succeeded() {
		return true
	}
	if sig := c.Acceptor.Accept(e.Response, body); sig != nil {
		e.Err = urlErrorWrap(p, sig)
		e.Body = nil
		return false
	}
	return true
}

// isRedirect matches the status codes net/http follows. The standard
// client hands back a redirect without a Location header unfollowed.
func isRedirect(statusCode int) bool {
	switch statusCode {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// badLocation reports whether err is a net/http refusal to follow a
// redirect whose Location header does not parse. net/http reports this
// only as text.
func badLocation(err error) (string, bool) {
	var ue *url.Error
	if !errors.As(err, &ue) || ue.Err == nil {
		return "", false
	}
	reason := ue.Err.Error()
	return reason, strings.HasPrefix(reason, "failed to parse Location header")
}

// limit returns the body size limit of the Acceptor, or -1 when the
// body is read in full.
func (c *Client) limit(e *request.Execution) int64 {
	if c.Acceptor == nil || !e.Succeeded() {
		return -1
	}
	return accept.LimitOf(c.Acceptor)
}

func (c *Client) attemptContext(parent context.Context) (context.Context, context.CancelFunc) {
	switch {
	case c.Timeout < 0:
		return context.WithCancel(parent)
	case c.Timeout == 0:
		return context.WithTimeout(parent, DefaultTimeout)
	default:
		return context.WithTimeout(parent, c.Timeout)
	}
}

// readBody reads the response body into e.Body. A non-negative limit
// stops the read one byte past limit and fails the attempt with
// failure.UnacceptableFileSize. A body cut short of its declared
// length is recorded as a timeout.
func readBody(p *request.Plan, e *request.Execution, handlers *HandlerGroup, limit int64) {
	defer func() {
		_ = e.Response.Body.Close()
	}()
	handlers.run(BeforeReadBody, e)
	var r io.Reader = e.Response.Body
	if limit >= 0 {
		r = io.LimitReader(r, limit+1)
	}
	var err error
	e.Body, err = io.ReadAll(r)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		e.Body = nil
		e.Err = urlErrorWrap(p, failure.Transport{Kind: failure.TransportTimeout, Err: err})
	case err != nil:
		e.Body = nil
		e.Err = urlErrorWrap(p, err)
	case limit >= 0 && int64(len(e.Body)) > limit:
		e.Body = nil
		e.Err = urlErrorWrap(p, failure.NewCoded(failure.UnacceptableFileSize, fmt.Sprintf("body exceeds %d", limit)))
	}
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers or a fetch strategy, use
// request.NewPlan and Client.Do.
func (c *Client) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
//
// To make a request plan with custom headers or a fetch strategy, use
// request.NewPlan and Client.Do.
func (c *Client) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// CloseIdleConnections invokes the same method on the client's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	doer := c.doer()
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}

	return c.HTTPDoer
}

func (c *Client) gate() Gate {
	if c.Gate == nil {
		return DefaultGate
	}

	return c.Gate
}

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
