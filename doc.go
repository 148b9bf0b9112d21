// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package fetchgate remembers the outcome of every fetch of a remote
resource and advises whether fetching it again is worthwhile.

Failed fetches are classified into a small taxonomy of codes (package
failure), each code maps to a cooldown (package cooldown), and the last
attempt per cache key is kept in a concurrent ledger (package ledger)
that can be persisted to SQLite, PostgreSQL or Redis (package store).

Create a Client with a Ledger to fetch through the gate:

	l := ledger.New(ledger.Config{})
	defer l.Close(ctx)
	client := &fetchgate.Client{
		Ledger: l,
	}
	e, err := client.Get("https://www.example.com/cat.png")
	if errors.Is(err, fetchgate.ErrSuppressed) {
		// The last attempt failed and its cooldown has not elapsed.
	}

When fetching happens elsewhere, feed the outcomes to a Listener and
ask the ledger for advice before each fetch:

	listener := &fetchgate.Listener{
		Ledger:       l,
		Connectivity: monitor,
	}
	if l.Info(key) != ledger.FailedRecently {
		err := fetch(key)
		listener.Observe(key, err)
	}

To hook into the fine-grained details of the client's execution logic,
install a handler into the appropriate handler chain:

	handlers := &fetchgate.HandlerGroup{}
	handlers.PushBack(fetchgate.AfterAttempt, fetchgate.HandlerFunc(
		func(_ fetchgate.Event, e *request.Execution) {
			log.Printf("%s: %s", e.Plan.Key(), e.Code)
		}))
	client := &fetchgate.Client{
		Ledger:   l,
		Handlers: handlers,
	}
*/
package fetchgate
