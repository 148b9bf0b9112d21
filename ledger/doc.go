// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package ledger remembers the outcome of the most recent fetch attempt for
each cache key, and advises whether a new attempt is worth making now.

Create one Ledger per process and share it between all fetch workers:

	l := ledger.New(ledger.Config{
		Persister: store,
	})
	defer l.Close(context.Background())

	if _, err := l.Restore(ctx, store); err != nil {
		...
	}

Before fetching, ask the ledger for advice:

	switch l.Info(key) {
	case ledger.FailedRecently:
		// Skip; the last attempt failed and its cooldown has not elapsed.
	default:
		// Fetch.
	}

After fetching, record the outcome:

	l.Record(key, failure.Success)

Only the most recent Attempt is kept per key. Record replaces it
atomically, so concurrent callers of Info see either the old or the new
Attempt. Every Record is also handed to the Persister on a background
goroutine; a slow or failing Persister never blocks Record.

There is deliberately no pairing between Info and the fetch that follows
it. Two goroutines may both be advised to fetch the same key, and the
worst outcome is a redundant network call.
*/
package ledger
