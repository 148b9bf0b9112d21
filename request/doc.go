// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Plan (describes a fetch) and
Execution (describes the execution of a Plan by the gated client).

A Plan names the resource to fetch and the strategy used to fetch it.
Its cache key, returned by Plan.Key, identifies the fetch target in the
attempt ledger. The key is derived only from the normalized URL and the
strategy, so it is stable across process restarts and persisted ledger
entries stay valid:

	p, err := request.NewPlan("GET", "https://Example.COM:443/cat.png#top")
	...
	p.Key() // "https://example.com/cat.png"

Strategies let a single URL be fetched in more than one way (for example
as a full image and as a thumbnail) without the attempts interfering:

	p.Strategy = "thumbnail"
	p.Key() // "thumbnail https://example.com/cat.png"

An Execution is both the output type of the client's fetch methods and
the input type of event handlers. You will typically not allocate
Execution instances yourself.
*/
package request
