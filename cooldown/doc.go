// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package cooldown maps failure codes to the minimum time that should pass
after a failed fetch attempt before another attempt is worth making.

Every failure code belongs to one of four buckets, ordered from shortest
to longest cooldown:

• None: transient network conditions (Timeout, InternetUnreachable,
LikelyTemporaryNetworkProblem) that may already have cleared;

• Short: transient upstream failures (HTTP 502 and 504);

• Medium: everything not listed elsewhere, including generic server
errors, ConnectionRefused and UnknownError;

• Long: durable conditions where nothing about the client's network
state would change the outcome (structured pipeline codes such as
UnacceptableMediaType or MalformedURL, UnknownHost, and HTTP 400, 401,
409, 451 and 501).

Bucket membership is fixed. The duration of each bucket is a policy
knob set with NewPolicy:

	p := cooldown.NewPolicy(cooldown.Durations{
		None:   0,
		Short:  5 * time.Minute,
		Medium: 30 * time.Minute,
		Long:   12 * time.Hour,
	})
	d := p.Cooldown(failure.Code(502)) // 5 minutes

Success has no cooldown. Callers use a separate freshness window for
successful attempts, and BucketOf panics if given failure.Success.
*/
package cooldown
