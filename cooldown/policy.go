// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cooldown

import (
	"fmt"
	"time"

	"github.com/gogama/fetchgate/failure"
)

// A Bucket groups failure codes which share a cooldown duration.
// Buckets are ordered: None < Short < Medium < Long.
type Bucket int

const (
	// None means retry immediately.
	None Bucket = iota
	// Short is for transient upstream failures.
	Short
	// Medium is the default bucket.
	Medium
	// Long is for failures that are unlikely to clear soon.
	Long
)

var bucketNames = []string{"None", "Short", "Medium", "Long"}

// Buckets returns all buckets in ascending order.
func Buckets() []Bucket {
	return []Bucket{None, Short, Medium, Long}
}

// String returns the name of the bucket.
func (b Bucket) String() string {
	if b < None || b > Long {
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
	return bucketNames[b]
}

// BucketOf returns the bucket of a failure code. It panics if c is
// failure.Success.
func BucketOf(c failure.Code) Bucket {
	if c == failure.Success {
		panic("fetchgate/cooldown: success has no cooldown")
	}

	switch c {
	case failure.Timeout,
		failure.InternetUnreachable,
		failure.LikelyTemporaryNetworkProblem:
		return None
	case 502, // Bad Gateway
		504: // Gateway Timeout
		return Short
	case failure.HTMLBodyLacksRequiredData,
		failure.UnacceptableFileSize,
		failure.UnacceptableMediaType,
		failure.SSLRequired,
		failure.RedirectToNullTarget,
		failure.MalformedURL,
		failure.UnknownHost,
		400, // Bad Request
		401, // Unauthorized
		409, // Conflict
		451, // Unavailable For Legal Reasons
		501: // Not Implemented
		return Long
	default:
		return Medium
	}
}

// A Policy returns the cooldown for a failure code.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines, and must not be called with failure.Success.
type Policy interface {
	Cooldown(c failure.Code) time.Duration
}

// Durations holds the cooldown duration of each bucket.
type Durations struct {
	None   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// DefaultDurations are the bucket durations used by DefaultPolicy.
var DefaultDurations = Durations{
	None:   0,
	Short:  10 * time.Minute,
	Medium: 60 * time.Minute,
	Long:   24 * time.Hour,
}

// DefaultPolicy is the cooldown policy built from DefaultDurations.
var DefaultPolicy = NewPolicy(DefaultDurations)

// Validate returns an error unless 0 <= None < Short < Medium < Long.
func (d Durations) Validate() error {
	if d.None < 0 {
		return fmt.Errorf("fetchgate/cooldown: negative none duration %s", d.None)
	}
	if !(d.None < d.Short && d.Short < d.Medium && d.Medium < d.Long) {
		return fmt.Errorf("fetchgate/cooldown: durations must be ordered none < short < medium < long, got %s < %s < %s < %s",
			d.None, d.Short, d.Medium, d.Long)
	}
	return nil
}

// Of returns the duration of bucket b.
func (d Durations) Of(b Bucket) time.Duration {
	switch b {
	case None:
		return d.None
	case Short:
		return d.Short
	case Long:
		return d.Long
	default:
		return d.Medium
	}
}

// NewPolicy constructs a Policy from bucket durations. It panics if the
// durations are not valid according to Durations.Validate.
func NewPolicy(d Durations) Policy {
	if err := d.Validate(); err != nil {
		panic(err.Error())
	}
	return policy(d)
}

type policy Durations

func (p policy) Cooldown(c failure.Code) time.Duration {
	return Durations(p).Of(BucketOf(c))
}
