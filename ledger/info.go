// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"
	"time"

	"github.com/gogama/fetchgate/failure"
)

// An Info is the ledger's advice about fetching a key, as returned by
// Ledger.Info.
type Info int

const (
	// NeverAttempted means there is no recorded attempt for the key.
	NeverAttempted Info = iota
	// FetchedRecently means the last attempt succeeded within the
	// freshness window.
	FetchedRecently
	// FetchedBeforeButMightNotWork means the last attempt succeeded, but
	// long enough ago that the resource may have been evicted from any
	// downstream cache, or may have changed.
	FetchedBeforeButMightNotWork
	// FailedBeforeButMightWork means the last attempt failed, but its
	// cooldown has elapsed.
	FailedBeforeButMightWork
	// FailedRecently means the last attempt failed and its cooldown has
	// not elapsed. A new attempt is not advisable.
	FailedRecently
)

var infoNames = []string{
	"NeverAttempted",
	"FetchedRecently",
	"FetchedBeforeButMightNotWork",
	"FailedBeforeButMightWork",
	"FailedRecently",
}

// Infos returns every Info value.
func Infos() []Info {
	return []Info{
		NeverAttempted,
		FetchedRecently,
		FetchedBeforeButMightNotWork,
		FailedBeforeButMightWork,
		FailedRecently,
	}
}

// String returns the name of the Info.
func (i Info) String() string {
	if i < 0 || int(i) >= len(infoNames) {
		return fmt.Sprintf("Info(%d)", int(i))
	}
	return infoNames[i]
}

// An Attempt is the recorded outcome of one fetch attempt. A Code of
// failure.Success means the fetch succeeded.
//
// Attempts are values and are never modified after they are recorded. A
// later attempt for the same key replaces, rather than updates, the
// previous one.
type Attempt struct {
	Code      failure.Code
	Timestamp time.Time
}

// Succeeded reports whether the attempt was successful.
func (a Attempt) Succeeded() bool {
	return a.Code == failure.Success
}
