// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogama/fetchgate/ledger"
)

// ErrSuppressed is matched by errors.Is for every *SuppressedError.
var ErrSuppressed = errors.New("fetchgate: fetch suppressed")

// A SuppressedError is returned by Client when the ledger's advice
// stopped it from attempting a fetch.
type SuppressedError struct {
	// Key is the cache key of the suppressed plan.
	Key string
	// Info is the advice that caused the suppression.
	Info ledger.Info
	// Last is the most recent recorded attempt for Key, if any.
	Last ledger.Attempt
}

func (err *SuppressedError) Error() string {
	if err.Last.Timestamp.IsZero() {
		return fmt.Sprintf("fetchgate: fetch of %s suppressed: %s", err.Key, err.Info)
	}
	return fmt.Sprintf("fetchgate: fetch of %s suppressed: %s (last attempt %s at %s)",
		err.Key, err.Info, err.Last.Code, err.Last.Timestamp.Format(time.RFC3339))
}

// Is reports whether target is ErrSuppressed.
func (err *SuppressedError) Is(target error) bool {
	return target == ErrSuppressed
}
