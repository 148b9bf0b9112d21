// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/gogama/fetchgate"
	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	l := ledger.New(ledger.Config{Observer: m})
	m.TrackLedger(l)

	l.Record("a", failure.Success)
	l.Record("b", failure.Timeout)
	l.Record("c", 502)
	l.Record("d", failure.UnknownHost)
	l.Record("e", failure.ConnectionRefused)
	l.Record("f", failure.ConnectionRefused)
	_ = l.Info("a")
	_ = l.Info("z")
	m.PersistFailed("a", errors.New("disk full"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AttemptsRecorded.WithLabelValues("Success", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AttemptsRecorded.WithLabelValues("Timeout", "none")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AttemptsRecorded.WithLabelValues("HTTP 502", "short")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AttemptsRecorded.WithLabelValues("UnknownHost", "long")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AttemptsRecorded.WithLabelValues("ConnectionRefused", "medium")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InfoQueries.WithLabelValues("FetchedRecently")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.InfoQueries.WithLabelValues("NeverAttempted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PersistFailures))

	n, err := testutil.GatherAndCount(reg, "fetchgate_ledger_keys")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_Handle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	start := time.Now()

	m.Handle(fetchgate.AfterExecutionEnd, &request.Execution{Suppressed: true})
	m.Handle(fetchgate.AfterExecutionEnd, &request.Execution{Code: 404, Start: start, End: start.Add(time.Second)})
	m.Handle(fetchgate.AfterAttempt, &request.Execution{Code: 404, Start: start, End: start.Add(time.Second)})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchesSuppressed))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
