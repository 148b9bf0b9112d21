// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports ledger and client activity as Prometheus
// metrics.
package metrics

import (
	"strings"

	"github.com/gogama/fetchgate"
	"github.com/gogama/fetchgate/cooldown"
	"github.com/gogama/fetchgate/failure"
	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/request"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements ledger.Observer and fetchgate.Handler.
type Metrics struct {
	reg prometheus.Registerer

	// AttemptsRecorded counts attempts recorded in the ledger.
	AttemptsRecorded *prometheus.CounterVec
	// InfoQueries counts ledger lookups by their advice.
	InfoQueries *prometheus.CounterVec
	// PersistFailures counts attempts that could not be persisted.
	PersistFailures prometheus.Counter
	// FetchDuration tracks the duration of fetches made by a Client.
	FetchDuration *prometheus.HistogramVec
	// FetchesSuppressed counts fetches a Client declined to make.
	FetchesSuppressed prometheus.Counter
}

// New creates the collectors and registers them with reg. If reg is
// nil, prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		AttemptsRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchgate_attempts_recorded_total",
				Help: "Total number of fetch attempts recorded",
			},
			[]string{"code", "bucket"},
		),
		InfoQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fetchgate_info_queries_total",
				Help: "Total number of ledger lookups",
			},
			[]string{"info"},
		),
		PersistFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "fetchgate_persist_failures_total",
				Help: "Total number of attempts that failed to persist",
			},
		),
		FetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fetchgate_fetch_duration_seconds",
				Help:    "Fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code"},
		),
		FetchesSuppressed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "fetchgate_fetches_suppressed_total",
				Help: "Total number of fetches suppressed by the ledger",
			},
		),
	}
}

// TrackLedger registers a gauge reporting the number of keys in l.
func (m *Metrics) TrackLedger(l *ledger.Ledger) {
	promauto.With(m.reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fetchgate_ledger_keys",
			Help: "Number of cache keys in the ledger",
		},
		func() float64 { return float64(l.Len()) },
	)
}

// Recorded implements ledger.Observer.
func (m *Metrics) Recorded(_ string, a ledger.Attempt) {
	m.AttemptsRecorded.WithLabelValues(a.Code.String(), bucketLabel(a.Code)).Inc()
}

// Queried implements ledger.Observer.
func (m *Metrics) Queried(_ string, info ledger.Info) {
	m.InfoQueries.WithLabelValues(info.String()).Inc()
}

// PersistFailed implements ledger.Observer.
func (m *Metrics) PersistFailed(string, error) {
	m.PersistFailures.Inc()
}

// Handle implements fetchgate.Handler. Install it for the
// AfterExecutionEnd event.
func (m *Metrics) Handle(evt fetchgate.Event, e *request.Execution) {
	if evt != fetchgate.AfterExecutionEnd {
		return
	}
	if e.Suppressed {
		m.FetchesSuppressed.Inc()
		return
	}
	m.FetchDuration.WithLabelValues(e.Code.String()).Observe(e.Duration().Seconds())
}

func bucketLabel(c failure.Code) string {
	if c == failure.Success {
		return "success"
	}
	return strings.ToLower(cooldown.BucketOf(c).String())
}
