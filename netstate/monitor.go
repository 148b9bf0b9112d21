// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package netstate tracks whether the host can reach the network by
// periodically opening TCP connections to well-known addresses.
package netstate

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

const (
	// DefaultInterval is the probe interval used when Config.Interval
	// is zero.
	DefaultInterval = 30 * time.Second
	// DefaultTimeout bounds each dial when Config.Timeout is zero.
	DefaultTimeout = 3 * time.Second
)

// DefaultAddrs are probed when Config.Addrs is empty.
var DefaultAddrs = []string{"1.1.1.1:443", "8.8.8.8:443"}

// A DialFunc opens a connection in the manner of net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Config configures a Monitor.
type Config struct {
	Addrs    []string
	Interval time.Duration
	Timeout  time.Duration
	Dial     DialFunc
	Logger   *slog.Logger
}

// A Monitor reports network reachability from the result of its latest
// probe. A probe succeeds if any address accepts a TCP connection.
//
// Until the first probe completes, the network is assumed reachable.
type Monitor struct {
	addrs     []string
	interval  time.Duration
	timeout   time.Duration
	dial      DialFunc
	logger    *slog.Logger
	reachable atomic.Bool
}

// New constructs a Monitor. Call Run, or Check, to start probing.
func New(config Config) *Monitor {
	{
		if len(config.Addrs) == 0 {
			config.Addrs = DefaultAddrs
		}
		if config.Interval <= 0 {
			config.Interval = DefaultInterval
		}
		if config.Timeout <= 0 {
			config.Timeout = DefaultTimeout
		}
		if config.Dial == nil {
			config.Dial = (&net.Dialer{}).DialContext
		}
		if config.Logger == nil {
			config.Logger = slog.Default()
		}
	}

	m := &Monitor{
		addrs:    config.Addrs,
		interval: config.Interval,
		timeout:  config.Timeout,
		dial:     config.Dial,
		logger:   config.Logger,
	}
	m.reachable.Store(true)
	return m
}

// Reachable reports the result of the latest probe.
func (m *Monitor) Reachable() bool {
	return m.reachable.Load()
}

// Run probes immediately and then once per interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check probes the addresses in order, stopping at the first that
// accepts a connection, and stores and returns the result. A probe cut
// short by ctx leaves the stored result unchanged.
func (m *Monitor) Check(ctx context.Context) bool {
	for _, addr := range m.addrs {
		if m.probe(ctx, addr) {
			m.set(true)
			return true
		}
		if ctx.Err() != nil {
			return m.Reachable()
		}
	}
	m.set(false)
	return false
}

func (m *Monitor) probe(ctx context.Context, addr string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		m.logger.Debug("network probe failed", "addr", addr, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}

func (m *Monitor) set(reachable bool) {
	if m.reachable.Swap(reachable) != reachable {
		m.logger.Info("network reachability changed", "reachable", reachable)
	}
}
