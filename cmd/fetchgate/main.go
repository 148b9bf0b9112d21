// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command fetchgate fetches URLs through a ledger-gated client and
// prints, for each URL, the ledger's advice before the fetch and the
// recorded outcome.
//
// Usage:
//
//	fetchgate [-config path] [-env path] [-debug] [-interval d] URL...
//
// Each output line has the form "URL INFO OUTCOME". OUTCOME is
// "suppressed" when the ledger advised against fetching.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogama/fetchgate"
	"github.com/gogama/fetchgate/accept"
	"github.com/gogama/fetchgate/config"
	"github.com/gogama/fetchgate/cooldown"
	"github.com/gogama/fetchgate/ledger"
	"github.com/gogama/fetchgate/metrics"
	"github.com/gogama/fetchgate/netstate"
	"github.com/gogama/fetchgate/request"
	"github.com/gogama/fetchgate/store"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	maxConcurrentFetches = 8
	shutdownTimeout      = 10 * time.Second
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	envPath := flag.String("env", "", "Path to .env file (default: .env if present)")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	interval := flag.Duration("interval", 0, "Repeat the fetch pass at this interval (0 = once)")
	flag.Parse()

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			slog.Error("Failed to load env file", "path", *envPath, "error", err)
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load()
	}

	// Load Configuration first (before setting up logger)
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.Logging, *isDebug))

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: fetchgate [flags] URL...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), *interval, os.Stdout); err != nil {
		slog.Error("fetchgate failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, cfg config.LoggingConfig, debug bool) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil || debug {
		level = slog.LevelDebug
	}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
}

// run builds the stack from cfg and fetches urls once, or once per
// interval until ctx is done. Persistence is drained before run
// returns.
func run(ctx context.Context, cfg *config.Config, urls []string, interval time.Duration, out io.Writer) error {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	l := ledger.New(ledger.Config{
		Freshness:      cfg.Ledger.Freshness,
		Policy:         cooldown.NewPolicy(cfg.Ledger.Cooldown.Durations()),
		Persister:      st,
		Observer:       m,
		Logger:         slog.Default(),
		QueueSize:      cfg.Ledger.QueueSize,
		PersistTimeout: cfg.Ledger.PersistTimeout,
	})
	m.TrackLedger(l)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := l.Close(closeCtx); err != nil {
			slog.Warn("Failed to drain persistence queue", "error", err)
		}
	}()

	if err := st.Health(ctx); err != nil {
		return fmt.Errorf("store health check: %w", err)
	}
	if n, err := l.Restore(ctx, st); err != nil {
		slog.Warn("Failed to restore ledger", "error", err, "restored", n)
	} else {
		slog.Info("Ledger restored", "attempts", n, "driver", cfg.Store.Driver)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var conn fetchgate.Connectivity = fetchgate.AlwaysReachable
	if !cfg.Probe.Disabled {
		mon := netstate.New(netstate.Config{
			Addrs:    cfg.Probe.Addrs,
			Interval: cfg.Probe.Interval,
			Timeout:  cfg.Probe.Timeout,
			Logger:   slog.Default(),
		})
		mon.Check(gctx)
		conn = mon
		g.Go(func() error {
			return ignoreCanceled(mon.Run(gctx))
		})
	}

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("Metrics server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	client := newClient(cfg, l, conn, m)
	defer client.CloseIdleConnections()
	g.Go(func() error {
		defer cancel()
		for {
			pass(gctx, client, cfg.Fetch, urls, out)
			if interval <= 0 {
				return nil
			}
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
	})

	return g.Wait()
}

func newClient(cfg *config.Config, l *ledger.Ledger, conn fetchgate.Connectivity, m *metrics.Metrics) *fetchgate.Client {
	var acceptors []accept.Acceptor
	if len(cfg.Fetch.MediaTypes) > 0 {
		acceptors = append(acceptors, accept.MediaType(cfg.Fetch.MediaTypes...))
	}
	if cfg.Fetch.MaxSize > 0 {
		acceptors = append(acceptors, accept.MaxSize(cfg.Fetch.MaxSize))
	}
	var acceptor accept.Acceptor
	if len(acceptors) > 0 {
		acceptor = accept.And(acceptors...)
	}

	handlers := &fetchgate.HandlerGroup{}
	handlers.On(fetchgate.HandlerFunc(logOutcome), fetchgate.AfterSuppressed, fetchgate.AfterAttempt)
	handlers.On(m, fetchgate.AfterExecutionEnd)

	return &fetchgate.Client{
		HTTPDoer:     &http.Client{},
		Ledger:       l,
		Connectivity: conn,
		Timeout:      cfg.Fetch.Timeout,
		RequireTLS:   cfg.Fetch.RequireTLS,
		Acceptor:     acceptor,
		Handlers:     handlers,
	}
}

func logOutcome(evt fetchgate.Event, e *request.Execution) {
	if evt == fetchgate.AfterSuppressed {
		slog.Debug("Fetch suppressed", "key", e.Plan.Key(), "info", e.Info.String())
		return
	}
	slog.Debug("Fetch attempt", "key", e.Plan.Key(), "code", e.Code.String(),
		"status", e.StatusCode(), "duration", e.Duration(), "error", e.Err)
}

// pass fetches every URL concurrently through d and writes one line per
// URL to out, in input order.
func pass(ctx context.Context, d fetchgate.Doer, cfg config.FetchConfig, urls []string, out io.Writer) {
	lines := make([]string, len(urls))
	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			lines[i] = fetch(ctx, d, cfg, u)
			return nil
		})
	}
	_ = g.Wait()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

func fetch(ctx context.Context, d fetchgate.Doer, cfg config.FetchConfig, u string) string {
	p, err := request.NewPlanWithContext(ctx, "GET", u)
	if err != nil {
		slog.Debug("Skipping URL", "url", u, "error", err)
		return fmt.Sprintf("%s %s %s", u, ledger.NeverAttempted, "MalformedURL")
	}
	p.Strategy = cfg.Strategy
	if cfg.UserAgent != "" {
		p.Header.Set("User-Agent", cfg.UserAgent)
	}
	e, err := d.Do(p)
	if e.Suppressed {
		return fmt.Sprintf("%s %s suppressed", u, e.Info)
	}
	if err != nil && ctx.Err() != nil {
		return fmt.Sprintf("%s %s cancelled", u, e.Info)
	}
	return fmt.Sprintf("%s %s %s", u, e.Info, e.Code)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
