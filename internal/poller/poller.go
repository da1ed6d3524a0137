// Package poller runs the periodic refresh cycle: fetch a reading, update the
// display board, append a sample to the rolling series, redraw the charts and
// notify listeners.
//
// A failed cycle changes nothing. Cycles never overlap: depending on the
// overlap policy a tick that fires while a cycle is in flight is dropped
// (skip) or queued behind it (serialize), so insertion order always matches
// chronological order.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/isstrack/internal/chart"
	"github.com/star/isstrack/internal/display"
	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/series"
	"github.com/star/isstrack/internal/telemetry"
)

// OverlapPolicy decides what happens to a tick while a cycle is in flight.
type OverlapPolicy string

const (
	OverlapSkip      OverlapPolicy = "skip"
	OverlapSerialize OverlapPolicy = "serialize"
)

// ParseOverlap validates an overlap policy name. Empty means skip.
func ParseOverlap(s string) (OverlapPolicy, error) {
	switch OverlapPolicy(s) {
	case "", OverlapSkip:
		return OverlapSkip, nil
	case OverlapSerialize:
		return OverlapSerialize, nil
	}
	return "", fmt.Errorf("unknown overlap policy %q (want skip or serialize)", s)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Time between cycle starts (default: 5s).
	Timeout  time.Duration // Per-cycle deadline (default: 4s).
	Overlap  OverlapPolicy // Tick handling while a cycle runs (default: skip).
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 4 * time.Second
	}
	if c.Overlap == "" {
		c.Overlap = OverlapSkip
	}
	return c
}

// Update describes the state after a successful cycle.
type Update struct {
	Source   string
	Reading  telemetry.Reading
	Fields   display.Fields
	Snapshot series.Snapshot
	At       time.Time
}

// Listener is called after each successful cycle, in cycle order. It must not block.
type Listener func(Update)

// Poller owns the refresh cycle. The record is mutated only here.
type Poller struct {
	source   telemetry.Source
	board    *display.Board
	record   *series.Record
	renderer chart.Renderer
	config   Config
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	listeners []Listener

	commitMu sync.Mutex
	inflight atomic.Bool
	pending  chan struct{}
	latest   atomic.Pointer[Update]
	wg       sync.WaitGroup
}

// New creates a poller.
func New(source telemetry.Source, board *display.Board, record *series.Record, renderer chart.Renderer, config Config, logger *slog.Logger) *Poller {
	return &Poller{
		source:   source,
		board:    board,
		record:   record,
		renderer: renderer,
		config:   config.withDefaults(),
		logger:   logger,
		now:      time.Now,
		pending:  make(chan struct{}, 1),
	}
}

// Subscribe registers l for updates after each successful cycle.
func (p *Poller) Subscribe(l Listener) {
	p.mu.Lock()
	p.listeners = append(p.listeners, l)
	p.mu.Unlock()
}

// Config returns the effective configuration.
func (p *Poller) Config() Config {
	return p.config
}

// Ready reports whether at least one cycle has succeeded.
func (p *Poller) Ready() bool {
	return p.latest.Load() != nil
}

// Latest returns the most recent successful update.
func (p *Poller) Latest() (Update, bool) {
	u := p.latest.Load()
	if u == nil {
		return Update{}, false
	}
	return *u, true
}

// Run starts a cycle immediately and then on every interval until ctx is
// cancelled. It returns after in-flight cycles finish.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started",
		"component", "poller",
		"source", p.source.Name(),
		"interval_ms", p.config.Interval.Milliseconds(),
		"timeout_ms", p.config.Timeout.Milliseconds(),
		"overlap", string(p.config.Overlap),
	)

	if p.config.Overlap == OverlapSerialize {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	p.tick(ctx)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-ctx.Done():
			p.wg.Wait()
			p.logger.Info("poller stopped", "component", "poller")
			return
		}
	}
}

// tick starts or queues a cycle without blocking the caller.
func (p *Poller) tick(ctx context.Context) {
	busy := p.inflight.Load()
	if busy {
		metrics.IncPollOverlap(string(p.config.Overlap))
	}

	if p.config.Overlap == OverlapSerialize {
		select {
		case p.pending <- struct{}{}:
		default:
			p.logger.Debug("tick coalesced, cycle already queued", "component", "poller")
		}
		return
	}

	if !p.inflight.CompareAndSwap(false, true) {
		p.logger.Debug("tick skipped, cycle in flight", "component", "poller")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight.Store(false)
		p.Cycle(ctx)
	}()
}

func (p *Poller) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-p.pending:
			p.inflight.Store(true)
			p.Cycle(ctx)
			p.inflight.Store(false)
		case <-ctx.Done():
			return
		}
	}
}

// Cycle performs one refresh cycle under the per-cycle timeout.
func (p *Poller) Cycle(ctx context.Context) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	reading, err := p.source.Fetch(ctx)
	if err != nil {
		kind := telemetry.Classify(err)
		metrics.ObservePollCycle(kind, time.Since(start))
		level := slog.LevelWarn
		if kind == telemetry.KindCanceled {
			level = slog.LevelDebug
		}
		p.logger.Log(ctx, level, "poll cycle failed",
			"component", "poller",
			"source", p.source.Name(),
			"kind", kind,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return err
	}

	u := p.commit(reading)
	metrics.ObservePollCycle("", time.Since(start))
	p.logger.Debug("poll cycle complete",
		"component", "poller",
		"source", u.Source,
		"samples", u.Snapshot.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// commit applies a successful reading: board, then series, then redraw,
// then listeners.
func (p *Poller) commit(r telemetry.Reading) Update {
	p.commitMu.Lock()
	defer p.commitMu.Unlock()

	now := p.now()
	p.board.Update(r, now)
	p.record.Append(now.UnixMilli(), r.Velocity, r.Altitude)

	snap := p.record.Snapshot()
	stats := p.record.Stats()
	metrics.SetSeriesStats(stats.Length, stats.Evictions)

	if err := p.renderer.Redraw(snap); err != nil {
		metrics.IncRedrawErrors()
		p.logger.Warn("chart redraw failed", "component", "poller", "error", err)
	}

	u := Update{
		Source:   p.source.Name(),
		Reading:  r,
		Fields:   p.board.Fields(),
		Snapshot: snap,
		At:       now,
	}
	p.latest.Store(&u)

	p.mu.RLock()
	listeners := p.listeners
	p.mu.RUnlock()
	for _, l := range listeners {
		l(u)
	}
	return u
}
