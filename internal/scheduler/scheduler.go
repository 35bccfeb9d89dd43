// Package scheduler fans a run's targets out over a bounded pool of host
// probers and collects their results in submission order.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tkjaer/epinger/internal/shared"
)

var (
	ErrNoTargets     = errors.New("no targets to probe")
	ErrInvalidConfig = errors.New("invalid run configuration")
)

// HostProber probes a single target to completion
type HostProber interface {
	Probe(ctx context.Context, target shared.Target, cfg shared.RunConfig) shared.HostResult
}

// Observer is notified once per completed host. Calls come from worker
// goroutines concurrently, so implementations must be safe for that.
type Observer interface {
	HostDone(index int, result shared.HostResult)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(index int, result shared.HostResult)

func (f ObserverFunc) HostDone(index int, result shared.HostResult) {
	f(index, result)
}

// Scheduler runs host probers with bounded concurrency
type Scheduler struct {
	prober    HostProber
	observers []Observer
	now       func() time.Time
	newID     func() string
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithObserver registers an observer for completed hosts
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithClock replaces the clock used for run timing
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithIDFunc replaces the run ID generator
func WithIDFunc(fn func() string) Option {
	return func(s *Scheduler) {
		s.newID = fn
	}
}

// New creates a Scheduler around prober
func New(prober HostProber, opts ...Option) *Scheduler {
	s := &Scheduler{
		prober: prober,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run probes every target with at most cfg.MaxThreads probers active at a
// time. The result holds exactly one HostResult per target, in the order
// the targets were given, and the wall-clock time of the whole run.
func (s *Scheduler) Run(ctx context.Context, targets []shared.Target, cfg shared.RunConfig) (shared.RunResult, error) {
	if len(targets) == 0 {
		return shared.RunResult{}, ErrNoTargets
	}
	if cfg.NumRequests < 1 {
		return shared.RunResult{}, fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidConfig, cfg.NumRequests)
	}
	if cfg.MaxThreads < 1 {
		cfg.MaxThreads = 1
	}

	run := shared.RunResult{
		ID:      s.newID(),
		Started: s.now(),
		Config:  cfg,
		Hosts:   make([]shared.HostResult, len(targets)),
	}
	slog.Debug("Starting run", "id", run.ID, "targets", len(targets), "threads", cfg.MaxThreads,
		"count", cfg.NumRequests, "timeout", cfg.RequestTimeout)

	var g errgroup.Group
	g.SetLimit(cfg.MaxThreads)
	for i, target := range targets {
		g.Go(func() error {
			result := s.prober.Probe(ctx, target, cfg)
			run.Hosts[i] = result
			for _, o := range s.observers {
				o.HostDone(i, result)
			}
			return nil
		})
	}
	// Host probers never fail, so there is no error to propagate
	_ = g.Wait()

	run.Elapsed = s.now().Sub(run.Started)
	slog.Debug("Run complete", "id", run.ID, "elapsed", run.Elapsed)
	return run, nil
}
