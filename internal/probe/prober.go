// Package probe runs the sequential echo attempts for a single target.
package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/tkjaer/epinger/internal/shared"
	"github.com/tkjaer/epinger/internal/transport"
)

// errCancelled is recorded for attempts skipped because the run was cancelled
const errCancelled = "cancelled"

// Prober issues the attempts for one host through a Transport. It holds no
// per-host state and is safe for concurrent use by many workers.
type Prober struct {
	transport transport.Transport
	interval  time.Duration
	now       func() time.Time
	ptr       PTRResolver
}

// PTRResolver looks up the reverse name of an address
type PTRResolver interface {
	Lookup(ctx context.Context, ip string) string
}

// Option configures a Prober
type Option func(*Prober)

// WithInterval sets the pause between consecutive attempts to the same host
func WithInterval(d time.Duration) Option {
	return func(p *Prober) {
		p.interval = d
	}
}

// WithPTR looks up the reverse name of each host's address after probing
func WithPTR(r PTRResolver) Option {
	return func(p *Prober) {
		p.ptr = r
	}
}

// WithClock replaces the clock used for per-host timing
func WithClock(now func() time.Time) Option {
	return func(p *Prober) {
		p.now = now
	}
}

// New creates a Prober on top of t
func New(t transport.Transport, opts ...Option) *Prober {
	p := &Prober{
		transport: t,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe runs cfg.NumRequests attempts against target, one after the other,
// and summarizes them. It never fails: every problem is an attempt outcome.
//
// Once an attempt reports a resolution error, the remaining attempts are
// recorded as resolution errors without calling the transport again. When
// ctx is cancelled, the remaining attempts are recorded as cancelled
// timeouts so the result still carries one outcome per attempt.
func (p *Prober) Probe(ctx context.Context, target shared.Target, cfg shared.RunConfig) shared.HostResult {
	start := p.now()
	attempts := make([]shared.AttemptOutcome, 0, max(cfg.NumRequests, 0))

	var unresolved *shared.AttemptOutcome
	for seq := 1; seq <= cfg.NumRequests; seq++ {
		var outcome shared.AttemptOutcome
		switch {
		case unresolved != nil:
			outcome = shared.ResolutionError(unresolved.Error)
		case ctx.Err() != nil:
			outcome = shared.Timeout("")
			outcome.Error = errCancelled
		default:
			outcome = p.transport.Attempt(ctx, string(target), cfg.RequestTimeout)
			if outcome.Status == shared.StatusResolutionError {
				slog.Debug("Host did not resolve, skipping remaining attempts", "host", target, "error", outcome.Error)
				first := outcome
				unresolved = &first
			}
		}
		outcome.Seq = seq
		attempts = append(attempts, outcome)

		slog.Debug("Attempt complete", "host", target, "seq", seq, "status", outcome.Status, "rtt", outcome.RTT)

		if seq < cfg.NumRequests && unresolved == nil && ctx.Err() == nil {
			p.wait(ctx)
		}
	}

	result := shared.Summarize(target, attempts)
	if p.ptr != nil && result.Address != "" && ctx.Err() == nil {
		result.PTR = p.ptr.Lookup(ctx, result.Address)
	}
	result.Duration = p.now().Sub(start)
	return result
}

// wait sleeps for the configured interval or until ctx is done
func (p *Prober) wait(ctx context.Context) {
	if p.interval <= 0 {
		return
	}
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
