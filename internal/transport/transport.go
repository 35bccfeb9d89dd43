// Package transport implements single echo attempts against one host.
//
// A Transport performs exactly one attempt per call and reports the result as
// a shared.AttemptOutcome. Failures (timeouts, unreachable hosts, names that
// do not resolve) are outcomes, never errors. The integer timeout passed to
// Attempt is interpreted in TimeoutUnit, which is fixed per platform at build
// time: seconds on POSIX systems and milliseconds on Windows.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/tkjaer/epinger/internal/shared"
)

// Transport performs one echo attempt against host, bounded by timeout
type Transport interface {
	Attempt(ctx context.Context, host string, timeout int) shared.AttemptOutcome
}

// Func adapts a plain function to the Transport interface
type Func func(ctx context.Context, host string, timeout int) shared.AttemptOutcome

func (f Func) Attempt(ctx context.Context, host string, timeout int) shared.AttemptOutcome {
	return f(ctx, host, timeout)
}

// Kind names a transport implementation
type Kind string

const (
	KindExec    Kind = "exec"    // system ping command, no privileges needed
	KindICMP    Kind = "icmp"    // native ICMP echo sockets
	KindProbing Kind = "probing" // pro-bing pinger
)

// Kinds lists every selectable transport
var Kinds = []Kind{KindExec, KindICMP, KindProbing}

// Options configures the transport built by New
type Options struct {
	Family     Family
	Privileged bool
	CacheTTL   time.Duration
}

// New builds the transport named by kind. The returned close function
// releases the resolver cache and must be called once the run is over.
func New(kind Kind, opts Options) (Transport, func(), error) {
	resolver := NewResolver(opts.Family, opts.CacheTTL)
	switch kind {
	case KindExec:
		return NewExec(resolver), resolver.Close, nil
	case KindICMP:
		return NewICMP(resolver, opts.Privileged), resolver.Close, nil
	case KindProbing:
		return NewProbing(resolver, opts.Privileged), resolver.Close, nil
	}
	resolver.Close()
	return nil, nil, fmt.Errorf("unknown transport %q", kind)
}

// Deadline converts a timeout in the platform's native unit to a duration
func Deadline(timeout int) time.Duration {
	if timeout <= 0 {
		return 0
	}
	return time.Duration(timeout) * TimeoutUnit
}

// attemptContext bounds ctx by the attempt timeout
func attemptContext(ctx context.Context, timeout int) (context.Context, context.CancelFunc) {
	if d := Deadline(timeout); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
