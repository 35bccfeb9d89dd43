package transport

import (
	"context"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/tkjaer/epinger/internal/shared"
)

// Probing sends each attempt through a single-packet pro-bing Pinger.
// Windows always needs privileged mode.
type Probing struct {
	resolver   *Resolver
	privileged bool
}

// NewProbing creates a pro-bing backed transport
func NewProbing(resolver *Resolver, privileged bool) *Probing {
	return &Probing{resolver: resolver, privileged: privileged}
}

func (t *Probing) Attempt(ctx context.Context, host string, timeout int) shared.AttemptOutcome {
	addr, err := t.resolver.Resolve(ctx, host)
	if err != nil {
		return shared.ResolutionError(err.Error())
	}
	address := addr.String()

	// The address is a literal, so this does not hit DNS
	pinger, err := probing.NewPinger(address)
	if err != nil {
		return shared.Unreachable(address, err.Error())
	}
	pinger.Count = 1
	if d := Deadline(timeout); d > 0 {
		pinger.Timeout = d
	}
	pinger.SetPrivileged(t.privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		if ctx.Err() != nil {
			return shared.Timeout(address)
		}
		return shared.Unreachable(address, err.Error())
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 || len(stats.Rtts) == 0 {
		return shared.Timeout(address)
	}
	return shared.Success(stats.Rtts[0], address)
}
