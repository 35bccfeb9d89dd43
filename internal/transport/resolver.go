package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultCacheTTL is how long a resolved address is reused
const DefaultCacheTTL = 5 * time.Minute

var errNoAddress = errors.New("no address for requested family")

// Family restricts which address family a host name resolves to
type Family int

const (
	FamilyAny Family = iota
	FamilyIPv4
	FamilyIPv6
)

func (f Family) network() string {
	switch f {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	default:
		return "ip"
	}
}

func (f Family) matches(addr netip.Addr) bool {
	switch f {
	case FamilyIPv4:
		return addr.Is4()
	case FamilyIPv6:
		return addr.Is6()
	default:
		return true
	}
}

// ResolveError reports a host name that could not be turned into an address
type ResolveError struct {
	Host string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Host, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

type lookupFunc func(ctx context.Context, network, host string) ([]netip.Addr, error)

// Resolver turns host names into addresses, caching answers so that
// repeated attempts and duplicate targets do not repeat the lookup
type Resolver struct {
	family Family
	cache  *ttlcache.Cache[string, netip.Addr]
	lookup lookupFunc
}

// NewResolver creates a Resolver. Close must be called to stop the cache janitor.
func NewResolver(family Family, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	r := &Resolver{
		family: family,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, netip.Addr](ttl),
			ttlcache.WithDisableTouchOnHit[string, netip.Addr](),
		),
		lookup: net.DefaultResolver.LookupNetIP,
	}
	go r.cache.Start()
	return r
}

// Resolve returns the address for host. IP literals are returned as-is.
func (r *Resolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap(), nil
	}

	if item := r.cache.Get(host); item != nil {
		return item.Value(), nil
	}

	addrs, err := r.lookup(ctx, r.family.network(), host)
	if err != nil {
		return netip.Addr{}, &ResolveError{Host: host, Err: err}
	}
	for _, addr := range addrs {
		addr = addr.Unmap()
		if r.family.matches(addr) {
			r.cache.Set(host, addr, ttlcache.DefaultTTL)
			return addr, nil
		}
	}
	return netip.Addr{}, &ResolveError{Host: host, Err: errNoAddress}
}

// Close stops the cache's expiry loop
func (r *Resolver) Close() {
	r.cache.Stop()
}
