// Package ptr resolves addresses back to host names
package ptr

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

type lookupFunc func(ctx context.Context, addr string) ([]string, error)

// Manager performs PTR lookups and caches the answers. It is safe for
// concurrent use by many host probers.
type Manager struct {
	mu         sync.Mutex
	cache      map[string]string
	lookup     lookupFunc
	retries    int
	retryDelay time.Duration
}

// NewManager creates a Manager using the system resolver
func NewManager() *Manager {
	return &Manager{
		cache:      make(map[string]string),
		lookup:     net.DefaultResolver.LookupAddr,
		retries:    3,
		retryDelay: 100 * time.Millisecond,
	}
}

// Lookup returns the PTR name for ip, or "" when it has none. Failed
// lookups are cached too, so each address is only queried once.
func (m *Manager) Lookup(ctx context.Context, ip string) string {
	m.mu.Lock()
	name, ok := m.cache[ip]
	m.mu.Unlock()
	if ok {
		return name
	}

	for attempt := range m.retries {
		if attempt > 0 && !sleep(ctx, m.retryDelay) {
			return ""
		}
		names, err := m.lookup(ctx, ip)
		if err == nil && len(names) > 0 {
			name = normalizePTR(names[0])
			break
		}
		slog.Debug("PTR lookup failed", "ip", ip, "attempt", attempt+1, "error", err)
	}

	m.mu.Lock()
	m.cache[ip] = name
	m.mu.Unlock()
	return name
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func normalizePTR(name string) string {
	return strings.TrimSuffix(name, ".")
}
