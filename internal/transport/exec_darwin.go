//go:build darwin

package transport

import (
	"net/netip"
	"strconv"
)

// pingCommand builds a BSD ping invocation. ping6 has no timeout flag, so
// the attempt context bounds it instead.
func pingCommand(addr netip.Addr, timeout int) (string, []string) {
	if addr.Is6() {
		return "ping6", []string{"-n", "-c", "1", addr.String()}
	}
	return "ping", []string{"-n", "-c", "1", "-t", strconv.Itoa(max(timeout, 1)), addr.String()}
}
