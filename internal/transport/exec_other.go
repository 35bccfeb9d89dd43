//go:build !windows && !darwin

package transport

import (
	"net/netip"
	"strconv"
)

// pingCommand builds an iputils/busybox ping invocation; -W takes seconds
func pingCommand(addr netip.Addr, timeout int) (string, []string) {
	args := []string{"-n", "-c", "1", "-W", strconv.Itoa(max(timeout, 1))}
	if addr.Is6() {
		args = append([]string{"-6"}, args...)
	}
	return "ping", append(args, addr.String())
}
