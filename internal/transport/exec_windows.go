//go:build windows

package transport

import (
	"net/netip"
	"strconv"
)

// pingCommand builds a Windows ping invocation; -w takes milliseconds
func pingCommand(addr netip.Addr, timeout int) (string, []string) {
	args := []string{"-n", "1", "-w", strconv.Itoa(max(timeout, 1))}
	if addr.Is6() {
		args = append(args, "-6")
	}
	return "ping", append(args, addr.String())
}
