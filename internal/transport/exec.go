package transport

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tkjaer/epinger/internal/shared"
)

// execGrace lets the ping command report its own timeout before it is killed
const execGrace = time.Second

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Exec runs the operating system's ping command once per attempt. It needs
// no privileges, which makes it the default transport.
type Exec struct {
	resolver *Resolver
	run      runFunc
}

// NewExec creates a transport backed by the system ping command
func NewExec(resolver *Resolver) *Exec {
	return &Exec{resolver: resolver, run: runCommand}
}

func (t *Exec) Attempt(ctx context.Context, host string, timeout int) shared.AttemptOutcome {
	addr, err := t.resolver.Resolve(ctx, host)
	if err != nil {
		return shared.ResolutionError(err.Error())
	}
	address := addr.String()

	ctx, cancel := context.WithTimeout(ctx, Deadline(timeout)+execGrace)
	defer cancel()

	name, args := pingCommand(addr, timeout)
	start := time.Now()
	out, err := t.run(ctx, name, args...)
	elapsed := time.Since(start)

	output := string(out)
	if isUnreachable(output) {
		return shared.Unreachable(address, firstLine(output, "unreachable"))
	}
	if err == nil {
		if rtt, ok := parseRTT(output); ok {
			return shared.Success(rtt, address)
		}
		// Replies without a parsable time still prove the host answered
		return shared.Success(elapsed, address)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return shared.Unreachable(address, err.Error())
	}
	return shared.Timeout(address)
}

var rttPatterns = []*regexp.Regexp{
	regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`),
	regexp.MustCompile(`round-trip min/avg/max(?:/stddev)? = [0-9.]+/([0-9.]+)/`),
}

// parseRTT extracts the round-trip time from ping output. Linux and macOS
// print "time=12.3 ms", Windows prints "time=15ms" or "time<1ms".
func parseRTT(output string) (time.Duration, bool) {
	for _, re := range rttPatterns {
		matches := re.FindStringSubmatch(output)
		if len(matches) < 2 {
			continue
		}
		ms, err := strconv.ParseFloat(matches[1], 64)
		if err != nil {
			continue
		}
		return time.Duration(ms * float64(time.Millisecond)), true
	}
	return 0, false
}

func isUnreachable(output string) bool {
	return strings.Contains(strings.ToLower(output), "unreachable")
}

// firstLine returns the first line of output containing substr, or substr
func firstLine(output, substr string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(strings.ToLower(line), substr) {
			return strings.TrimSpace(line)
		}
	}
	return substr
}
