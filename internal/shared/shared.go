package shared

import (
	"encoding/json"
	"time"
)

// Target is a host identifier, either a hostname or an IP address
type Target string

// RunConfig holds the settings shared by every host prober in a run
type RunConfig struct {
	NumRequests    int           `json:"num_requests"`    // Attempts per host
	RequestTimeout int           `json:"request_timeout"` // Per-attempt timeout in the transport's native unit
	MaxThreads     int           `json:"max_threads"`     // Upper bound on concurrent host probers
	Interval       time.Duration `json:"-"`               // Pause between attempts to the same host
}

// Status is the classification of a single attempt
type Status string

const (
	StatusSuccess         Status = "success"
	StatusTimeout         Status = "timeout"
	StatusUnreachable     Status = "unreachable"
	StatusResolutionError Status = "resolution_error"
)

// AttemptOutcome is the result of one echo attempt against one host
type AttemptOutcome struct {
	Seq     int           `json:"seq"`               // Attempt number, starting at 1
	Status  Status        `json:"status"`            // Outcome classification
	RTT     time.Duration `json:"-"`                 // Round-trip time, only set on success
	Address string        `json:"address,omitempty"` // Address the attempt was sent to
	Error   string        `json:"error,omitempty"`   // Failure reason, if any
}

// Success returns an outcome for an attempt answered after rtt
func Success(rtt time.Duration, address string) AttemptOutcome {
	return AttemptOutcome{Status: StatusSuccess, RTT: rtt, Address: address}
}

// Timeout returns an outcome for an attempt that got no answer in time
func Timeout(address string) AttemptOutcome {
	return AttemptOutcome{Status: StatusTimeout, Address: address}
}

// Unreachable returns an outcome for an attempt rejected by the network
func Unreachable(address string, reason string) AttemptOutcome {
	return AttemptOutcome{Status: StatusUnreachable, Address: address, Error: reason}
}

// ResolutionError returns an outcome for a host name that could not be resolved
func ResolutionError(reason string) AttemptOutcome {
	return AttemptOutcome{Status: StatusResolutionError, Error: reason}
}

// OK reports whether the attempt got an echo reply
func (a AttemptOutcome) OK() bool {
	return a.Status == StatusSuccess
}

func (a AttemptOutcome) MarshalJSON() ([]byte, error) {
	type alias AttemptOutcome
	var rtt *float64
	if a.OK() {
		ms := Milliseconds(a.RTT)
		rtt = &ms
	}
	return json.Marshal(struct {
		alias
		RTT *float64 `json:"rtt_ms"`
	}{alias(a), rtt})
}

// RTTStats holds round-trip statistics over the successful attempts of a host
type RTTStats struct {
	Min    time.Duration
	Avg    time.Duration
	Max    time.Duration
	StdDev time.Duration
}

func (s RTTStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Min    float64 `json:"min_ms"`
		Avg    float64 `json:"avg_ms"`
		Max    float64 `json:"max_ms"`
		StdDev float64 `json:"stddev_ms"`
	}{Milliseconds(s.Min), Milliseconds(s.Avg), Milliseconds(s.Max), Milliseconds(s.StdDev)})
}

// HostResult holds all attempts and derived statistics for one target
type HostResult struct {
	Target   Target           `json:"host"`
	Address  string           `json:"address,omitempty"` // First address an attempt was sent to
	PTR      string           `json:"ptr,omitempty"`     // Reverse name of Address, when requested
	Sent     int              `json:"sent"`
	Received int              `json:"received"`
	LossPct  float64          `json:"loss_pct"`
	RTT      *RTTStats        `json:"rtt"` // nil when no attempt succeeded
	Attempts []AttemptOutcome `json:"attempts"`
	Duration time.Duration    `json:"-"` // Wall-clock time spent on this host
}

// RunResult is the aggregate of a whole run, with hosts in submission order
type RunResult struct {
	ID      string        `json:"id"`
	Started time.Time     `json:"started"`
	Config  RunConfig     `json:"config"`
	Hosts   []HostResult  `json:"hosts"`
	Elapsed time.Duration `json:"-"`
}

func (r RunResult) MarshalJSON() ([]byte, error) {
	type alias RunResult
	return json.Marshal(struct {
		alias
		Elapsed float64 `json:"elapsed_ms"`
	}{alias(r), Milliseconds(r.Elapsed)})
}

// Milliseconds converts a duration to fractional milliseconds
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
