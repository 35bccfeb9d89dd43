package shared

import (
	"math"
	"time"
)

// Summarize builds a HostResult for target from its attempts in attempt order.
// Statistics only consider successful attempts; RTT stays nil without any.
func Summarize(target Target, attempts []AttemptOutcome) HostResult {
	result := HostResult{
		Target:   target,
		Sent:     len(attempts),
		Attempts: attempts,
	}

	rtts := make([]time.Duration, 0, len(attempts))
	for _, a := range attempts {
		if result.Address == "" && a.Address != "" {
			result.Address = a.Address
		}
		if a.OK() {
			rtts = append(rtts, a.RTT)
		}
	}

	result.Received = len(rtts)
	result.LossPct = calculateLossPct(uint(result.Sent-result.Received), uint(result.Received))
	if len(rtts) > 0 {
		result.RTT = calculateRTTStats(rtts)
	}
	return result
}

func calculateRTTStats(rtts []time.Duration) *RTTStats {
	stats := &RTTStats{Min: rtts[0], Max: rtts[0]}
	var sum float64
	for _, rtt := range rtts {
		stats.Min = min(stats.Min, rtt)
		stats.Max = max(stats.Max, rtt)
		sum += float64(rtt)
	}
	mean := sum / float64(len(rtts))
	stats.Avg = time.Duration(math.Round(mean))
	stats.StdDev = time.Duration(math.Round(calculateStdDev(rtts, mean)))
	return stats
}

// calculateStdDev returns the population standard deviation in nanoseconds.
// Deviations are summed around the mean so identical samples yield exactly 0.
func calculateStdDev(rtts []time.Duration, mean float64) float64 {
	if len(rtts) == 0 {
		return 0
	}
	var squares float64
	for _, rtt := range rtts {
		d := float64(rtt) - mean
		squares += d * d
	}
	return math.Sqrt(squares / float64(len(rtts)))
}

func calculateLossPct(lost, received uint) float64 {
	total := lost + received
	if total == 0 {
		return 0
	}
	return float64(lost) * 100 / float64(total)
}
