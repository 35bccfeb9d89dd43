// Package metrics exports run results in the Prometheus textfile format
package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tkjaer/epinger/internal/shared"
)

var hostLabels = []string{"host", "address"}

// Textfile collects per-host metrics while a run progresses and writes them
// for the node_exporter textfile collector when the run completes.
type Textfile struct {
	path     string
	registry *prometheus.Registry

	sent        *prometheus.GaugeVec
	received    *prometheus.GaugeVec
	loss        *prometheus.GaugeVec
	rtt         *prometheus.GaugeVec
	attempts    *prometheus.CounterVec
	hosts       prometheus.Gauge
	elapsed     prometheus.Gauge
	lastRunTime prometheus.Gauge
}

// NewTextfile returns a metrics output writing to path
func NewTextfile(path string) *Textfile {
	return newTextfileWithRegistry(path, prometheus.NewRegistry())
}

func newTextfileWithRegistry(path string, registry *prometheus.Registry) *Textfile {
	m := &Textfile{
		path:     path,
		registry: registry,
		sent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epinger_packets_sent",
				Help: "Echo requests sent to the host",
			},
			hostLabels,
		),
		received: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epinger_packets_received",
				Help: "Echo replies received from the host",
			},
			hostLabels,
		),
		loss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epinger_loss_percent",
				Help: "Packet loss to the host in percent",
			},
			hostLabels,
		),
		rtt: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epinger_rtt_ms",
				Help: "Round-trip time statistics to the host in milliseconds",
			},
			append(hostLabels, "stat"),
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epinger_attempts_total",
				Help: "Attempts made to the host by outcome",
			},
			[]string{"host", "status"},
		),
		hosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "epinger_run_hosts",
			Help: "Hosts processed in the last run",
		}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "epinger_run_elapsed_seconds",
			Help: "Wall-clock duration of the last run",
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "epinger_last_run_timestamp",
			Help: "Timestamp of the last run",
		}),
	}

	registry.MustRegister(m.sent)
	registry.MustRegister(m.received)
	registry.MustRegister(m.loss)
	registry.MustRegister(m.rtt)
	registry.MustRegister(m.attempts)
	registry.MustRegister(m.hosts)
	registry.MustRegister(m.elapsed)
	registry.MustRegister(m.lastRunTime)

	return m
}

// CompleteHost records a finished host. Safe for concurrent use.
func (m *Textfile) CompleteHost(_ int, result shared.HostResult) {
	host := string(result.Target)
	m.sent.WithLabelValues(host, result.Address).Set(float64(result.Sent))
	m.received.WithLabelValues(host, result.Address).Set(float64(result.Received))
	m.loss.WithLabelValues(host, result.Address).Set(result.LossPct)

	if result.RTT != nil {
		stats := map[string]time.Duration{
			"min":    result.RTT.Min,
			"avg":    result.RTT.Avg,
			"max":    result.RTT.Max,
			"stddev": result.RTT.StdDev,
		}
		for stat, d := range stats {
			m.rtt.WithLabelValues(host, result.Address, stat).Set(shared.Milliseconds(d))
		}
	}

	for _, a := range result.Attempts {
		m.attempts.WithLabelValues(host, string(a.Status)).Inc()
	}
}

// CompleteRun sets the run gauges and writes the textfile
func (m *Textfile) CompleteRun(run *shared.RunResult) error {
	m.hosts.Set(float64(len(run.Hosts)))
	m.elapsed.Set(run.Elapsed.Seconds())
	m.lastRunTime.Set(float64(run.Started.Unix()))

	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	slog.Debug("Wrote metrics", "file", m.path)
	return nil
}

func (m *Textfile) Close() error {
	return nil
}
