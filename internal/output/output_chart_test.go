package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/tkjaer/epinger/internal/shared"
)

func TestChartBars(t *testing.T) {
	bars, peak := chartBars(sampleRun())
	if len(bars) != 2 {
		t.Fatalf("chartBars() = %d bars, want 2", len(bars))
	}
	if bars[0].Label != "ok-host" || bars[0].Value != 15 {
		t.Errorf("bars[0] = %+v, want ok-host 15", bars[0])
	}
	if bars[1].Label != "dead-host" || bars[1].Value != 0 {
		t.Errorf("bars[1] = %+v, want dead-host 0", bars[1])
	}
	if peak != 15 {
		t.Errorf("chartBars() peak = %v, want 15", peak)
	}
}

func TestChartOutput_CompleteRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtt.png")
	o := NewChartOutput(path)
	if err := o.CompleteRun(sampleRun()); err != nil {
		t.Fatalf("CompleteRun() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("chart file is not a PNG")
	}
}

func TestChartOutput_NoReplies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtt.png")
	run := &shared.RunResult{Hosts: []shared.HostResult{
		shared.Summarize("dead-host", []shared.AttemptOutcome{shared.Timeout("")}),
	}}

	if err := NewChartOutput(path).CompleteRun(run); err != nil {
		t.Fatalf("CompleteRun() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("chart should be skipped when no host answered, stat error = %v", err)
	}
}
