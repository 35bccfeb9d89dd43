package output

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/tkjaer/epinger/internal/shared"
)

// ChartOutput renders the average RTT of every host as a PNG bar chart
type ChartOutput struct {
	path string
}

func NewChartOutput(path string) *ChartOutput {
	return &ChartOutput{path: path}
}

func (o *ChartOutput) CompleteHost(int, shared.HostResult) {}

func (o *ChartOutput) CompleteRun(run *shared.RunResult) error {
	bars, peak := chartBars(run)
	if peak <= 0 {
		slog.Warn("No host answered, skipping RTT chart", "file", o.path)
		return nil
	}

	graph := chart.BarChart{
		Title: "Average RTT (ms)",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Height:   512,
		Width:    max(1024, 80*len(bars)),
		BarWidth: 30,
		Bars:     bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: peak * 1.1},
		},
	}

	f, err := os.Create(o.path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()
	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func (o *ChartOutput) Close() error { return nil }

// chartBars returns one bar per host and the highest average RTT. Hosts
// without replies get an empty bar. go-chart cannot scale an all-zero range.
func chartBars(run *shared.RunResult) ([]chart.Value, float64) {
	bars := make([]chart.Value, 0, len(run.Hosts))
	var peak float64
	for _, h := range run.Hosts {
		v := chart.Value{Label: string(h.Target)}
		if h.RTT != nil {
			v.Value = shared.Milliseconds(h.RTT.Avg)
			peak = max(peak, v.Value)
		}
		bars = append(bars, v)
	}
	return bars, peak
}
