package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tkjaer/epinger/internal/shared"
)

type cellAlignment int

const (
	alignLeft cellAlignment = iota
	alignRight
)

const labelWidth = 10

var (
	hostStyle = lipgloss.NewStyle().Bold(true)
	goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	lostStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// formatCell pads value to width; values wider than width are left intact
func formatCell(value string, width int, alignment cellAlignment) string {
	if alignment == alignRight {
		return fmt.Sprintf("%*s", width, value)
	}
	return fmt.Sprintf("%-*s", width, value)
}

// truncateToWidth cuts value to at most width display columns
func truncateToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(value) <= width {
		return value
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(value)
}

// renderText writes a human readable summary. A positive width means w is a
// terminal of that many columns: output is coloured and host lines are cut
// to fit.
func renderText(w io.Writer, run *shared.RunResult, width int) error {
	colour := width > 0
	style := func(s lipgloss.Style, text string) string {
		if !colour {
			return text
		}
		return s.Render(text)
	}

	var sb strings.Builder
	for _, h := range run.Hosts {
		header := string(h.Target)
		var names []string
		for _, n := range []string{h.Address, h.PTR} {
			if n != "" && n != header {
				names = append(names, n)
			}
		}
		if len(names) > 0 {
			header += " (" + strings.Join(names, ", ") + ")"
		}
		if colour {
			header = truncateToWidth(header, width)
		}
		sb.WriteString(style(hostStyle, header))
		sb.WriteByte('\n')

		loss := formatLoss(h.LossPct) + "%"
		switch {
		case h.LossPct == 0:
			loss = style(goodStyle, loss)
		case h.LossPct >= 100:
			loss = style(lostStyle, loss)
		default:
			loss = style(warnStyle, loss)
		}
		fmt.Fprintf(&sb, "  %s sent %d  received %d  loss %s\n",
			formatCell("packets", labelWidth, alignLeft), h.Sent, h.Received, loss)

		if h.RTT == nil {
			fmt.Fprintf(&sb, "  %s n/a\n", formatCell("rtt ms", labelWidth, alignLeft))
		} else {
			fmt.Fprintf(&sb, "  %s min %s  avg %s  max %s  stddev %s\n",
				formatCell("rtt ms", labelWidth, alignLeft),
				formatMs(shared.Milliseconds(h.RTT.Min)),
				formatMs(shared.Milliseconds(h.RTT.Avg)),
				formatMs(shared.Milliseconds(h.RTT.Max)),
				formatMs(shared.Milliseconds(h.RTT.StdDev)),
			)
		}
		for _, a := range h.Attempts {
			if a.Error != "" && a.Status != shared.StatusTimeout {
				fmt.Fprintf(&sb, "  %s %s\n", formatCell("error", labelWidth, alignLeft), a.Error)
				break
			}
		}
	}
	fmt.Fprintf(&sb, "\n%d hosts processed in %s\n", len(run.Hosts), run.Elapsed.Round(time.Millisecond))

	_, err := io.WriteString(w, sb.String())
	return err
}
