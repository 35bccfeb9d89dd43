package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/tkjaer/epinger/internal/shared"
)

// Format selects how a run is rendered
type Format string

const (
	FormatRaw   Format = "raw"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONF Format = "jsonf" // json written to a file
	FormatText  Format = "text"
)

// Formats lists every supported format
var Formats = []Format{FormatRaw, FormatCSV, FormatJSON, FormatJSONF, FormatText}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// IsJSON reports whether the format produces a JSON document
func (f Format) IsJSON() bool {
	return f == FormatJSON || f == FormatJSONF
}

var csvHeader = []string{"host", "sent", "received", "loss_pct", "min_ms", "avg_ms", "max_ms", "stddev_ms"}

// Render writes run to w in the given format. Rendering the same run twice
// yields identical bytes. Text is coloured only when w is a terminal.
func Render(w io.Writer, run *shared.RunResult, f Format) error {
	switch f {
	case FormatRaw:
		return renderRaw(w, run)
	case FormatCSV:
		return renderCSV(w, run)
	case FormatJSON, FormatJSONF:
		return renderJSON(w, run)
	case FormatText:
		return renderText(w, run, terminalWidth(w))
	}
	return fmt.Errorf("unknown output format %q", f)
}

// terminalWidth returns the width of w if it is a terminal, 0 otherwise
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func formatMs(d float64) string {
	return strconv.FormatFloat(d, 'f', 3, 64)
}

func formatLoss(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64)
}

func renderRaw(w io.Writer, run *shared.RunResult) error {
	var sb strings.Builder
	for _, h := range run.Hosts {
		for _, a := range h.Attempts {
			rtt := ""
			if a.OK() {
				rtt = formatMs(shared.Milliseconds(a.RTT))
			}
			fields := []string{string(h.Target), strconv.Itoa(a.Seq), string(a.Status), rtt, a.Address, a.Error}
			sb.WriteString(strings.Join(fields, "\t"))
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderCSV(w io.Writer, run *shared.RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, h := range run.Hosts {
		row := []string{
			string(h.Target),
			strconv.Itoa(h.Sent),
			strconv.Itoa(h.Received),
			formatLoss(h.LossPct),
			"", "", "", "",
		}
		if h.RTT != nil {
			row[4] = formatMs(shared.Milliseconds(h.RTT.Min))
			row[5] = formatMs(shared.Milliseconds(h.RTT.Avg))
			row[6] = formatMs(shared.Milliseconds(h.RTT.Max))
			row[7] = formatMs(shared.Milliseconds(h.RTT.StdDev))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderJSON(w io.Writer, run *shared.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(run)
}
