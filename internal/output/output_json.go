package output

import (
	"fmt"
	"os"
	"time"

	"github.com/tkjaer/epinger/internal/shared"
)

// DefaultJSONFilename names the jsonf file for a run started at t
func DefaultJSONFilename(t time.Time) string {
	return "epinger-" + t.Format("20060102-150405") + ".json"
}

// JSONOutput writes the run as an indented JSON document to a file, or to
// stdout when no filename is given
type JSONOutput struct {
	file     *os.File
	toStdout bool
}

// NewJSONOutput creates the output file up front so an unwritable path is
// reported before any host is probed
func NewJSONOutput(filename string) (*JSONOutput, error) {
	if filename == "" {
		return &JSONOutput{file: os.Stdout, toStdout: true}, nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON output file: %w", err)
	}
	return &JSONOutput{file: f}, nil
}

func (o *JSONOutput) CompleteHost(int, shared.HostResult) {}

func (o *JSONOutput) CompleteRun(run *shared.RunResult) error {
	if err := renderJSON(o.file, run); err != nil {
		return fmt.Errorf("failed to write JSON output to %s: %w", o.file.Name(), err)
	}
	return nil
}

func (o *JSONOutput) Close() error {
	if o.toStdout {
		return nil
	}
	return o.file.Close()
}
