package output

import (
	"fmt"
	"io"

	"github.com/tkjaer/epinger/internal/shared"
)

// WriterOutput renders the finished run to a writer, usually stdout
type WriterOutput struct {
	w      io.Writer
	format Format
}

func NewWriterOutput(w io.Writer, format Format) *WriterOutput {
	return &WriterOutput{w: w, format: format}
}

func (o *WriterOutput) CompleteHost(int, shared.HostResult) {}

func (o *WriterOutput) CompleteRun(run *shared.RunResult) error {
	if err := Render(o.w, run, o.format); err != nil {
		return fmt.Errorf("failed to write %s output: %w", o.format, err)
	}
	return nil
}

func (o *WriterOutput) Close() error { return nil }
