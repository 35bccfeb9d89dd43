package output

import (
	"errors"

	"github.com/tkjaer/epinger/internal/shared"
)

// Output is a destination for run results
type Output interface {
	// CompleteHost is called from worker goroutines as each host finishes
	CompleteHost(index int, result shared.HostResult)
	// CompleteRun is called once with the finished run
	CompleteRun(run *shared.RunResult) error
	Close() error
}

// OutputManager manages multiple outputs
type OutputManager struct {
	outputs []Output
}

func (om *OutputManager) Register(o Output) {
	om.outputs = append(om.outputs, o)
}

// CompleteHost forwards a finished host to every output. It matches
// scheduler.ObserverFunc so the manager can observe a run directly.
func (om *OutputManager) CompleteHost(index int, result shared.HostResult) {
	for _, o := range om.outputs {
		o.CompleteHost(index, result)
	}
}

// CompleteRun hands run to every output, even after one of them fails
func (om *OutputManager) CompleteRun(run *shared.RunResult) error {
	var errs []error
	for _, o := range om.outputs {
		errs = append(errs, o.CompleteRun(run))
	}
	return errors.Join(errs...)
}

func (om *OutputManager) Close() error {
	var errs []error
	for _, o := range om.outputs {
		errs = append(errs, o.Close())
	}
	return errors.Join(errs...)
}
