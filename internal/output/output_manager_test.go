package output

import (
	"errors"
	"sync"
	"testing"

	"github.com/tkjaer/epinger/internal/shared"
)

// mockOutput is a mock implementation of Output for testing
type mockOutput struct {
	mu                sync.Mutex
	completeHostCalls []completeHostCall
	completeRunCalls  []*shared.RunResult
	closeCalls        int
	completeRunErr    error
	closeErr          error
}

type completeHostCall struct {
	index  int
	result shared.HostResult
}

func (m *mockOutput) CompleteHost(index int, result shared.HostResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeHostCalls = append(m.completeHostCalls, completeHostCall{index, result})
}

func (m *mockOutput) CompleteRun(run *shared.RunResult) error {
	m.completeRunCalls = append(m.completeRunCalls, run)
	return m.completeRunErr
}

func (m *mockOutput) Close() error {
	m.closeCalls++
	return m.closeErr
}

func TestOutputManager_Register(t *testing.T) {
	om := &OutputManager{}
	mock1 := &mockOutput{}
	mock2 := &mockOutput{}

	om.Register(mock1)
	if len(om.outputs) != 1 {
		t.Errorf("Register() outputs count = %d, want 1", len(om.outputs))
	}

	om.Register(mock2)
	if len(om.outputs) != 2 {
		t.Errorf("Register() outputs count = %d, want 2", len(om.outputs))
	}
}

func TestOutputManager_CompleteHost(t *testing.T) {
	om := &OutputManager{}
	mock1 := &mockOutput{}
	mock2 := &mockOutput{}
	om.Register(mock1)
	om.Register(mock2)

	om.CompleteHost(3, shared.HostResult{Target: "ok-host"})

	for i, mock := range []*mockOutput{mock1, mock2} {
		if len(mock.completeHostCalls) != 1 {
			t.Fatalf("mock%d CompleteHost calls = %d, want 1", i+1, len(mock.completeHostCalls))
		}
		if mock.completeHostCalls[0].index != 3 {
			t.Errorf("index = %d, want 3", mock.completeHostCalls[0].index)
		}
		if mock.completeHostCalls[0].result.Target != "ok-host" {
			t.Errorf("target = %s, want ok-host", mock.completeHostCalls[0].result.Target)
		}
	}
}

func TestOutputManager_CompleteRun(t *testing.T) {
	om := &OutputManager{}
	mock := &mockOutput{}
	om.Register(mock)

	run := &shared.RunResult{ID: "run-1"}
	if err := om.CompleteRun(run); err != nil {
		t.Fatalf("CompleteRun() error = %v", err)
	}

	if len(mock.completeRunCalls) != 1 {
		t.Fatalf("CompleteRun calls = %d, want 1", len(mock.completeRunCalls))
	}
	if mock.completeRunCalls[0].ID != "run-1" {
		t.Errorf("run ID = %s, want run-1", mock.completeRunCalls[0].ID)
	}
}

func TestOutputManager_CompleteRunErrors(t *testing.T) {
	errDisk := errors.New("disk full")
	om := &OutputManager{}
	failing := &mockOutput{completeRunErr: errDisk}
	after := &mockOutput{}
	om.Register(failing)
	om.Register(after)

	err := om.CompleteRun(&shared.RunResult{})
	if !errors.Is(err, errDisk) {
		t.Errorf("CompleteRun() error = %v, want %v", err, errDisk)
	}
	if len(after.completeRunCalls) != 1 {
		t.Error("outputs after a failing one should still be called")
	}
}

func TestOutputManager_Close(t *testing.T) {
	errClose := errors.New("close failed")
	om := &OutputManager{}
	mock1 := &mockOutput{closeErr: errClose}
	mock2 := &mockOutput{}
	om.Register(mock1)
	om.Register(mock2)

	if err := om.Close(); !errors.Is(err, errClose) {
		t.Errorf("Close() error = %v, want %v", err, errClose)
	}

	if mock1.closeCalls != 1 {
		t.Errorf("mock1 Close calls = %d, want 1", mock1.closeCalls)
	}
	if mock2.closeCalls != 1 {
		t.Errorf("mock2 Close calls = %d, want 1", mock2.closeCalls)
	}
}

func TestOutputManager_Empty(t *testing.T) {
	om := &OutputManager{}
	om.CompleteHost(0, shared.HostResult{})
	if err := om.CompleteRun(&shared.RunResult{}); err != nil {
		t.Errorf("CompleteRun() error = %v, want nil", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
