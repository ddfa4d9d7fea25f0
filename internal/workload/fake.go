package workload

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tiny-systems/charmd/api/v1alpha1"
)

// Fake is an in-memory supervisor recording every call, used in tests and
// by the one-shot render command where no real service exists.
type Fake struct {
	Starts   int
	Restarts int
	Reloads  int
	Stops    int

	// FailRestart makes Restart return an error, exercising the workload
	// failure taxonomy
	FailRestart bool

	state v1alpha1.WorkloadState
}

func NewFake() *Fake {
	return &Fake{state: v1alpha1.WorkloadStopped}
}

func (f *Fake) EnsureRunning(ctx context.Context) error {
	if f.state != v1alpha1.WorkloadRunning {
		f.Starts++
		f.state = v1alpha1.WorkloadRunning
	}
	return nil
}

func (f *Fake) Restart(ctx context.Context) error {
	if f.FailRestart {
		return errors.New("restart failed")
	}
	f.Restarts++
	f.state = v1alpha1.WorkloadRunning
	return nil
}

func (f *Fake) Reload(ctx context.Context) error {
	f.Reloads++
	f.state = v1alpha1.WorkloadRunning
	return nil
}

func (f *Fake) Stop(ctx context.Context) error {
	f.Stops++
	f.state = v1alpha1.WorkloadStopped
	return nil
}

func (f *Fake) State() v1alpha1.WorkloadState {
	return f.state
}
