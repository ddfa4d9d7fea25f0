package tracker

import (
	"time"

	"github.com/tiny-systems/charmd/api/v1alpha1"
	"github.com/tiny-systems/charmd/internal/status"
)

// PassRecord describes one processed event: what it changed and where the
// unit ended up. Callbacks receive it after every dispatch, successful or
// not.
type PassRecord struct {
	EventID   string
	EventKind v1alpha1.EventKind
	Unit      string

	Status   status.Status
	Workload v1alpha1.WorkloadState

	// ChangedFiles lists rendered paths written during the pass
	ChangedFiles []string
	Restarted    bool

	Err      error
	Duration time.Duration
}

// Callback observes pass records. Callbacks run on the dispatch loop and
// must be fast, anything slow belongs on the far side of a channel.
type Callback func(PassRecord)

// Manager fans one record out to all registered callbacks.
type Manager struct {
	callbacks []Callback
}

func NewManager(callbacks ...Callback) *Manager {
	return &Manager{callbacks: callbacks}
}

func (m *Manager) Register(cb Callback) {
	m.callbacks = append(m.callbacks, cb)
}

func (m *Manager) Track(rec PassRecord) {
	for _, cb := range m.callbacks {
		cb(rec)
	}
}
