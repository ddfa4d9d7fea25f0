package status

import (
	"fmt"
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Pool aggregates per-handler statuses into a single unit status. Every
// relation handler owns one named slot, the reconciler owns a slot for the
// bootstrap section. Compute is pure over the current slots and cheap
// enough to call on every event.
type Pool struct {
	statuses cmap.ConcurrentMap[string, Status]
}

func NewPool() *Pool {
	return &Pool{statuses: cmap.New[Status]()}
}

// Set replaces the status of a named slot.
func (p *Pool) Set(name string, s Status) {
	p.statuses.Set(name, s)
}

// Get returns the status of a named slot.
func (p *Pool) Get(name string) (Status, bool) {
	return p.statuses.Get(name)
}

// Compute returns the highest priority status across all slots. Messages
// are prefixed with the slot name so the operator can tell which
// integration is the culprit. Unknown slots are skipped. A pool nothing
// has reported into yet computes to waiting, never active, active has to
// be earned by a reconcile pass.
func (p *Pool) Compute() Status {
	best := Status{Kind: Unknown}
	var bestName string

	// deterministic pick when two slots share a priority
	names := p.statuses.Keys()
	sort.Strings(names)

	for _, name := range names {
		s, _ := p.statuses.Get(name)
		if s.Kind == Unknown {
			continue
		}
		if priority[s.Kind] > priority[best.Kind] {
			best = s
			bestName = name
		}
	}
	if best.Kind == Unknown {
		return Status{Kind: Waiting, Message: "no status reported yet"}
	}
	if bestName != "" && best.Message != "" {
		best.Message = fmt.Sprintf("(%s) %s", bestName, best.Message)
	}
	return best
}
