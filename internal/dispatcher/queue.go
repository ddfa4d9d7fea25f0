package dispatcher

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/tiny-systems/charmd/api/v1alpha1"
)

// ErrQueueFull is returned when the queue cannot absorb another event even
// after coalescing. The host runtime treats it as a failed delivery and
// retries later.
var ErrQueueFull = errors.New("event queue is full")

// Queue is a finite FIFO of lifecycle events with coalescing. The producer
// side is the bus subscription, the single consumer is the dispatch loop,
// so the queue always reflects the latest known view:
//
//   - a queued relation-changed for an endpoint is replaced in place when a
//     newer snapshot for the same endpoint arrives
//   - relation-broken drops every queued relation event for its endpoint
//   - at most one update-status is queued at a time
//
// Ordering between different endpoints and kinds is preserved.
type Queue struct {
	mu       sync.Mutex
	items    []*v1alpha1.Event
	capacity int
	notify   chan struct{}
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Push adds an event, coalescing against what is already queued.
func (q *Queue) Push(ev *v1alpha1.Event) error {
	if ev == nil {
		return errors.New("event is empty")
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.coalesce(ev) {
		q.wake()
		return nil
	}
	if len(q.items) >= q.capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, ev)
	q.wake()
	return nil
}

func (q *Queue) coalesce(ev *v1alpha1.Event) bool {
	switch {
	case ev.Kind == v1alpha1.EventUpdateStatus:
		for _, it := range q.items {
			if it.Kind == v1alpha1.EventUpdateStatus {
				return true
			}
		}
	case ev.Kind == v1alpha1.EventRelationChanged && ev.Relation != nil:
		for i, it := range q.items {
			if it.Kind == v1alpha1.EventRelationChanged &&
				it.Relation != nil && it.Relation.Endpoint == ev.Relation.Endpoint {
				q.items[i] = ev
				return true
			}
		}
	case ev.Kind == v1alpha1.EventRelationBroken && ev.Relation != nil:
		kept := q.items[:0]
		for _, it := range q.items {
			if it.Kind.RelationEvent() && it.Relation != nil &&
				it.Relation.Endpoint == ev.Relation.Endpoint {
				continue
			}
			kept = append(kept, it)
		}
		q.items = kept
	}
	return false
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Ready signals queued events, pair it with TryPop inside a select loop.
func (q *Queue) Ready() <-chan struct{} {
	return q.notify
}

// TryPop returns the head of the queue without blocking.
func (q *Queue) TryPop() (*v1alpha1.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	ev := q.items[0]
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.wake()
	}
	return ev, true
}

// Pop blocks until an event is available or the context ends.
func (q *Queue) Pop(ctx context.Context) (*v1alpha1.Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			ev := q.items[0]
			q.items = q.items[1:]
			if len(q.items) > 0 {
				q.wake()
			}
			q.mu.Unlock()
			return ev, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
