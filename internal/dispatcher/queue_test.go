package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/tiny-systems/charmd/api/v1alpha1"
)

func relEvent(kind v1alpha1.EventKind, endpoint, id string) *v1alpha1.Event {
	return &v1alpha1.Event{
		ID:   id,
		Kind: kind,
		Relation: &v1alpha1.RelationPayload{
			Endpoint: endpoint,
		},
	}
}

func drain(t *testing.T, q *Queue) []*v1alpha1.Event {
	t.Helper()
	var out []*v1alpha1.Event
	for {
		ev, ok := q.TryPop()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestQueuePushPop(t *testing.T) {
	q := NewQueue(4)
	if err := q.Push(&v1alpha1.Event{ID: "1", Kind: v1alpha1.EventInstall}); err != nil {
		t.Fatalf("Push() unexpected error: %v", err)
	}
	if err := q.Push(&v1alpha1.Event{ID: "2", Kind: v1alpha1.EventConfigChanged}); err != nil {
		t.Fatalf("Push() unexpected error: %v", err)
	}

	got := drain(t, q)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("queue order = %v, want [1 2]", ids(got))
	}
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(2)
	q.Push(&v1alpha1.Event{ID: "1", Kind: v1alpha1.EventInstall})
	q.Push(&v1alpha1.Event{ID: "2", Kind: v1alpha1.EventStart})

	if err := q.Push(&v1alpha1.Event{ID: "3", Kind: v1alpha1.EventConfigChanged}); err != ErrQueueFull {
		t.Errorf("Push() error = %v, want ErrQueueFull", err)
	}
}

func TestQueueCoalesceRelationChanged(t *testing.T) {
	q := NewQueue(8)
	q.Push(relEvent(v1alpha1.EventRelationChanged, "database", "old"))
	q.Push(relEvent(v1alpha1.EventRelationChanged, "amqp", "other"))
	q.Push(relEvent(v1alpha1.EventRelationChanged, "database", "new"))

	got := drain(t, q)
	if len(got) != 2 {
		t.Fatalf("queue length = %d, want 2", len(got))
	}
	// newer snapshot replaced the stale one in place, order preserved
	if got[0].ID != "new" || got[1].ID != "other" {
		t.Errorf("queue order = %v, want [new other]", ids(got))
	}
}

func TestQueueCoalesceUpdateStatus(t *testing.T) {
	q := NewQueue(8)
	q.Push(&v1alpha1.Event{ID: "1", Kind: v1alpha1.EventUpdateStatus})
	q.Push(&v1alpha1.Event{ID: "2", Kind: v1alpha1.EventUpdateStatus})

	got := drain(t, q)
	if len(got) != 1 {
		t.Errorf("queue length = %d, want 1", len(got))
	}
}

func TestQueueRelationBrokenDropsEndpointEvents(t *testing.T) {
	q := NewQueue(8)
	q.Push(relEvent(v1alpha1.EventRelationJoined, "database", "joined"))
	q.Push(relEvent(v1alpha1.EventRelationChanged, "database", "changed"))
	q.Push(relEvent(v1alpha1.EventRelationChanged, "amqp", "amqp-changed"))
	q.Push(relEvent(v1alpha1.EventRelationBroken, "database", "broken"))

	got := drain(t, q)
	if len(got) != 2 {
		t.Fatalf("queue = %v, want [amqp-changed broken]", ids(got))
	}
	if got[0].ID != "amqp-changed" || got[1].ID != "broken" {
		t.Errorf("queue order = %v, want [amqp-changed broken]", ids(got))
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue(4)
	done := make(chan *v1alpha1.Event, 1)
	go func() {
		ev, err := q.Pop(context.Background())
		if err != nil {
			return
		}
		done <- ev
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(&v1alpha1.Event{ID: "1", Kind: v1alpha1.EventInstall})

	select {
	case ev := <-done:
		if ev.ID != "1" {
			t.Errorf("Pop() = %s, want 1", ev.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after Push()")
	}
}

func TestQueuePopHonorsContext(t *testing.T) {
	q := NewQueue(4)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Pop(ctx); err == nil {
		t.Error("Pop() on cancelled context expected error, got nil")
	}
}

func ids(evs []*v1alpha1.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.ID)
	}
	return out
}
