package dispatcher

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tiny-systems/charmd/api/v1alpha1"
)

func TestDispatcherOrder(t *testing.T) {
	d := New(zerolog.Nop())
	var calls []string

	d.Register(v1alpha1.EventConfigChanged, func(ctx context.Context, ev *v1alpha1.Event) error {
		calls = append(calls, "first")
		return nil
	})
	d.Register(v1alpha1.EventConfigChanged, func(ctx context.Context, ev *v1alpha1.Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.RegisterCatchAll(func(ctx context.Context, ev *v1alpha1.Event) error {
		calls = append(calls, "catch-all")
		return nil
	})

	err := d.Dispatch(context.Background(), &v1alpha1.Event{Kind: v1alpha1.EventConfigChanged})
	if err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}
	want := []string{"first", "second", "catch-all"}
	if len(calls) != len(want) {
		t.Fatalf("Dispatch() calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Dispatch() call[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestDispatcherFirstErrorStops(t *testing.T) {
	d := New(zerolog.Nop())
	var secondCalled bool

	d.Register(v1alpha1.EventInstall, func(ctx context.Context, ev *v1alpha1.Event) error {
		return errors.New("boom")
	})
	d.Register(v1alpha1.EventInstall, func(ctx context.Context, ev *v1alpha1.Event) error {
		secondCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), &v1alpha1.Event{Kind: v1alpha1.EventInstall})
	if err == nil {
		t.Fatal("Dispatch() expected error, got nil")
	}
	if secondCalled {
		t.Error("Dispatch() ran handlers after the first error")
	}
}

func TestDispatcherUnknownKindIsNoop(t *testing.T) {
	d := New(zerolog.Nop())
	err := d.Dispatch(context.Background(), &v1alpha1.Event{Kind: v1alpha1.EventStop})
	if err != nil {
		t.Errorf("Dispatch() unexpected error: %v", err)
	}
}

func TestDispatcherRecoversPanic(t *testing.T) {
	d := New(zerolog.Nop())
	d.Register(v1alpha1.EventStart, func(ctx context.Context, ev *v1alpha1.Event) error {
		panic("handler bug")
	})

	err := d.Dispatch(context.Background(), &v1alpha1.Event{Kind: v1alpha1.EventStart})
	if err == nil {
		t.Error("Dispatch() expected error from panicking handler, got nil")
	}
}
