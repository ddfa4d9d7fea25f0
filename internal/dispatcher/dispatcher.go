package dispatcher

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tiny-systems/charmd/api/v1alpha1"
	"github.com/tiny-systems/errorpanic"
)

// HandlerFunc processes one event. Errors propagate to the host runtime
// which errors the unit and re-delivers, there is no internal retry.
type HandlerFunc func(ctx context.Context, ev *v1alpha1.Event) error

// Dispatcher invokes registered handlers for an event kind in registration
// order, synchronously, one event at a time. A panic inside a handler is
// recovered into an error so a buggy handler cannot take the agent down
// without a trace.
type Dispatcher struct {
	log      zerolog.Logger
	handlers map[v1alpha1.EventKind][]HandlerFunc
	// catchAll handlers run for every kind, after kind specific ones
	catchAll []HandlerFunc
}

func New(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log,
		handlers: map[v1alpha1.EventKind][]HandlerFunc{},
	}
}

// Register appends a handler for one event kind.
func (d *Dispatcher) Register(kind v1alpha1.EventKind, fn HandlerFunc) {
	d.handlers[kind] = append(d.handlers[kind], fn)
}

// RegisterCatchAll appends a handler invoked for every event kind.
func (d *Dispatcher) RegisterCatchAll(fn HandlerFunc) {
	d.catchAll = append(d.catchAll, fn)
}

// Dispatch runs all handlers for the event. The first error stops the
// chain and is returned to the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *v1alpha1.Event) error {
	d.log.Debug().Str("kind", string(ev.Kind)).Str("id", ev.ID).Msg("dispatch")

	for _, fn := range d.handlers[ev.Kind] {
		if err := d.invoke(ctx, fn, ev); err != nil {
			return err
		}
	}
	for _, fn := range d.catchAll {
		if err := d.invoke(ctx, fn, ev); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) invoke(ctx context.Context, fn HandlerFunc, ev *v1alpha1.Event) error {
	return errorpanic.Wrap(func() error {
		return fn(ctx, ev)
	})
}
