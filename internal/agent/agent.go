package agent

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/tiny-systems/charmd/api/v1alpha1"
	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/internal/dispatcher"
	"github.com/tiny-systems/charmd/internal/metrics"
	"github.com/tiny-systems/charmd/internal/reconciler"
	"github.com/tiny-systems/charmd/internal/relation"
	"github.com/tiny-systems/charmd/internal/render"
	"github.com/tiny-systems/charmd/internal/status"
	"github.com/tiny-systems/charmd/internal/tracker"
	"github.com/tiny-systems/charmd/internal/workload"
	cerrors "github.com/tiny-systems/charmd/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Config is the agent's own configuration, loaded by the CLI via viper.
type Config struct {
	// Unit is the full unit name, e.g. keystone/0
	Unit string
	// BusURL is the NATS connection string
	BusURL string
	// QueueSize caps the event queue
	QueueSize int
}

// App derives the application name from the unit name.
func (c Config) App() string {
	if idx := strings.Index(c.Unit, "/"); idx > 0 {
		return c.Unit[:idx]
	}
	return c.Unit
}

// Agent owns the event loop of one unit: bus subscriptions feed the finite
// queue, a single consumer applies each event to the relation store, runs
// the dispatcher and publishes the resulting status. All charm state lives
// in loop-owned fields and is passed to the reconciler explicitly.
type Agent struct {
	log zerolog.Logger
	cfg Config
	ch  *charm.Charm

	nc       *nats.Conn
	queue    *dispatcher.Queue
	disp     *dispatcher.Dispatcher
	store    *relation.Store
	rec      *reconciler.Reconciler
	sup      workload.Supervisor
	tracker  *tracker.Manager
	metrics  *metrics.Registry
	handlers []charm.Handler

	actionCh chan *actionInvocation

	// loop-owned charm state, never shared
	leader    bool
	config    charm.Values
	configErr error
	// lastResult is what the most recent reconcile pass did, cleared at the
	// start of every processed event
	lastResult reconciler.Result
}

// New wires an agent. The supervisor and filesystem are injected so the
// render command and tests can run without a real service.
func New(log zerolog.Logger, cfg Config, ch *charm.Charm, handlers []charm.Handler,
	nc *nats.Conn, sup workload.Supervisor, fs afero.Fs, callbacks ...tracker.Callback) (*Agent, error) {

	if err := ch.Validate(); err != nil {
		return nil, err
	}
	if cfg.Unit == "" {
		return nil, errors.New("unit name is required")
	}

	store := relation.NewStore()
	for _, h := range handlers {
		store.Declare(h.Endpoint(), h.Interface())
	}

	// defaults apply until the first config-changed arrives
	values, err := charm.ValidateConfig(ch.Options, nil)
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	rec := reconciler.New(log, ch, handlers, render.New(fs), sup, status.NewPool(), reg)

	a := &Agent{
		log:      log,
		cfg:      cfg,
		ch:       ch,
		nc:       nc,
		queue:    dispatcher.NewQueue(cfg.QueueSize),
		disp:     dispatcher.New(log),
		store:    store,
		rec:      rec,
		sup:      sup,
		tracker:  tracker.NewManager(callbacks...),
		metrics:  reg,
		handlers: handlers,
		actionCh: make(chan *actionInvocation),
		config:   values,
	}
	a.registerHandlers()
	return a, nil
}

// registerHandlers wires event kinds to their processing, in the order the
// dispatcher will run them.
func (a *Agent) registerHandlers() {
	reconcileKinds := []v1alpha1.EventKind{
		v1alpha1.EventInstall,
		v1alpha1.EventStart,
		v1alpha1.EventConfigChanged,
		v1alpha1.EventLeaderElected,
		v1alpha1.EventLeaderSettingsChanged,
		v1alpha1.EventSecretChanged,
		v1alpha1.EventRelationCreated,
		v1alpha1.EventRelationJoined,
		v1alpha1.EventRelationChanged,
		v1alpha1.EventRelationDeparted,
		v1alpha1.EventRelationBroken,
	}
	for _, kind := range reconcileKinds {
		a.disp.Register(kind, a.reconcileEvent)
	}
	a.disp.Register(v1alpha1.EventSecretRotate, a.rotateEvent)
	a.disp.Register(v1alpha1.EventStop, a.stopEvent)
	a.disp.Register(v1alpha1.EventUpdateStatus, a.statusEvent)
}

// Run subscribes to the bus and consumes the queue until the context ends.
func (a *Agent) Run(ctx context.Context) error {
	wg, ctx := errgroup.WithContext(ctx)

	subs, err := a.subscribe()
	if err != nil {
		return err
	}
	wg.Go(func() error {
		<-ctx.Done()
		for _, sub := range subs {
			a.unsubscribe(sub)
		}
		return nil
	})

	wg.Go(func() error {
		return a.loop(ctx)
	})

	a.log.Info().Str("unit", a.cfg.Unit).Str("charm", a.ch.Name).Msg("agent started")
	return wg.Wait()
}

func (a *Agent) subscribe() ([]*nats.Subscription, error) {
	var subs []*nats.Subscription

	eventSub, err := a.nc.Subscribe(EventSubject(a.cfg.App(), a.cfg.Unit), func(msg *nats.Msg) {
		var ev v1alpha1.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			a.log.Error().Err(err).Msg("malformed event envelope")
			return
		}
		if err := a.queue.Push(&ev); err != nil {
			a.log.Error().Err(err).Str("kind", string(ev.Kind)).Msg("event dropped")
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "subscribe events")
	}
	subs = append(subs, eventSub)

	actionSub, err := a.nc.QueueSubscribe(ActionSubject(a.cfg.App(), a.cfg.Unit), a.cfg.App(), func(msg *nats.Msg) {
		a.handleActionMsg(msg)
	})
	if err != nil {
		return nil, errors.Wrap(err, "subscribe actions")
	}
	subs = append(subs, actionSub)

	lookupSub, err := a.nc.Subscribe(LookupSubject(a.cfg.App()), func(msg *nats.Msg) {
		info := v1alpha1.UnitInfo{
			Unit:    a.cfg.Unit,
			App:     a.cfg.App(),
			Charm:   a.ch.Name,
			Version: a.ch.Version,
		}
		data, err := json.Marshal(info)
		if err != nil {
			return
		}
		_ = msg.Respond(data)
	})
	if err != nil {
		return nil, errors.Wrap(err, "subscribe lookup")
	}
	subs = append(subs, lookupSub)

	return subs, nil
}

func (a *Agent) unsubscribe(sub *nats.Subscription) {
	if err := sub.Drain(); err != nil {
		a.log.Error().Err(err).Str("subj", sub.Subject).Msg("drain error")
		return
	}
	if err := sub.Unsubscribe(); err != nil {
		a.log.Error().Err(err).Str("subj", sub.Subject).Msg("unsubscribe error")
	}
}

// loop is the single consumer: one event or action fully processed before
// the next is looked at.
func (a *Agent) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.log.Info().Msg("agent loop stopped")
			return nil
		case inv := <-a.actionCh:
			inv.respond(a.runAction(ctx, inv.req))
		case <-a.queue.Ready():
			if ev, ok := a.queue.TryPop(); ok {
				a.process(ctx, ev)
			}
		}
	}
}

// process applies one event to the loop state and dispatches it. Errors do
// not stop the loop: the status report carries the failure and its event
// ID, redelivery is the host runtime's job.
func (a *Agent) process(ctx context.Context, ev *v1alpha1.Event) {
	started := time.Now()
	a.lastResult = reconciler.Result{}

	err := a.applyEvent(ev)
	if err == nil {
		err = a.disp.Dispatch(ctx, ev)
	}

	st := a.rec.Pool().Compute()
	if err != nil {
		if s, ok := status.FromError(err); ok {
			st = s
		} else if cerrors.IsPermanent(err) {
			// redelivery cannot fix these, report blocked instead of
			// erroring the unit into a retry loop
			st = status.Status{Kind: status.Blocked, Message: err.Error()}
		} else {
			st = status.Status{Kind: status.Error, Message: err.Error()}
			a.metrics.Inc(a.cfg.Unit, metrics.MetricEventFailed)
		}
	}
	a.metrics.Inc(a.cfg.Unit, metrics.MetricEventProcessed)

	a.publishStatus(ev, st)
	a.tracker.Track(tracker.PassRecord{
		EventID:      ev.ID,
		EventKind:    ev.Kind,
		Unit:         a.cfg.Unit,
		Status:       st,
		Workload:     a.sup.State(),
		ChangedFiles: a.lastResult.ChangedFiles,
		Restarted:    a.lastResult.Restarted,
		Err:          err,
		Duration:     time.Since(started),
	})
}

// applyEvent folds the event payload into the loop-owned state before any
// handler runs.
func (a *Agent) applyEvent(ev *v1alpha1.Event) error {
	a.leader = ev.Leader

	if ev.Config != nil {
		values, err := charm.ValidateConfig(a.ch.Options, ev.Config)
		if err != nil {
			// remembered so every following pass stays blocked until the
			// operator fixes the option
			a.configErr = err
			return nil
		}
		a.config = values
		a.configErr = nil
	}

	if ev.Kind.RelationEvent() {
		if ev.Relation == nil {
			return cerrors.NewPermanentError(errors.Errorf("%s event without relation payload", ev.Kind))
		}
		switch ev.Kind {
		case v1alpha1.EventRelationBroken:
			a.store.Broken(ev.Relation.Endpoint)
		case v1alpha1.EventRelationDeparted:
			if err := a.store.Update(ev.Relation); err != nil {
				return cerrors.NewPermanentError(err)
			}
			if ev.Relation.Departed != "" {
				a.store.Depart(ev.Relation.Endpoint, ev.Relation.Departed)
			}
		default:
			if err := a.store.Update(ev.Relation); err != nil {
				return cerrors.NewPermanentError(err)
			}
		}
	}
	return nil
}

// state assembles the explicit input of a reconcile pass.
func (a *Agent) state() charm.State {
	return charm.State{
		Unit:      a.cfg.Unit,
		App:       a.cfg.App(),
		Leader:    a.leader,
		Config:    a.config,
		Relations: a.store.Snapshot(),
		Workload:  string(a.sup.State()),
	}
}

func (a *Agent) reconcileEvent(ctx context.Context, ev *v1alpha1.Event) error {
	if a.configErr != nil {
		return status.ErrBlocked(a.configErr.Error())
	}
	res, err := a.rec.Reconcile(ctx, a.state())
	a.lastResult = res
	a.pushPublished(res.Published)
	return err
}

func (a *Agent) rotateEvent(ctx context.Context, ev *v1alpha1.Event) error {
	if err := a.rec.RotateSecrets(ctx, a.state()); err != nil {
		return err
	}
	return a.reconcileEvent(ctx, ev)
}

func (a *Agent) stopEvent(ctx context.Context, ev *v1alpha1.Event) error {
	return a.sup.Stop(ctx)
}

// statusEvent recomputes the aggregate without touching the workload. The
// same blockers a reconcile would hit have to surface here too, otherwise
// a periodic update-status would mask them with a stale aggregate.
func (a *Agent) statusEvent(ctx context.Context, ev *v1alpha1.Event) error {
	if a.configErr != nil {
		return status.ErrBlocked(a.configErr.Error())
	}
	a.rec.RefreshStatuses(a.state())
	return nil
}

// pushPublished sends changed local bags for provided endpoints to the
// host runtime, skipping bags identical to what was already published.
func (a *Agent) pushPublished(published map[string]charm.RelationBag) {
	for endpoint, bag := range published {
		if bagsEqual(a.store.Local(endpoint), bag) {
			continue
		}
		a.store.SetLocal(endpoint, bag)
		data, err := json.Marshal(bag)
		if err != nil {
			a.log.Error().Err(err).Str("endpoint", endpoint).Msg("encode relation bag")
			continue
		}
		subj := RelationSubject(a.cfg.App(), a.cfg.Unit, endpoint)
		if a.nc != nil {
			if err := a.nc.Publish(subj, data); err != nil {
				a.log.Error().Err(err).Str("subj", subj).Msg("publish relation bag")
			}
		}
	}
}

func (a *Agent) publishStatus(ev *v1alpha1.Event, st status.Status) {
	report := v1alpha1.StatusReport{
		Unit:     a.cfg.Unit,
		App:      a.cfg.App(),
		Status:   string(st.Kind),
		Message:  st.Message,
		Workload: a.sup.State(),
		EventID:  ev.ID,
	}
	data, err := json.Marshal(report)
	if err != nil {
		a.log.Error().Err(err).Msg("encode status report")
		return
	}
	if a.nc != nil {
		if err := a.nc.Publish(StatusSubject(a.cfg.App(), a.cfg.Unit), data); err != nil {
			a.log.Error().Err(err).Msg("publish status report")
		}
	}
}

func bagsEqual(a, b charm.RelationBag) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
