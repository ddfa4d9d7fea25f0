package reconciler

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/handlers"
	"github.com/tiny-systems/charmd/internal/metrics"
	"github.com/tiny-systems/charmd/internal/relation"
	"github.com/tiny-systems/charmd/internal/render"
	"github.com/tiny-systems/charmd/internal/status"
	"github.com/tiny-systems/charmd/internal/workload"
)

// bootstrapSlot is the status pool slot owned by the reconciler itself.
const bootstrapSlot = "bootstrap"

// VersionChecker is an optional handler interface declaring the interface
// version constraint the handler was written against.
type VersionChecker interface {
	VersionConstraint() string
}

// Result reports what a reconcile pass did.
type Result struct {
	Status       status.Status
	ChangedFiles []string
	Restarted    bool
	// Published maps endpoints this charm provides to the bags that should
	// be pushed to the host runtime, only set on the leader
	Published map[string]charm.RelationBag
}

// Reconciler derives the desired rendered configuration from the current
// state and applies it to the workload when, and only when, it changed.
// All inputs arrive through State on each call, the reconciler itself only
// holds its wiring.
type Reconciler struct {
	log      zerolog.Logger
	ch       *charm.Charm
	handlers []charm.Handler
	renderer *render.Renderer
	sup      workload.Supervisor
	pool     *status.Pool
	metrics  *metrics.Registry
}

func New(log zerolog.Logger, ch *charm.Charm, handlers []charm.Handler,
	renderer *render.Renderer, sup workload.Supervisor,
	pool *status.Pool, reg *metrics.Registry) *Reconciler {
	return &Reconciler{
		log:      log,
		ch:       ch,
		handlers: handlers,
		renderer: renderer,
		sup:      sup,
		pool:     pool,
		metrics:  reg,
	}
}

// Pool exposes the status pool for status-only recomputation.
func (r *Reconciler) Pool() *status.Pool {
	return r.pool
}

// RefreshStatuses updates the per-handler slots from the current state
// without touching the workload. Used on status-only events so the
// aggregate never drifts from what the relations actually look like.
func (r *Reconciler) RefreshStatuses(st charm.State) {
	r.setHandlerStatuses(st)
}

// Context exposes the assembled render context, used by action parameter
// resolution and the one-shot render command.
func (r *Reconciler) Context(st charm.State) (map[string]interface{}, error) {
	return r.buildContext(st)
}

// Reconcile runs one pass. Status carrying errors (waiting, blocked,
// maintenance) are absorbed into the pool, anything else propagates so the
// host runtime can error the unit and re-deliver.
func (r *Reconciler) Reconcile(ctx context.Context, st charm.State) (Result, error) {
	res := Result{Published: map[string]charm.RelationBag{}}
	r.setHandlerStatuses(st)

	err := r.pass(ctx, st, &res)
	if err != nil {
		if s, ok := status.FromError(err); ok {
			r.log.Info().Str("status", s.String()).Msg("reconcile bailed")
			r.pool.Set(bootstrapSlot, s)
			res.Status = r.pool.Compute()
			return res, nil
		}
		r.pool.Set(bootstrapSlot, status.Status{Kind: status.Error, Message: err.Error()})
		res.Status = r.pool.Compute()
		return res, err
	}

	r.pool.Set(bootstrapSlot, status.Status{Kind: status.Active})
	res.Status = r.pool.Compute()
	return res, nil
}

func (r *Reconciler) pass(ctx context.Context, st charm.State, res *Result) error {
	r.publishRelations(ctx, st, res)

	if err := r.checkLeaderReady(st); err != nil {
		return err
	}
	if err := r.checkHandlersReady(ctx, st); err != nil {
		return err
	}

	tctx, err := r.buildContext(st)
	if err != nil {
		return err
	}

	files, err := r.renderer.Render(r.ch.Templates, tctx)
	if err != nil {
		// template errors are operator facing, not transient
		return status.ErrBlocked(err.Error())
	}
	changed, err := r.renderer.Apply(files)
	if err != nil {
		return errors.Wrap(err, "apply rendered config")
	}
	res.ChangedFiles = changed
	for range changed {
		r.metrics.Inc(st.Unit, metrics.MetricFileWritten)
	}

	if len(changed) > 0 {
		r.log.Info().Strs("files", changed).Msg("configuration changed, applying to service")
		if r.ch.ReloadOnChange {
			if err := r.sup.Reload(ctx); err != nil {
				return errors.Wrapf(err, "reload %s", r.ch.Service)
			}
		} else {
			if err := r.sup.Restart(ctx); err != nil {
				return errors.Wrapf(err, "restart %s", r.ch.Service)
			}
		}
		res.Restarted = true
		r.metrics.Inc(st.Unit, metrics.MetricWorkloadRestart)
	} else if err := r.sup.EnsureRunning(ctx); err != nil {
		return errors.Wrapf(err, "start %s", r.ch.Service)
	}
	return nil
}

// publishRelations republishes data on endpoints this charm provides.
// Publishing may depend on data received from elsewhere, so it runs at the
// start of every pass, before any readiness bail-out.
func (r *Reconciler) publishRelations(ctx context.Context, st charm.State, res *Result) {
	if !st.Leader {
		return
	}
	for _, h := range r.handlers {
		pub, ok := h.(charm.Publisher)
		if !ok {
			continue
		}
		bag, err := pub.Publish(ctx, st)
		if err != nil {
			r.log.Warn().Err(err).Str("endpoint", h.Endpoint()).Msg("publish skipped")
			continue
		}
		if len(bag) > 0 {
			res.Published[h.Endpoint()] = bag
		}
	}
}

// checkLeaderReady makes non leaders wait for the leader's one-time setup,
// signalled through the peer relation's app bag. The peer endpoint is found
// by its interface, charms name the endpoint however they like.
func (r *Reconciler) checkLeaderReady(st charm.State) error {
	if st.Leader {
		return nil
	}
	for _, h := range r.handlers {
		if h.Interface() != handlers.PeersInterface {
			continue
		}
		peers, ok := st.Relations[h.Endpoint()]
		if !ok {
			continue
		}
		if peers.App[handlers.LeaderReadyKey] != "true" {
			return status.ErrWaiting("leader not ready")
		}
	}
	return nil
}

// checkHandlersReady gates the pass on every mandatory endpoint. When a
// previously satisfied endpoint went away, rendered files referencing it
// are removed and the service is stopped, stale config is worse than no
// config.
func (r *Reconciler) checkHandlersReady(ctx context.Context, st charm.State) error {
	var notReady []string
	for _, h := range r.handlers {
		if !h.Mandatory() {
			continue
		}
		snap := st.Relation(h.Endpoint())
		if vc, ok := h.(VersionChecker); ok && snap.Related() {
			if err := relation.CheckVersion(snap, vc.VersionConstraint()); err != nil {
				return status.ErrBlocked(err.Error())
			}
		}
		if !snap.Related() || !h.Ready(snap) {
			notReady = append(notReady, h.Endpoint())
		}
	}
	if len(notReady) == 0 {
		return nil
	}
	sort.Strings(notReady)
	r.log.Info().Strs("endpoints", notReady).Msg("mandatory relations incomplete")

	if err := r.dropRenderedConfig(ctx); err != nil {
		return err
	}
	return status.ErrWaiting("not all relations are ready: " + strings.Join(notReady, ", "))
}

func (r *Reconciler) dropRenderedConfig(ctx context.Context) error {
	var stale []string
	for _, t := range r.ch.Templates {
		if r.renderer.Exists(t.Path) {
			stale = append(stale, t.Path)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	r.log.Info().Strs("files", stale).Msg("removing stale rendered config")
	if err := r.sup.Stop(ctx); err != nil {
		return errors.Wrapf(err, "stop %s", r.ch.Service)
	}
	return r.renderer.Remove(stale)
}

// setHandlerStatuses refreshes every handler's slot in the pool so the
// aggregate reflects reality even when the pass bails out early.
func (r *Reconciler) setHandlerStatuses(st charm.State) {
	for _, h := range r.handlers {
		snap := st.Relation(h.Endpoint())
		var s status.Status
		switch {
		case !snap.Related() && h.Mandatory():
			s = status.Status{Kind: status.Blocked, Message: "integration missing"}
		case !snap.Related():
			s = status.Status{Kind: status.Unknown}
		case !h.Ready(snap):
			s = status.Status{Kind: status.Waiting, Message: "integration incomplete"}
		default:
			s = status.Status{Kind: status.Active}
		}
		r.pool.Set(h.Endpoint(), s)
	}
}

// RotateSecrets invokes rotation on handlers that own rotating credentials.
// Leader only, rotation regenerates and republishes through the normal
// reconcile that follows.
func (r *Reconciler) RotateSecrets(ctx context.Context, st charm.State) error {
	if !st.Leader {
		return nil
	}
	for _, h := range r.handlers {
		rot, ok := h.(charm.SecretRotator)
		if !ok {
			continue
		}
		if err := rot.Rotate(ctx, st); err != nil {
			return errors.Wrapf(err, "rotate secrets for %s", h.Endpoint())
		}
	}
	return nil
}
