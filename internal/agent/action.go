package agent

import (
	"bytes"
	"context"
	"reflect"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/tiny-systems/charmd/api/v1alpha1"
	"github.com/tiny-systems/charmd/pkg/evaluator"
)

type actionInvocation struct {
	req *v1alpha1.ActionRequest
	clb func(*v1alpha1.ActionResponse)
}

func (i *actionInvocation) respond(resp *v1alpha1.ActionResponse) {
	if i.clb != nil {
		i.clb(resp)
	}
}

// handleActionMsg runs on the subscription goroutine: it decodes the
// request and hands it to the loop, actions share the single-threaded
// lifecycle with events.
func (a *Agent) handleActionMsg(msg *nats.Msg) {
	var req v1alpha1.ActionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		a.log.Error().Err(err).Msg("malformed action request")
		return
	}
	inv := &actionInvocation{
		req: &req,
		clb: func(resp *v1alpha1.ActionResponse) {
			data, err := json.Marshal(resp)
			if err != nil {
				a.log.Error().Err(err).Msg("encode action response")
				return
			}
			if err := msg.Respond(data); err != nil {
				a.log.Error().Err(err).Msg("respond action")
			}
		},
	}
	select {
	case a.actionCh <- inv:
	case <-time.After(time.Second * 10):
		a.log.Error().Str("action", req.Name).Msg("action queue timeout")
		inv.respond(&v1alpha1.ActionResponse{ID: req.ID, Error: "agent busy"})
	}
}

// runAction executes one declared action synchronously with the current
// state. Parameters may carry expression envelopes resolved against the
// render context, e.g. {"expression": "$.Database.Host"}.
func (a *Agent) runAction(ctx context.Context, req *v1alpha1.ActionRequest) *v1alpha1.ActionResponse {
	resp := &v1alpha1.ActionResponse{ID: req.ID}

	action, ok := a.ch.Action(req.Name)
	if !ok {
		resp.Error = errors.Errorf("action %q is not declared", req.Name).Error()
		return resp
	}
	st := a.state()
	if action.LeaderOnly && !st.Leader {
		resp.Error = "action requires the leader unit"
		return resp
	}

	params, err := a.resolveParams(req.Params)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	if err := validateParams(action.Params, params); err != nil {
		resp.Error = err.Error()
		return resp
	}

	result, err := action.Run(ctx, st, params)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = result
	return resp
}

// validateParams checks resolved params against the action's declared
// parameter struct: unknown keys and type mismatches are rejected before
// the action runs.
func validateParams(decl interface{}, params map[string]interface{}) error {
	if decl == nil {
		return nil
	}
	t := reflect.TypeOf(decl)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	data, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "encode action params")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(reflect.New(t).Interface()); err != nil {
		return errors.Wrap(err, "action params do not match the declared schema")
	}
	return nil
}

func (a *Agent) resolveParams(raw map[string]interface{}) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	rawData, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "encode action params")
	}

	rctx, err := a.rec.Context(a.state())
	if err != nil {
		// context may be incomplete, expressions just fail to resolve then
		rctx = map[string]interface{}{}
	}
	ctxData, err := json.Marshal(rctx)
	if err != nil {
		return nil, errors.Wrap(err, "encode render context")
	}
	callback, err := evaluator.ContextCallback(ctxData)
	if err != nil {
		return nil, errors.Wrap(err, "parse render context")
	}

	resolved, err := evaluator.NewEvaluator(callback).Eval(rawData)
	if err != nil {
		return nil, errors.Wrap(err, "eval action params")
	}
	params, ok := resolved.(map[string]interface{})
	if !ok {
		return nil, errors.New("action params must be an object")
	}
	return params, nil
}
