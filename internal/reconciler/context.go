package reconciler

import (
	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/internal/status"
)

// buildContext assembles the namespaced render context. Every ready handler
// contributes one namespace, charm config lands under Options and the unit
// identity under Unit. Optional endpoints that are not ready are simply
// absent, templates guard on them with `if`.
func (r *Reconciler) buildContext(st charm.State) (map[string]interface{}, error) {
	out := map[string]interface{}{
		"Options": st.Config.Map(true),
		"Unit": map[string]interface{}{
			"Name":   st.Unit,
			"App":    st.App,
			"Leader": st.Leader,
		},
	}

	for _, h := range r.handlers {
		snap := st.Relation(h.Endpoint())
		if !snap.Related() || !h.Ready(snap) {
			continue
		}
		c, err := h.Context(snap)
		if err != nil {
			// remote published data that violates the interface schema,
			// operator intervention required on the far side
			return nil, status.ErrBlocked(err.Error())
		}
		out[c.Namespace] = c.Values
	}

	for _, h := range r.handlers {
		cc, ok := h.(charm.ConfigContexter)
		if !ok {
			continue
		}
		c, err := cc.ConfigContext(st)
		if err != nil {
			return nil, status.ErrBlocked(err.Error())
		}
		out[c.Namespace] = c.Values
	}
	return out, nil
}
