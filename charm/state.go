package charm

import "sort"

// RelationBag is one side's key-value data on a relation.
type RelationBag map[string]string

// EndpointSnapshot is the immutable view of a single relation endpoint
// handed to handlers during a reconcile pass.
type EndpointSnapshot struct {
	// Endpoint is the local relation name, e.g. database
	Endpoint string
	// Interface both sides agreed on, e.g. mysql_client
	Interface string
	// Version published by the remote application, may be empty
	Version string
	// RemoteApp is the related application name, empty when not related
	RemoteApp string
	// App is the remote application data bag
	App RelationBag
	// Units maps remote unit name to its bag
	Units map[string]RelationBag
}

// Related reports whether the endpoint has a remote application attached.
func (s EndpointSnapshot) Related() bool {
	return s.RemoteApp != ""
}

// UnitNames returns remote unit names in lexical order.
func (s EndpointSnapshot) UnitNames() []string {
	names := make([]string, 0, len(s.Units))
	for n := range s.Units {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Flatten merges unit bags and the app bag into a single bag using the
// documented precedence: unit bags are applied in lexical unit name order,
// a later unit overrides an earlier one, and the app bag overrides any
// unit value. The app bag is written by the remote leader and is therefore
// the most authoritative source.
func (s EndpointSnapshot) Flatten() RelationBag {
	out := RelationBag{}
	for _, name := range s.UnitNames() {
		for k, v := range s.Units[name] {
			out[k] = v
		}
	}
	for k, v := range s.App {
		out[k] = v
	}
	return out
}

// State is everything a reconcile pass is allowed to read. It is rebuilt
// from the event stream by the agent and passed in on each invocation,
// there is no process wide mutable charm state.
type State struct {
	// Unit is the full unit name, e.g. keystone/0
	Unit string
	// App is the application name part of Unit
	App string
	// Leader is the host runtime leadership flag
	Leader bool
	// Config holds validated option values
	Config Values
	// Relations maps endpoint name to its current snapshot. Endpoints the
	// charm declares but that are not related are present with a zero
	// snapshot so handlers can distinguish absent from incomplete.
	Relations map[string]EndpointSnapshot
	// Workload is the last observed workload state
	Workload string
}

// Relation returns the snapshot for an endpoint, zero valued when unknown.
func (s State) Relation(endpoint string) EndpointSnapshot {
	return s.Relations[endpoint]
}
