package relation

import (
	"github.com/pkg/errors"
	"github.com/tiny-systems/charmd/api/v1alpha1"
	"github.com/tiny-systems/charmd/charm"
)

// Store keeps the current relation data per declared endpoint. It is owned
// by the dispatch loop and is not goroutine safe, the host runtime
// serializes relation event delivery so a single owner is enough.
type Store struct {
	endpoints map[string]*endpointState
}

type endpointState struct {
	iface     string
	version   string
	remoteApp string
	app       charm.RelationBag
	units     map[string]charm.RelationBag
	// local is what this charm last published on the endpoint
	local charm.RelationBag
}

func NewStore() *Store {
	return &Store{endpoints: map[string]*endpointState{}}
}

// Declare registers an endpoint the charm knows about. Undeclared endpoints
// in incoming payloads are rejected, the relation surface is part of the
// charm contract.
func (s *Store) Declare(endpoint, iface string) {
	if _, ok := s.endpoints[endpoint]; ok {
		return
	}
	s.endpoints[endpoint] = &endpointState{
		iface: iface,
		units: map[string]charm.RelationBag{},
	}
}

// Update replaces the endpoint view with the payload of a relation event.
func (s *Store) Update(p *v1alpha1.RelationPayload) error {
	if p == nil {
		return errors.New("relation payload is empty")
	}
	ep, ok := s.endpoints[p.Endpoint]
	if !ok {
		return errors.Errorf("endpoint %q is not declared by this charm", p.Endpoint)
	}
	if p.Interface != "" && p.Interface != ep.iface {
		return errors.Errorf("endpoint %q expects interface %q, remote offers %q",
			p.Endpoint, ep.iface, p.Interface)
	}
	ep.remoteApp = p.RemoteApp
	ep.version = p.Version
	ep.app = copyBag(p.App)
	ep.units = map[string]charm.RelationBag{}
	for name, bag := range p.Units {
		ep.units[name] = copyBag(bag)
	}
	return nil
}

// Depart removes one remote unit's bag, keeping the rest of the endpoint.
func (s *Store) Depart(endpoint, unit string) {
	if ep, ok := s.endpoints[endpoint]; ok {
		delete(ep.units, unit)
	}
}

// Broken clears the endpoint entirely. It stays declared so snapshots keep
// reporting it as present-but-unrelated.
func (s *Store) Broken(endpoint string) {
	if ep, ok := s.endpoints[endpoint]; ok {
		ep.remoteApp = ""
		ep.version = ""
		ep.app = nil
		ep.units = map[string]charm.RelationBag{}
	}
}

// SetLocal records the bag this charm last published on an endpoint it
// provides. Used to avoid republishing identical data.
func (s *Store) SetLocal(endpoint string, bag charm.RelationBag) {
	if ep, ok := s.endpoints[endpoint]; ok {
		ep.local = copyBag(bag)
	}
}

// Local returns the last published bag for an endpoint.
func (s *Store) Local(endpoint string) charm.RelationBag {
	if ep, ok := s.endpoints[endpoint]; ok {
		return copyBag(ep.local)
	}
	return nil
}

// Snapshot returns a deep copy of every declared endpoint, safe to hand to
// handlers for the duration of a reconcile pass.
func (s *Store) Snapshot() map[string]charm.EndpointSnapshot {
	out := make(map[string]charm.EndpointSnapshot, len(s.endpoints))
	for name, ep := range s.endpoints {
		snap := charm.EndpointSnapshot{
			Endpoint:  name,
			Interface: ep.iface,
			Version:   ep.version,
			RemoteApp: ep.remoteApp,
			App:       copyBag(ep.app),
			Units:     make(map[string]charm.RelationBag, len(ep.units)),
		}
		for unit, bag := range ep.units {
			snap.Units[unit] = copyBag(bag)
		}
		out[name] = snap
	}
	return out
}

func copyBag(in map[string]string) charm.RelationBag {
	if in == nil {
		return nil
	}
	out := make(charm.RelationBag, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
