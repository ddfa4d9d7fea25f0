package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/tiny-systems/charmd/charm"
)

// AdminPasswordKey is where the leader shares the generated admin password
// with the rest of the application.
const AdminPasswordKey = "admin-password"

// LeaderReadyKey is the flag the leader sets once its one-time setup is
// done, non leaders wait on it.
const LeaderReadyKey = "leader-ready"

// PeersInterface identifies the peer relation regardless of the endpoint
// name a charm picked for it.
const PeersInterface = "charm-peers"

// Peers handles the peer relation: the application wide data bag used for
// leader coordination and shared credentials. The leader generates the
// admin password once and republishes it on every pass, secret-rotate
// regenerates it.
type Peers struct {
	endpoint string
	// rotate forces the next publish to mint a fresh password
	rotate bool
}

func NewPeers(endpoint string) *Peers {
	return &Peers{endpoint: endpoint}
}

func (h *Peers) Endpoint() string  { return h.endpoint }
func (h *Peers) Interface() string { return PeersInterface }

// Mandatory is false, a single unit application has no peers.
func (h *Peers) Mandatory() bool { return false }

// Ready is true as soon as the relation exists, an empty app bag is a
// valid state for a fresh deployment.
func (h *Peers) Ready(s charm.EndpointSnapshot) bool { return true }

func (h *Peers) Context(s charm.EndpointSnapshot) (charm.Context, error) {
	values := map[string]interface{}{}
	for k, v := range s.App {
		values[k] = v
	}
	return charm.Context{Namespace: "Peers", Values: values}, nil
}

// Publish keeps the shared app bag up to date, leader only by contract.
func (h *Peers) Publish(ctx context.Context, st charm.State) (charm.RelationBag, error) {
	snap := st.Relation(h.endpoint)
	bag := charm.RelationBag{LeaderReadyKey: "true"}
	if pw := snap.App[AdminPasswordKey]; pw != "" && !h.rotate {
		bag[AdminPasswordKey] = pw
	} else {
		pw, err := GeneratePassword()
		if err != nil {
			return nil, err
		}
		bag[AdminPasswordKey] = pw
		h.rotate = false
	}
	return bag, nil
}

// Rotate marks the shared password for regeneration, the fresh value
// reaches peers through the app bag on the publish that follows.
func (h *Peers) Rotate(ctx context.Context, st charm.State) error {
	h.rotate = true
	return nil
}

// GeneratePassword returns a 32 character random hex string.
func GeneratePassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generate password")
	}
	return hex.EncodeToString(buf), nil
}
