package handlers

import (
	"context"
	"strconv"

	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/internal/relation"
)

// IngressData is the typed schema of the ingress interface, provider side
// publishes the public URL once routing is set up.
type IngressData struct {
	URL string `json:"url"`
}

// Ingress handles an ingress endpoint. It is a requirer that also
// publishes its own service name and port so the ingress provider can
// route to it.
type Ingress struct {
	endpoint  string
	mandatory bool
	service   string
	port      int
}

func NewIngress(endpoint string, mandatory bool, service string, port int) *Ingress {
	return &Ingress{endpoint: endpoint, mandatory: mandatory, service: service, port: port}
}

func (h *Ingress) Endpoint() string  { return h.endpoint }
func (h *Ingress) Interface() string { return "ingress" }
func (h *Ingress) Mandatory() bool   { return h.mandatory }

func (h *Ingress) Ready(s charm.EndpointSnapshot) bool {
	return s.Flatten()["url"] != ""
}

func (h *Ingress) Context(s charm.EndpointSnapshot) (charm.Context, error) {
	var data IngressData
	if err := relation.Decode(s.Flatten(), &data); err != nil {
		return charm.Context{}, err
	}
	return charm.Context{
		Namespace: namespaceFor(h.endpoint),
		Values:    map[string]interface{}{"URL": data.URL},
	}, nil
}

// Publish announces the backend the ingress provider should route to.
func (h *Ingress) Publish(ctx context.Context, st charm.State) (charm.RelationBag, error) {
	return charm.RelationBag{
		"name": h.service,
		"port": strconv.Itoa(h.port),
	}, nil
}
