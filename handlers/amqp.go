package handlers

import (
	"fmt"

	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/internal/relation"
)

// AMQPData is the typed schema of the rabbitmq interface.
type AMQPData struct {
	Hostname string `json:"hostname"`
	Port     int    `json:"port" optional:"true"`
	Username string `json:"username"`
	Password string `json:"password"`
	Vhost    string `json:"vhost" optional:"true"`
}

// AMQP handles a message broker endpoint, contributing the .Amqp namespace
// including the assembled transport URL the oslo.messaging stack expects.
type AMQP struct {
	endpoint  string
	mandatory bool
}

func NewAMQP(endpoint string, mandatory bool) *AMQP {
	return &AMQP{endpoint: endpoint, mandatory: mandatory}
}

func (h *AMQP) Endpoint() string  { return h.endpoint }
func (h *AMQP) Interface() string { return "rabbitmq" }
func (h *AMQP) Mandatory() bool   { return h.mandatory }

func (h *AMQP) Ready(s charm.EndpointSnapshot) bool {
	bag := s.Flatten()
	return bag["hostname"] != "" && bag["username"] != "" && bag["password"] != ""
}

func (h *AMQP) Context(s charm.EndpointSnapshot) (charm.Context, error) {
	var data AMQPData
	if err := relation.Decode(s.Flatten(), &data); err != nil {
		return charm.Context{}, err
	}
	port := data.Port
	if port == 0 {
		port = 5672
	}
	vhost := data.Vhost
	if vhost == "" {
		vhost = "openstack"
	}
	return charm.Context{
		Namespace: "Amqp",
		Values: map[string]interface{}{
			"Hostname": data.Hostname,
			"Port":     port,
			"User":     data.Username,
			"Password": data.Password,
			"Vhost":    vhost,
			"TransportURL": fmt.Sprintf("rabbit://%s:%s@%s:%d/%s",
				data.Username, data.Password, data.Hostname, port, vhost),
		},
	}, nil
}
