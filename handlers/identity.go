package handlers

import (
	"fmt"

	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/internal/relation"
)

// IdentityData is the typed schema of the keystone identity-service
// interface, the credentials a service uses to validate tokens.
type IdentityData struct {
	AuthHost     string `json:"auth-host"`
	AuthPort     int    `json:"auth-port"`
	AuthProtocol string `json:"auth-protocol" optional:"true"`
	Username     string `json:"service-user-name"`
	Password     string `json:"service-password"`
	Project      string `json:"service-project-name" optional:"true"`
	UserDomain   string `json:"service-user-domain-name" optional:"true"`
	ProjDomain   string `json:"service-project-domain-name" optional:"true"`
	Region       string `json:"region" optional:"true"`
}

// Identity handles the identity-service endpoint, contributing the
// .IdentityService namespace used by keystone_authtoken sections.
type Identity struct {
	endpoint  string
	mandatory bool
}

func NewIdentity(endpoint string, mandatory bool) *Identity {
	return &Identity{endpoint: endpoint, mandatory: mandatory}
}

func (h *Identity) Endpoint() string  { return h.endpoint }
func (h *Identity) Interface() string { return "keystone" }
func (h *Identity) Mandatory() bool   { return h.mandatory }

func (h *Identity) VersionConstraint() string { return ">= 1.0, < 2.0" }

func (h *Identity) Ready(s charm.EndpointSnapshot) bool {
	bag := s.Flatten()
	return bag["auth-host"] != "" && bag["auth-port"] != "" &&
		bag["service-user-name"] != "" && bag["service-password"] != ""
}

func (h *Identity) Context(s charm.EndpointSnapshot) (charm.Context, error) {
	var data IdentityData
	if err := relation.Decode(s.Flatten(), &data); err != nil {
		return charm.Context{}, err
	}
	proto := data.AuthProtocol
	if proto == "" {
		proto = "http"
	}
	values := map[string]interface{}{
		"AuthURL":       fmt.Sprintf("%s://%s:%d", proto, data.AuthHost, data.AuthPort),
		"User":          data.Username,
		"Password":      data.Password,
		"Project":       orDefault(data.Project, "services"),
		"UserDomain":    orDefault(data.UserDomain, "service_domain"),
		"ProjectDomain": orDefault(data.ProjDomain, "service_domain"),
		"Region":        orDefault(data.Region, "RegionOne"),
	}
	return charm.Context{Namespace: namespaceFor(h.endpoint), Values: values}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
