package handlers

import (
	"fmt"

	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/internal/relation"
)

// DatabaseData is the typed schema of the mysql_client interface as this
// charm consumes it. Credentials are optional on the wire, the provider
// publishes them only after the requester joined.
type DatabaseData struct {
	Host     string `json:"host" required:"true"`
	Port     int    `json:"port" required:"true"`
	Name     string `json:"name" required:"true"`
	Username string `json:"username" optional:"true"`
	Password string `json:"password" optional:"true"`
}

// Database handles a database endpoint, contributing the .Database
// namespace to rendering.
type Database struct {
	endpoint  string
	mandatory bool
}

func NewDatabase(endpoint string, mandatory bool) *Database {
	return &Database{endpoint: endpoint, mandatory: mandatory}
}

func (h *Database) Endpoint() string  { return h.endpoint }
func (h *Database) Interface() string { return "mysql_client" }
func (h *Database) Mandatory() bool   { return h.mandatory }

// VersionConstraint pins the interface revisions this handler understands.
func (h *Database) VersionConstraint() string { return ">= 0.0, < 2.0" }

func (h *Database) Ready(s charm.EndpointSnapshot) bool {
	bag := s.Flatten()
	return bag["host"] != "" && bag["port"] != "" && bag["name"] != ""
}

func (h *Database) Context(s charm.EndpointSnapshot) (charm.Context, error) {
	var data DatabaseData
	if err := relation.Decode(s.Flatten(), &data); err != nil {
		return charm.Context{}, err
	}
	values := map[string]interface{}{
		"Host": data.Host,
		"Port": data.Port,
		"Name": data.Name,
		"User": data.Username,
	}
	if data.Username != "" && data.Password != "" {
		values["Password"] = data.Password
		values["ConnectionURL"] = fmt.Sprintf("mysql+pymysql://%s:%s@%s:%d/%s",
			data.Username, data.Password, data.Host, data.Port, data.Name)
	} else {
		values["Password"] = ""
		values["ConnectionURL"] = fmt.Sprintf("mysql+pymysql://%s:%d/%s",
			data.Host, data.Port, data.Name)
	}
	return charm.Context{Namespace: namespaceFor(h.endpoint), Values: values}, nil
}
