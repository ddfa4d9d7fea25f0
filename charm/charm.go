package charm

import (
	"fmt"
	"strings"
)

// Charm describes one operator: the service it manages, the configuration
// options it accepts, the files it renders and the operations it exposes.
// A Charm carries no mutable runtime state, everything derived from events
// is passed into the reconciler explicitly via State.
type Charm struct {
	// Name of the charm, e.g. keystone-k8s
	Name string
	// Summary shown by the info command
	Summary string
	// Version of the charm itself
	Version string

	// Service is the name of the managed workload process
	Service string

	// ReloadOnChange makes configuration changes reload the service instead
	// of restarting it, for services that re-read config on SIGHUP
	ReloadOnChange bool

	// Options declares the operator facing configuration surface
	Options []Option

	// Templates are rendered on every successful reconcile
	Templates []Template

	// Actions are invoked synchronously by the operator
	Actions []Action
}

// Action finds a declared action by name.
func (c *Charm) Action(name string) (Action, bool) {
	for _, a := range c.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// Option finds a declared option by name.
func (c *Charm) Option(name string) (Option, bool) {
	for _, o := range c.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Validate checks the descriptor itself, not operator input.
func (c *Charm) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("charm name is invalid")
	}
	if c.Service == "" {
		return fmt.Errorf("charm %s declares no service", c.Name)
	}
	for _, t := range c.Templates {
		if !strings.HasPrefix(t.Path, "/") {
			return fmt.Errorf("template target %q is not absolute", t.Path)
		}
	}
	return nil
}
