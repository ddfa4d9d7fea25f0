package registry

import (
	"sort"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Interface describes one relation wire protocol: its typed data schema
// and the documented key precedence policy. The info command renders these
// so both sides of a relation can check what they agreed on.
type Interface struct {
	// Name of the wire protocol, e.g. mysql_client
	Name string
	// Version this charm speaks
	Version string
	// Data is a typed zero value whose reflected schema defines the keys
	Data interface{}
	// Precedence documents how conflicting values are resolved, e.g.
	// "app bag over unit bags, lexical unit order"
	Precedence string
}

// Collection is an explicit registry of relation interfaces. It is plain
// instance state handed to whoever needs it, nothing is registered through
// package level globals.
type Collection struct {
	interfaces cmap.ConcurrentMap[string, Interface]
}

func New() *Collection {
	return &Collection{interfaces: cmap.New[Interface]()}
}

// Register adds or replaces an interface descriptor.
func (c *Collection) Register(i Interface) {
	c.interfaces.Set(i.Name, i)
}

// Get returns a descriptor by protocol name.
func (c *Collection) Get(name string) (Interface, bool) {
	return c.interfaces.Get(name)
}

// All returns descriptors sorted by name.
func (c *Collection) All() []Interface {
	names := c.interfaces.Keys()
	sort.Strings(names)
	out := make([]Interface, 0, len(names))
	for _, n := range names {
		i, _ := c.interfaces.Get(n)
		out = append(out, i)
	}
	return out
}
