package charm

import "context"

// Context is a named bag of values a handler contributes to template
// rendering. Namespace becomes the top level field in the render context,
// e.g. a handler for the database endpoint contributes .Database.
type Context struct {
	Namespace string
	Values    map[string]interface{}
}

// Handler manages one relation endpoint for a charm. Handlers are plain
// capability objects injected into the reconciler as a list, composition
// replaces the deep operator base class hierarchy of the original stack.
type Handler interface {
	// Endpoint returns the relation endpoint this handler covers
	Endpoint() string
	// Interface names the relation protocol the handler understands
	Interface() string
	// Mandatory handlers gate reconciliation: while any of them is not
	// ready the pass bails out with a waiting status and nothing is
	// rendered
	Mandatory() bool
	// Ready reports whether the snapshot carries every key the handler
	// needs to build its context
	Ready(s EndpointSnapshot) bool
	// Context decodes the snapshot into a render context namespace. It is
	// only called when Ready returned true.
	Context(s EndpointSnapshot) (Context, error)
}

// Publisher is implemented by handlers for endpoints this charm provides.
// Publish returns the bag to write into the local application data, the
// agent pushes it to the host runtime. Only the leader publishes.
type Publisher interface {
	Publish(ctx context.Context, st State) (RelationBag, error)
}

// SecretRotator is implemented by handlers that own rotating credentials.
// Rotate is invoked on secret-rotate events, on the leader only.
type SecretRotator interface {
	Rotate(ctx context.Context, st State) error
}

// ConfigContexter is an optional hook for handlers that contribute extra
// namespaces derived from charm config rather than relation data.
type ConfigContexter interface {
	ConfigContext(st State) (Context, error)
}
