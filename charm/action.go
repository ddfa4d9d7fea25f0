package charm

import "context"

// ActionFunc runs a named operation synchronously with validated params and
// returns a result mapping surfaced to the operator.
type ActionFunc func(ctx context.Context, st State, params map[string]interface{}) (map[string]string, error)

// Action declares an operator invokable operation, e.g. get-admin-password.
type Action struct {
	Name        string
	Description string
	// Params is a struct value whose fields define the accepted parameters,
	// its reflected JSON schema is exposed by the info command
	Params interface{}
	// LeaderOnly actions are rejected on non leader units
	LeaderOnly bool

	Run ActionFunc
}

// Template declares one rendered configuration file.
type Template struct {
	// Path is the absolute target inside the workload root
	Path string
	// Source is the template text
	Source string
	// Mode is the file mode of the rendered file, 0640 when zero
	Mode uint32
}
