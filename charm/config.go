package charm

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// OptionType is the declared type of a configuration option.
type OptionType string

const (
	BoolOption   OptionType = "boolean"
	IntOption    OptionType = "int"
	StringOption OptionType = "string"
	// SecretOption values are strings that must never be logged or echoed
	// back in status messages
	SecretOption OptionType = "secret"
)

// Option declares one operator facing configuration knob.
type Option struct {
	Name        string
	Type        OptionType
	Default     interface{}
	Description string
}

// OptionError reports an operator supplied value that violates the declared
// option surface. The reconciler maps it to a blocked status before any
// workload mutation happens.
type OptionError struct {
	Option string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("config option %q: %s", e.Option, e.Reason)
}

// Values holds validated, typed option values.
type Values struct {
	vals     map[string]interface{}
	secrets  map[string]bool
	declared map[string]bool
}

// ValidateConfig checks raw operator input against the declared options and
// returns typed values with defaults applied. Unknown options and type
// violations are rejected, nothing is coerced silently.
func ValidateConfig(opts []Option, raw map[string]interface{}) (Values, error) {
	declared := make(map[string]Option, len(opts))
	for _, o := range opts {
		declared[o.Name] = o
	}

	// deterministic error reporting
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := Values{
		vals:     make(map[string]interface{}, len(opts)),
		secrets:  make(map[string]bool),
		declared: make(map[string]bool, len(opts)),
	}
	for _, o := range opts {
		v.declared[o.Name] = true
		if o.Default != nil {
			v.vals[o.Name] = o.Default
		}
		if o.Type == SecretOption {
			v.secrets[o.Name] = true
		}
	}

	for _, k := range keys {
		o, ok := declared[k]
		if !ok {
			return Values{}, &OptionError{Option: k, Reason: "not declared"}
		}
		val, err := coerce(o, raw[k])
		if err != nil {
			return Values{}, err
		}
		v.vals[k] = val
	}
	return v, nil
}

func coerce(o Option, raw interface{}) (interface{}, error) {
	switch o.Type {
	case BoolOption:
		b, ok := raw.(bool)
		if !ok {
			return nil, &OptionError{Option: o.Name, Reason: fmt.Sprintf("expected boolean, got %T", raw)}
		}
		return b, nil
	case IntOption:
		switch n := raw.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			// JSON numbers arrive as float64
			if n != math.Trunc(n) {
				return nil, &OptionError{Option: o.Name, Reason: "expected int, got fractional number"}
			}
			return int(n), nil
		}
		return nil, &OptionError{Option: o.Name, Reason: fmt.Sprintf("expected int, got %T", raw)}
	case StringOption, SecretOption:
		s, ok := raw.(string)
		if !ok {
			return nil, &OptionError{Option: o.Name, Reason: fmt.Sprintf("expected string, got %T", raw)}
		}
		return s, nil
	}
	return nil, &OptionError{Option: o.Name, Reason: fmt.Sprintf("unknown option type %q", o.Type)}
}

// Bool returns a boolean option value, false when unset.
func (v Values) Bool(name string) bool {
	b, _ := v.vals[name].(bool)
	return b
}

// Int returns an int option value, zero when unset.
func (v Values) Int(name string) int {
	switch n := v.vals[name].(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// String returns a string option value, empty when unset.
func (v Values) String(name string) string {
	s, _ := v.vals[name].(string)
	return s
}

// Secret reports whether the named option is secret typed.
func (v Values) Secret(name string) bool {
	return v.secrets[name]
}

// Map returns the values as a plain map for template rendering, with
// secret values redacted unless includeSecrets is set.
func (v Values) Map(includeSecrets bool) map[string]interface{} {
	out := make(map[string]interface{}, len(v.vals))
	for k, val := range v.vals {
		if v.secrets[k] && !includeSecrets {
			out[k] = "***"
			continue
		}
		out[k] = val
	}
	return out
}

// Set returns a copy of the values with one option overridden. The option
// must be declared, this is used by rotation flows that regenerate secret
// values at runtime.
func (v Values) Set(name string, val interface{}) (Values, error) {
	if !v.declared[name] {
		return Values{}, errors.Errorf("option %q is not declared", name)
	}
	out := Values{
		vals:     make(map[string]interface{}, len(v.vals)),
		secrets:  v.secrets,
		declared: v.declared,
	}
	for k, value := range v.vals {
		out.vals[k] = value
	}
	out.vals[name] = val
	return out, nil
}
