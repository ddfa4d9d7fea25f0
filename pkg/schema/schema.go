package schema

import (
	"reflect"

	"github.com/goccy/go-json"
	"github.com/swaggest/jsonschema-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func getDefinitionName(t reflect.Type) string {
	return cases.Title(language.English).String(t.Name())
}

// CreateSchema reflects a JSON schema from a typed value. Used to expose
// relation interface schemas and action parameter schemas through the info
// command so both sides of a relation can check what they agreed on.
func CreateSchema(m interface{}) (jsonschema.Schema, error) {
	r := jsonschema.Reflector{
		DefaultOptions: make([]func(ctx *jsonschema.ReflectContext), 0),
	}

	r.InterceptDefName(func(t reflect.Type, _ string) string {
		return getDefinitionName(t)
	})

	defs := make(map[string]jsonschema.Schema)

	sh, err := r.Reflect(m,
		jsonschema.RootRef,
		jsonschema.DefinitionsPrefix("#/$defs/"),
		jsonschema.CollectDefinitions(func(name string, schema jsonschema.Schema) {
			if _, ok := defs[name]; ok {
				return
			}
			defs[name] = schema
		}),
	)
	if err != nil {
		return jsonschema.Schema{}, err
	}
	for name, def := range defs {
		d := def
		sh.WithDefinitionsItem(name, d.ToSchemaOrBool())
	}
	return sh, nil
}

// SchemasEqual compares two JSON schemas for semantic equality, ignoring
// whitespace and key ordering.
func SchemasEqual(schema1, schema2 []byte) bool {
	if len(schema1) == 0 && len(schema2) == 0 {
		return true
	}
	if len(schema1) == 0 || len(schema2) == 0 {
		return false
	}
	var val1, val2 interface{}
	if err := json.Unmarshal(schema1, &val1); err != nil {
		return false
	}
	if err := json.Unmarshal(schema2, &val2); err != nil {
		return false
	}
	return reflect.DeepEqual(val1, val2)
}
