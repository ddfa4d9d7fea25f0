package schema

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

type dbParams struct {
	Host string `json:"host" required:"true" title:"Database host"`
	Port int    `json:"port"`
}

func TestCreateSchema(t *testing.T) {
	sh, err := CreateSchema(dbParams{})
	if err != nil {
		t.Fatalf("CreateSchema() unexpected error: %v", err)
	}

	data, err := json.Marshal(sh)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `"$ref":"#/$defs/Dbparams"`) {
		t.Errorf("CreateSchema() missing root ref, got %s", out)
	}
	if !strings.Contains(out, `"host"`) || !strings.Contains(out, `"port"`) {
		t.Errorf("CreateSchema() missing fields, got %s", out)
	}
	if !strings.Contains(out, `"$defs"`) {
		t.Errorf("CreateSchema() missing definitions, got %s", out)
	}
}

func TestSchemasEqual(t *testing.T) {
	tests := []struct {
		name    string
		schema1 []byte
		schema2 []byte
		want    bool
	}{
		{
			name:    "both empty",
			schema1: []byte(``),
			schema2: []byte(``),
			want:    true,
		},
		{
			name:    "one empty",
			schema1: []byte(`{}`),
			schema2: []byte(``),
			want:    false,
		},
		{
			name:    "key order does not matter",
			schema1: []byte(`{"type":"object","title":"t"}`),
			schema2: []byte(`{"title":"t","type":"object"}`),
			want:    true,
		},
		{
			name:    "different content",
			schema1: []byte(`{"type":"object"}`),
			schema2: []byte(`{"type":"string"}`),
			want:    false,
		},
		{
			name:    "invalid json",
			schema1: []byte(`{`),
			schema2: []byte(`{}`),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SchemasEqual(tt.schema1, tt.schema2); got != tt.want {
				t.Errorf("SchemasEqual() = %v, want %v", got, tt.want)
			}
		})
	}
}
