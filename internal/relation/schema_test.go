package relation

import (
	"strings"
	"testing"

	"github.com/tiny-systems/charmd/charm"
)

type dbSchema struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"name"`
	Password string `json:"password" optional:"true"`
	TLS      bool   `json:"tls" optional:"true"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		bag     charm.RelationBag
		wantErr string
		check   func(t *testing.T, d dbSchema)
	}{
		{
			name: "complete bag",
			bag:  charm.RelationBag{"host": "10.0.0.1", "port": "3306", "name": "glance"},
			check: func(t *testing.T, d dbSchema) {
				if d.Host != "10.0.0.1" || d.Port != 3306 || d.Name != "glance" {
					t.Errorf("Decode() = %+v", d)
				}
			},
		},
		{
			name: "optional keys may be absent",
			bag:  charm.RelationBag{"host": "10.0.0.1", "port": "3306", "name": "glance"},
			check: func(t *testing.T, d dbSchema) {
				if d.Password != "" || d.TLS {
					t.Errorf("Decode() optional fields = %+v, want zero", d)
				}
			},
		},
		{
			name: "bool field parsed",
			bag: charm.RelationBag{
				"host": "10.0.0.1", "port": "3306", "name": "glance", "tls": "true",
			},
			check: func(t *testing.T, d dbSchema) {
				if !d.TLS {
					t.Error("Decode() tls = false, want true")
				}
			},
		},
		{
			name:    "missing required key",
			bag:     charm.RelationBag{"host": "10.0.0.1", "port": "3306"},
			wantErr: `relation key "name" is missing`,
		},
		{
			name: "unknown key rejected",
			bag: charm.RelationBag{
				"host": "10.0.0.1", "port": "3306", "name": "glance", "shard": "3",
			},
			wantErr: "unknown keys: shard",
		},
		{
			name: "runtime injected keys are ignored",
			bag: charm.RelationBag{
				"host": "10.0.0.1", "port": "3306", "name": "glance",
				"ingress-address": "10.0.0.1", "egress-subnets": "10.0.0.0/24",
			},
			check: func(t *testing.T, d dbSchema) {
				if d.Host != "10.0.0.1" {
					t.Errorf("Decode() host = %q", d.Host)
				}
			},
		},
		{
			name:    "non numeric int value",
			bag:     charm.RelationBag{"host": "10.0.0.1", "port": "lots", "name": "glance"},
			wantErr: `relation key "port": expected int`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d dbSchema
			err := Decode(tt.bag, &d)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("Decode() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Decode() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}

func TestDecodeRejectsNonStructTarget(t *testing.T) {
	var s string
	if err := Decode(charm.RelationBag{}, &s); err == nil {
		t.Error("Decode() into *string expected error, got nil")
	}
	if err := Decode(charm.RelationBag{}, dbSchema{}); err == nil {
		t.Error("Decode() into non-pointer expected error, got nil")
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		constraint string
		wantErr    bool
	}{
		{name: "satisfied", version: "1.3", constraint: ">= 1.0, < 2.0"},
		{name: "too new", version: "2.0", constraint: ">= 1.0, < 2.0", wantErr: true},
		{name: "empty remote version passes", version: "", constraint: ">= 1.0"},
		{name: "empty constraint passes", version: "9.9", constraint: ""},
		{name: "garbage version", version: "not-a-version", constraint: ">= 1.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := charm.EndpointSnapshot{Endpoint: "database", Version: tt.version}
			err := CheckVersion(snap, tt.constraint)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckVersion() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
