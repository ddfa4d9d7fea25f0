package charm

import "testing"

func TestCharmValidate(t *testing.T) {
	tests := []struct {
		name    string
		ch      Charm
		wantErr bool
	}{
		{
			name: "valid",
			ch: Charm{Name: "glance-api", Service: "glance-api",
				Templates: []Template{{Path: "/etc/glance/glance-api.conf"}}},
		},
		{
			name:    "missing name",
			ch:      Charm{Service: "glance-api"},
			wantErr: true,
		},
		{
			name:    "missing service",
			ch:      Charm{Name: "glance-api"},
			wantErr: true,
		},
		{
			name: "relative template path",
			ch: Charm{Name: "glance-api", Service: "glance-api",
				Templates: []Template{{Path: "etc/glance.conf"}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ch.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCharmLookups(t *testing.T) {
	ch := Charm{
		Name:    "glance-api",
		Service: "glance-api",
		Options: []Option{{Name: "debug", Type: BoolOption}},
		Actions: []Action{{Name: "get-admin-password"}},
	}

	if _, ok := ch.Action("get-admin-password"); !ok {
		t.Error("Action() did not find a declared action")
	}
	if _, ok := ch.Action("nope"); ok {
		t.Error("Action() found an undeclared action")
	}
	if o, ok := ch.Option("debug"); !ok || o.Type != BoolOption {
		t.Errorf("Option() = %+v, %v", o, ok)
	}
	if _, ok := ch.Option("nope"); ok {
		t.Error("Option() found an undeclared option")
	}
}
