package render

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/tiny-systems/charmd/charm"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		templates []charm.Template
		ctx       map[string]interface{}
		wantErr   bool
		want      map[string]string
	}{
		{
			name: "simple substitution",
			templates: []charm.Template{
				{Path: "/etc/app/app.conf", Source: "debug = {{ .Options.debug }}\n"},
			},
			ctx:  map[string]interface{}{"Options": map[string]interface{}{"debug": true}},
			want: map[string]string{"/etc/app/app.conf": "debug = true\n"},
		},
		{
			name: "missing key fails the render",
			templates: []charm.Template{
				{Path: "/etc/app/app.conf", Source: "{{ .Options.missing }}"},
			},
			ctx:     map[string]interface{}{"Options": map[string]interface{}{}},
			wantErr: true,
		},
		{
			name: "output sorted by path",
			templates: []charm.Template{
				{Path: "/etc/b.conf", Source: "b"},
				{Path: "/etc/a.conf", Source: "a"},
			},
			ctx:  map[string]interface{}{},
			want: map[string]string{"/etc/a.conf": "a", "/etc/b.conf": "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(afero.NewMemMapFs())
			files, err := r.Render(tt.templates, tt.ctx)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Render() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Render() unexpected error: %v", err)
			}
			if len(files) != len(tt.want) {
				t.Fatalf("Render() produced %d files, want %d", len(files), len(tt.want))
			}
			for i := 1; i < len(files); i++ {
				if files[i-1].Path > files[i].Path {
					t.Errorf("Render() output not sorted: %s before %s", files[i-1].Path, files[i].Path)
				}
			}
			for _, f := range files {
				if string(f.Data) != tt.want[f.Path] {
					t.Errorf("Render() %s = %q, want %q", f.Path, f.Data, tt.want[f.Path])
				}
			}
		})
	}
}

func TestApplyWritesOnlyChanges(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := New(fs)
	files := []File{
		{Path: "/etc/app/app.conf", Data: []byte("v1"), Mode: 0o640},
	}

	changed, err := r.Apply(files)
	if err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}
	if len(changed) != 1 {
		t.Fatalf("Apply() changed = %v, want one path", changed)
	}

	// identical content applies as a no-op
	changed, err = r.Apply(files)
	if err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("Apply() changed = %v, want none for identical content", changed)
	}

	files[0].Data = []byte("v2")
	changed, err = r.Apply(files)
	if err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}
	if len(changed) != 1 {
		t.Errorf("Apply() changed = %v, want one path for new content", changed)
	}
	data, _ := afero.ReadFile(fs, "/etc/app/app.conf")
	if string(data) != "v2" {
		t.Errorf("Apply() file content = %q, want v2", data)
	}
}

func TestRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := New(fs)
	if _, err := r.Apply([]File{{Path: "/etc/app/app.conf", Data: []byte("x"), Mode: 0o640}}); err != nil {
		t.Fatalf("Apply() unexpected error: %v", err)
	}

	if err := r.Remove([]string{"/etc/app/app.conf", "/etc/app/absent.conf"}); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if r.Exists("/etc/app/app.conf") {
		t.Error("Remove() left the file behind")
	}
}

func TestDefaultMode(t *testing.T) {
	r := New(afero.NewMemMapFs())
	files, err := r.Render([]charm.Template{{Path: "/etc/a.conf", Source: "a"}}, map[string]interface{}{})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if files[0].Mode != 0o640 {
		t.Errorf("Render() mode = %o, want 0640", files[0].Mode)
	}
}
