package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tiny-systems/charmd/charm"
)

// File is one rendered configuration artifact ready to be applied.
type File struct {
	Path string
	Data []byte
	Mode os.FileMode
}

// Renderer materializes charm templates into workload configuration files.
// Rendering is deterministic: identical contexts produce byte identical
// output, missing context keys fail the render instead of producing an
// empty value.
type Renderer struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Renderer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Renderer{fs: fs}
}

// Render executes every template against the namespaced contexts. No file
// is written here, a pass renders everything first so a template error
// never leaves a partially updated config behind.
func (r *Renderer) Render(templates []charm.Template, ctx map[string]interface{}) ([]File, error) {
	out := make([]File, 0, len(templates))
	for _, t := range templates {
		tmpl, err := template.New(filepath.Base(t.Path)).
			Option("missingkey=error").
			Parse(t.Source)
		if err != nil {
			return nil, errors.Wrapf(err, "parse template for %s", t.Path)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, ctx); err != nil {
			return nil, errors.Wrapf(err, "render %s", t.Path)
		}
		mode := os.FileMode(t.Mode)
		if mode == 0 {
			mode = 0o640
		}
		out = append(out, File{Path: t.Path, Data: buf.Bytes(), Mode: mode})
	}
	// stable apply order regardless of template declaration order
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Apply writes rendered files that differ from what is on disk and returns
// the paths that changed. Unchanged files are left untouched so mtimes and
// watchers stay quiet, re-running with identical inputs is a no-op.
func (r *Renderer) Apply(files []File) ([]string, error) {
	var changed []string
	for _, f := range files {
		same, err := r.unchanged(f)
		if err != nil {
			return changed, err
		}
		if same {
			continue
		}
		if err := r.fs.MkdirAll(filepath.Dir(f.Path), 0o750); err != nil {
			return changed, errors.Wrapf(err, "mkdir for %s", f.Path)
		}
		if err := afero.WriteFile(r.fs, f.Path, f.Data, f.Mode); err != nil {
			return changed, errors.Wrapf(err, "write %s", f.Path)
		}
		changed = append(changed, f.Path)
	}
	return changed, nil
}

func (r *Renderer) unchanged(f File) (bool, error) {
	existing, err := afero.ReadFile(r.fs, f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "read %s", f.Path)
	}
	return hash(existing) == hash(f.Data), nil
}

// Remove deletes rendered files, used when a mandatory relation goes away
// so no stale config referencing the departed remote survives.
func (r *Renderer) Remove(paths []string) error {
	for _, p := range paths {
		if err := r.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove %s", p)
		}
	}
	return nil
}

// Exists reports whether a rendered file is currently present.
func (r *Renderer) Exists(path string) bool {
	ok, _ := afero.Exists(r.fs, path)
	return ok
}

func hash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
