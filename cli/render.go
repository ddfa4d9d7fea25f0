package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tiny-systems/charmd/api/v1alpha1"
	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/internal/metrics"
	"github.com/tiny-systems/charmd/internal/reconciler"
	"github.com/tiny-systems/charmd/internal/relation"
	"github.com/tiny-systems/charmd/internal/render"
	"github.com/tiny-systems/charmd/internal/status"
	"github.com/tiny-systems/charmd/internal/workload"
)

// stateSnapshot is the file format the render command consumes, a frozen
// view of what the agent would have received from the bus.
type stateSnapshot struct {
	Unit      string                               `json:"unit"`
	Leader    bool                                 `json:"leader"`
	Config    map[string]interface{}               `json:"config,omitempty"`
	Relations map[string]*v1alpha1.RelationPayload `json:"relations,omitempty"`
}

func newRenderCmd(setup Setup) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "render configuration once from a state snapshot, for debugging",
		RunE: func(cmd *cobra.Command, args []string) error {
			if statePath == "" {
				return errors.New("--state is required")
			}
			raw, err := os.ReadFile(statePath)
			if err != nil {
				return err
			}
			var snap stateSnapshot
			if err := json.Unmarshal(raw, &snap); err != nil {
				return errors.Wrap(err, "parse state snapshot")
			}

			st, err := buildState(setup, snap)
			if err != nil {
				return err
			}

			var fs afero.Fs = afero.NewMemMapFs()
			if writeFiles {
				fs = afero.NewOsFs()
			}
			l := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			rec := reconciler.New(l, setup.Charm, setup.Handlers,
				render.New(fs), workload.NewFake(), status.NewPool(), metrics.NewRegistry())

			rctx, err := rec.Context(st)
			if err != nil {
				if s, ok := status.FromError(err); ok {
					return errors.Errorf("cannot render: %s", s)
				}
				return err
			}
			if verbose {
				spew.Fdump(os.Stderr, rctx)
			}

			files, err := render.New(fs).Render(setup.Charm.Templates, rctx)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Printf("--- %s (%s)\n%s\n", f.Path, f.Mode, f.Data)
			}
			if writeFiles {
				changed, err := render.New(fs).Apply(files)
				if err != nil {
					return err
				}
				l.Info().Strs("changed", changed).Msg("files written")
			}
			return nil
		},
	}
}

func buildState(setup Setup, snap stateSnapshot) (charm.State, error) {
	store := relation.NewStore()
	for _, h := range setup.Handlers {
		store.Declare(h.Endpoint(), h.Interface())
	}
	for endpoint, payload := range snap.Relations {
		if payload == nil {
			continue
		}
		payload.Endpoint = endpoint
		if err := store.Update(payload); err != nil {
			return charm.State{}, err
		}
	}
	values, err := charm.ValidateConfig(setup.Charm.Options, snap.Config)
	if err != nil {
		return charm.State{}, err
	}
	unit := snap.Unit
	if unit == "" {
		unit = "local/0"
	}
	return charm.State{
		Unit:      unit,
		App:       strings.SplitN(unit, "/", 2)[0],
		Leader:    snap.Leader,
		Config:    values,
		Relations: store.Snapshot(),
		Workload:  string(v1alpha1.WorkloadUnknown),
	}, nil
}
