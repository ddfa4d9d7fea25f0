package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tiny-systems/charmd/api/v1alpha1"
	"github.com/tiny-systems/charmd/internal/agent"
)

const actionTimeout = time.Second * 15

func newActionCmd(setup Setup) *cobra.Command {
	return &cobra.Command{
		Use:   "action <name> [key=value ...]",
		Short: "invoke an action on a running unit agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if unitName == "" {
				return errors.New("--unit is required")
			}
			name := args[0]
			if _, ok := setup.Charm.Action(name); !ok {
				return errors.Errorf("charm %s declares no action %q", setup.Charm.Name, name)
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			nc, err := nats.Connect(busURL, nats.Name(unitName+"-action"))
			if err != nil {
				return err
			}
			defer nc.Close()

			req := v1alpha1.ActionRequest{
				ID:     uuid.New().String(),
				Name:   name,
				Params: params,
			}
			data, err := json.Marshal(req)
			if err != nil {
				return err
			}

			app := strings.SplitN(unitName, "/", 2)[0]
			msg, err := nc.Request(agent.ActionSubject(app, unitName), data, actionTimeout)
			if err != nil {
				return errors.Wrap(err, "action request")
			}

			var resp v1alpha1.ActionResponse
			if err := json.Unmarshal(msg.Data, &resp); err != nil {
				return errors.Wrap(err, "decode action response")
			}
			if resp.Error != "" {
				return errors.Errorf("action failed: %s", resp.Error)
			}
			for _, k := range sortedKeys(resp.Result) {
				fmt.Printf("%s: %s\n", k, resp.Result[k])
			}
			return nil
		},
	}
}

// parseParams turns key=value arguments into a params map. Values that
// parse as JSON scalars keep their type, everything else stays a string.
func parseParams(args []string) (map[string]interface{}, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("invalid parameter %q, expected key=value", a)
		}
		var parsed interface{}
		if err := json.Unmarshal([]byte(v), &parsed); err == nil {
			switch parsed.(type) {
			case string, bool, float64:
				out[k] = parsed
				continue
			}
		}
		out[k] = v
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
