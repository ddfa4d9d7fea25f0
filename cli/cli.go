package cli

import (
	"github.com/spf13/cobra"
	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/registry"
)

var (
	configFile string
	busURL     string
	unitName   string
	queueSize  int
	verbose    bool
	statePath  string
	writeFiles bool
)

// Setup is what an embedding charm binary hands to the CLI: the charm
// descriptor, its capability handlers and the relation interfaces it
// speaks.
type Setup struct {
	Charm      *charm.Charm
	Handlers   []charm.Handler
	Interfaces *registry.Collection
}

// RegisterCommands attaches all charmd commands to the root command.
func RegisterCommands(root *cobra.Command, setup Setup) {
	runCmd := newRunCmd(setup)
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to agent config file")
	runCmd.Flags().StringVarP(&busURL, "bus", "b", "nats://localhost:4222", "bus connection string")
	runCmd.Flags().StringVarP(&unitName, "unit", "u", "", "unit name, e.g. keystone/0")
	runCmd.Flags().IntVarP(&queueSize, "queue-size", "q", 64, "event queue capacity")
	root.AddCommand(runCmd)

	root.AddCommand(newInfoCmd(setup))

	renderCmd := newRenderCmd(setup)
	renderCmd.Flags().StringVarP(&statePath, "state", "s", "", "path to a state snapshot file")
	renderCmd.Flags().BoolVarP(&writeFiles, "write", "w", false, "write rendered files to disk")
	renderCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "dump the render context")
	root.AddCommand(renderCmd)

	actionCmd := newActionCmd(setup)
	actionCmd.Flags().StringVarP(&busURL, "bus", "b", "nats://localhost:4222", "bus connection string")
	actionCmd.Flags().StringVarP(&unitName, "unit", "u", "", "unit name, e.g. keystone/0")
	root.AddCommand(actionCmd)
}
