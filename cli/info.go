package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tiny-systems/charmd/pkg/schema"
)

func newInfoCmd(setup Setup) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "describe the charm: options, actions and relation interfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := setup.Charm
			fmt.Printf("%s %s - %s\n", c.Name, c.Version, c.Summary)
			fmt.Printf("service: %s\n\n", c.Service)

			fmt.Println("options:")
			for _, o := range c.Options {
				fmt.Printf("  %s (%s) default=%v\n    %s\n", o.Name, o.Type, o.Default, o.Description)
			}

			fmt.Println("\nactions:")
			for _, a := range c.Actions {
				fmt.Printf("  %s - %s\n", a.Name, a.Description)
				if a.Params == nil {
					continue
				}
				sh, err := schema.CreateSchema(a.Params)
				if err != nil {
					log.Error().Err(err).Str("action", a.Name).Msg("schema error")
					continue
				}
				data, _ := json.MarshalIndent(sh, "    ", "  ")
				fmt.Printf("    params: %s\n", data)
			}

			fmt.Println("\nrelation interfaces:")
			for _, i := range setup.Interfaces.All() {
				fmt.Printf("  %s %s\n    precedence: %s\n", i.Name, i.Version, i.Precedence)
				if i.Data == nil {
					continue
				}
				sh, err := schema.CreateSchema(i.Data)
				if err != nil {
					log.Error().Err(err).Str("interface", i.Name).Msg("schema error")
					continue
				}
				data, _ := json.MarshalIndent(sh, "    ", "  ")
				fmt.Printf("    schema: %s\n", data)
			}
			return nil
		},
	}
}
