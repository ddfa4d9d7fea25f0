package cli

import (
	"os"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tiny-systems/charmd/internal/agent"
	"github.com/tiny-systems/charmd/internal/tracker"
	"github.com/tiny-systems/charmd/internal/workload"
)

func newRunCmd(setup Setup) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the unit agent",
		Long:  `Connects to the bus, consumes lifecycle events and reconciles the workload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().
				Str("charm", setup.Charm.Name).Logger()

			v := viper.New()
			v.SetDefault("bus", busURL)
			v.SetDefault("unit", unitName)
			v.SetDefault("queueSize", queueSize)
			v.SetEnvPrefix("CHARMD")
			v.AutomaticEnv()
			if configFile != "" {
				v.SetConfigFile(configFile)
				if err := v.ReadInConfig(); err != nil {
					return err
				}
				l.Info().Str("file", v.ConfigFileUsed()).Msg("agent config loaded")
			}

			cfg := agent.Config{
				Unit:      v.GetString("unit"),
				BusURL:    v.GetString("bus"),
				QueueSize: v.GetInt("queueSize"),
			}

			nc, err := nats.Connect(cfg.BusURL, nats.Name(cfg.Unit))
			if err != nil {
				return err
			}
			defer nc.Close()

			sup := workload.NewSystemd(l, setup.Charm.Service)

			a, err := agent.New(l, cfg, setup.Charm, setup.Handlers, nc, sup,
				afero.NewOsFs(), logPasses(l))
			if err != nil {
				return err
			}

			l.Info().Str("unit", cfg.Unit).Str("bus", cfg.BusURL).Msg("starting")
			return a.Run(cmd.Context())
		},
	}
}

// logPasses records every processed event in the agent log.
func logPasses(l zerolog.Logger) tracker.Callback {
	return func(rec tracker.PassRecord) {
		ev := l.Info()
		if rec.Err != nil {
			ev = l.Error().Err(rec.Err)
		}
		ev.Str("event", string(rec.EventKind)).
			Str("status", rec.Status.String()).
			Str("workload", string(rec.Workload)).
			Strs("changed", rec.ChangedFiles).
			Bool("restarted", rec.Restarted).
			Dur("took", rec.Duration).
			Msg("event processed")
	}
}
