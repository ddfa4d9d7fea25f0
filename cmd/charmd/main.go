package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tiny-systems/charmd/charm"
	"github.com/tiny-systems/charmd/cli"
	"github.com/tiny-systems/charmd/handlers"
	"github.com/tiny-systems/charmd/registry"
)

// version is set by the build
var version = "dev"

const apiConfigTemplate = `[DEFAULT]
debug = {{ .Options.debug }}
transport_url = {{ .Amqp.TransportURL }}
os_region_name = {{ .Options.region }}

[database]
connection = {{ .Database.ConnectionURL }}

[keystone_authtoken]
auth_url = {{ .IdentityService.AuthURL }}
username = {{ .IdentityService.User }}
password = {{ .IdentityService.Password }}
project_name = {{ .IdentityService.Project }}
user_domain_name = {{ .IdentityService.UserDomain }}
project_domain_name = {{ .IdentityService.ProjectDomain }}
`

func main() {
	peers := handlers.NewPeers("peers")

	c := &charm.Charm{
		Name:    "glance-api",
		Summary: "OpenStack image service operator",
		Version: version,
		Service: "glance-api",
		Options: []charm.Option{
			{Name: "debug", Type: charm.BoolOption, Default: false,
				Description: "enable debug logging in the managed service"},
			{Name: "region", Type: charm.StringOption, Default: "RegionOne",
				Description: "OpenStack region this service registers in"},
			{Name: "workers", Type: charm.IntOption, Default: 4,
				Description: "number of API worker processes"},
		},
		Templates: []charm.Template{
			{Path: "/etc/glance/glance-api.conf", Source: apiConfigTemplate, Mode: 0o640},
		},
		Actions: []charm.Action{
			{
				Name:        "get-admin-password",
				Description: "show the shared admin password generated by the leader",
				LeaderOnly:  true,
				Run: func(ctx context.Context, st charm.State, params map[string]interface{}) (map[string]string, error) {
					pw := st.Relation(peers.Endpoint()).App[handlers.AdminPasswordKey]
					if pw == "" {
						return nil, errors.New("admin password is not generated yet")
					}
					return map[string]string{"password": pw}, nil
				},
			},
		},
	}

	handlerList := []charm.Handler{
		handlers.NewDatabase("database", true),
		handlers.NewAMQP("amqp", true),
		handlers.NewIdentity("identity-service", true),
		handlers.NewIngress("ingress", false, c.Service, 9292),
		peers,
	}

	interfaces := registry.New()
	interfaces.Register(registry.Interface{
		Name: "mysql_client", Version: "1.0", Data: handlers.DatabaseData{},
		Precedence: "app bag over unit bags, lexical unit order",
	})
	interfaces.Register(registry.Interface{
		Name: "rabbitmq", Version: "1.0", Data: handlers.AMQPData{},
		Precedence: "app bag over unit bags, lexical unit order",
	})
	interfaces.Register(registry.Interface{
		Name: "keystone", Version: "1.0", Data: handlers.IdentityData{},
		Precedence: "app bag over unit bags, lexical unit order",
	})
	interfaces.Register(registry.Interface{
		Name: "ingress", Version: "1.0", Data: handlers.IngressData{},
		Precedence: "app bag over unit bags, lexical unit order",
	})

	root := &cobra.Command{
		Use:   "charmd",
		Short: "unit agent for the " + c.Name + " charm",
	}
	cli.RegisterCommands(root, cli.Setup{
		Charm:      c,
		Handlers:   handlerList,
		Interfaces: interfaces,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("unable to run")
	}
}
