package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

const flagAddr = "addr"

type Server struct {
	addr          string
	signingSecret string
}

func (x *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        flagAddr,
			Usage:       "Listen address of the HTTP server (empty disables it)",
			Category:    "Server",
			Destination: &x.addr,
			Sources:     cli.EnvVars("SLACKKIT_ADDR"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack signing secret (enables the webhook endpoints)",
			Category:    "Server",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("SLACKKIT_SLACK_SIGNING_SECRET"),
		},
	}
}

func (x Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", x.addr),
		slog.Int("signing-secret.len", len(x.signingSecret)),
	)
}

// Apply fills settings that were not given as flags from the config file
func (x *Server) Apply(c *cli.Command, fc *FileConfig) {
	if v := fc.Server.Addr; v != nil && !c.IsSet(flagAddr) {
		x.addr = *v
	}
}

func (x *Server) Addr() string          { return x.addr }
func (x *Server) SigningSecret() string { return x.signingSecret }
