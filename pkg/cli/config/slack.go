package config

import (
	"log/slog"
	"strings"

	slacksvc "github.com/0xpablo/slackkit/pkg/service/slack"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	token      string
	apiURL     string
	members    bool
	userGroups bool
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-token",
			Usage:       "Slack token allowed to call rtm.connect",
			Category:    "Slack",
			Destination: &x.token,
			Sources:     cli.EnvVars("SLACKKIT_SLACK_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-api-url",
			Usage:       "Override the Slack Web API base URL",
			Category:    "Slack",
			Destination: &x.apiURL,
			Sources:     cli.EnvVars("SLACKKIT_SLACK_API_URL"),
		},
		&cli.BoolFlag{
			Name:        "slack-members",
			Usage:       "Fetch member lists of joined conversations during bootstrap",
			Category:    "Slack",
			Value:       true,
			Destination: &x.members,
			Sources:     cli.EnvVars("SLACKKIT_SLACK_MEMBERS"),
		},
		&cli.BoolFlag{
			Name:        "slack-user-groups",
			Usage:       "Fetch user groups during bootstrap",
			Category:    "Slack",
			Destination: &x.userGroups,
			Sources:     cli.EnvVars("SLACKKIT_SLACK_USER_GROUPS"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("token.len", len(x.token)),
		slog.String("api-url", x.apiURL),
		slog.Bool("members", x.members),
		slog.Bool("user-groups", x.userGroups),
	)
}

// Configure creates the Web API client used to bootstrap sessions
func (x *Slack) Configure() (*slacksvc.Client, error) {
	if x.token == "" {
		return nil, goerr.Wrap(ErrMissingToken, "slack token is not set", goerr.V(FlagKey, "slack-token"))
	}

	opts := []slacksvc.Option{
		slacksvc.WithMembers(x.members),
		slacksvc.WithUserGroups(x.userGroups),
	}
	if x.apiURL != "" {
		url := x.apiURL
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		opts = append(opts, slacksvc.WithAPIURL(url))
	}

	client, err := slacksvc.New(x.token, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create slack client")
	}
	return client, nil
}
