package config

import (
	"log/slog"
	"time"

	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	flagTypingTimeout = "typing-timeout"
	flagPingInterval  = "ping-interval"
)

type Replica struct {
	typingTimeout time.Duration
	pingInterval  time.Duration
}

func (x *Replica) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        flagTypingTimeout,
			Usage:       "How long a typing indicator lives without a refresh",
			Category:    "Replica",
			Value:       5 * time.Second,
			Destination: &x.typingTimeout,
			Sources:     cli.EnvVars("SLACKKIT_TYPING_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        flagPingInterval,
			Usage:       "Interval between keepalive pings (0 disables)",
			Category:    "Replica",
			Value:       30 * time.Second,
			Destination: &x.pingInterval,
			Sources:     cli.EnvVars("SLACKKIT_PING_INTERVAL"),
		},
	}
}

func (x Replica) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("typing-timeout", x.typingTimeout),
		slog.Duration("ping-interval", x.pingInterval),
	)
}

// Apply fills settings that were not given as flags from the config file
func (x *Replica) Apply(c *cli.Command, fc *FileConfig) {
	if v := fc.Replica.TypingTimeout; v != nil && !c.IsSet(flagTypingTimeout) {
		x.typingTimeout = time.Duration(*v)
	}
	if v := fc.Replica.PingInterval; v != nil && !c.IsSet(flagPingInterval) {
		x.pingInterval = time.Duration(*v)
	}
}

// Configure returns the connection options for the replica settings
func (x *Replica) Configure() ([]usecase.ConnectionOption, error) {
	if x.typingTimeout <= 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "typing timeout must be positive",
			goerr.V(FlagKey, flagTypingTimeout), goerr.V("value", x.typingTimeout))
	}
	if x.pingInterval < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "ping interval must not be negative",
			goerr.V(FlagKey, flagPingInterval), goerr.V("value", x.pingInterval))
	}

	return []usecase.ConnectionOption{
		usecase.WithTypingTimeout(x.typingTimeout),
		usecase.WithPingInterval(x.pingInterval),
	}, nil
}
