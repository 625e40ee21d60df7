package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

const (
	flagReconnectMaxAttempts = "reconnect-max-attempts"
	flagReconnectBackoff     = "reconnect-backoff"
)

type Reconnect struct {
	maxAttempts int
	backoff     time.Duration
}

func (x *Reconnect) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        flagReconnectMaxAttempts,
			Usage:       "Consecutive failed connection attempts before giving up (0 never reconnects)",
			Category:    "Reconnect",
			Value:       5,
			Destination: &x.maxAttempts,
			Sources:     cli.EnvVars("SLACKKIT_RECONNECT_MAX_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        flagReconnectBackoff,
			Usage:       "Minimum interval between connection attempts",
			Category:    "Reconnect",
			Value:       2 * time.Second,
			Destination: &x.backoff,
			Sources:     cli.EnvVars("SLACKKIT_RECONNECT_BACKOFF"),
		},
	}
}

func (x Reconnect) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max-attempts", x.maxAttempts),
		slog.Duration("backoff", x.backoff),
	)
}

// Apply fills settings that were not given as flags from the config file
func (x *Reconnect) Apply(c *cli.Command, fc *FileConfig) {
	if v := fc.Reconnect.MaxAttempts; v != nil && !c.IsSet(flagReconnectMaxAttempts) {
		x.maxAttempts = *v
	}
	if v := fc.Reconnect.Backoff; v != nil && !c.IsSet(flagReconnectBackoff) {
		x.backoff = time.Duration(*v)
	}
}

func (x *Reconnect) MaxAttempts() int { return x.maxAttempts }

// Limiter paces connection attempts. The first attempt is never delayed.
func (x *Reconnect) Limiter() (*rate.Limiter, error) {
	if x.maxAttempts < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "max attempts must not be negative",
			goerr.V(FlagKey, flagReconnectMaxAttempts), goerr.V("value", x.maxAttempts))
	}
	if x.backoff <= 0 {
		return rate.NewLimiter(rate.Inf, 1), nil
	}
	return rate.NewLimiter(rate.Every(x.backoff), 1), nil
}
