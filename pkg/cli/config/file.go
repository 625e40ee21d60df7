package config

import (
	"bytes"
	"errors"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Duration decodes TOML strings such as "5s" or "1m30s"
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid duration", goerr.V("value", string(text)))
	}
	*d = Duration(v)
	return nil
}

// FileConfig is the layout of the --config TOML file. Every key is optional;
// values only apply to flags that were not given on the command line or
// through the environment.
//
//	[replica]
//	typing_timeout = "5s"
//	ping_interval = "30s"
//
//	[reconnect]
//	max_attempts = 5
//	backoff = "2s"
//
//	[server]
//	addr = "127.0.0.1:8080"
type FileConfig struct {
	Replica struct {
		TypingTimeout *Duration `toml:"typing_timeout"`
		PingInterval  *Duration `toml:"ping_interval"`
	} `toml:"replica"`
	Reconnect struct {
		MaxAttempts *int      `toml:"max_attempts"`
		Backoff     *Duration `toml:"backoff"`
	} `toml:"reconnect"`
	Server struct {
		Addr *string `toml:"addr"`
	} `toml:"server"`
}

type File struct {
	path string
}

func (x *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a TOML file with default settings",
			Destination: &x.path,
			Sources:     cli.EnvVars("SLACKKIT_CONFIG"),
		},
	}
}

// Load reads the config file. Without --config it returns an empty
// FileConfig.
func (x *File) Load() (*FileConfig, error) {
	var fc FileConfig
	if x.path == "" {
		return &fc, nil
	}

	data, err := os.ReadFile(x.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, x.path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, x.path))
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse config file", goerr.V(ConfigPathKey, x.path))
	}

	return &fc, nil
}
