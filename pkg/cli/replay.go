package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/0xpablo/slackkit/pkg/cli/config"
	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/service/rtm"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/0xpablo/slackkit/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type replayReport struct {
	Session usecase.SessionInfo `json:"session"`
	Replica memory.Summary      `json:"replica"`
	Changes map[string]int      `json:"changes"`
}

// changeCounter tallies changes by event and remembers why the session ended
type changeCounter struct {
	mu      sync.Mutex
	changes map[string]int
	cause   error
}

var _ interfaces.Observer = (*changeCounter)(nil)

func (x *changeCounter) Connected(ctx context.Context) {}

func (x *changeCounter) Disconnected(ctx context.Context, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.cause = err
}

func (x *changeCounter) Changed(ctx context.Context, change model.Change) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.changes[change.Event]++
}

func cmdReplay() *cli.Command {
	var (
		snapshotPath string
		framesPath   string
		outputPath   string
		dumpPath     string
		replicaCfg   config.Replica
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "snapshot",
			Aliases:     []string{"s"},
			Usage:       "JSON snapshot the replica is seeded with",
			Required:    true,
			Destination: &snapshotPath,
			Sources:     cli.EnvVars("SLACKKIT_REPLAY_SNAPSHOT"),
		},
		&cli.StringFlag{
			Name:        "frames",
			Aliases:     []string{"f"},
			Usage:       "Recorded RTM frames, one JSON object per line ('-' reads stdin)",
			Value:       "-",
			Destination: &framesPath,
			Sources:     cli.EnvVars("SLACKKIT_REPLAY_FRAMES"),
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Where to write the replay report ('-' writes stdout)",
			Value:       "-",
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "dump",
			Usage:       "Write the resulting replica as a snapshot JSON file",
			Destination: &dumpPath,
		},
	}
	flags = append(flags, replicaCfg.Flags()...)

	return &cli.Command{
		Name:  "replay",
		Usage: "Apply recorded RTM frames to a snapshot offline and report the result",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			snapshot, err := readSnapshot(snapshotPath)
			if err != nil {
				return err
			}

			frames, closeFrames, err := openInput(ctx, framesPath)
			if err != nil {
				return err
			}
			defer closeFrames()

			connOpts, err := replicaCfg.Configure()
			if err != nil {
				return err
			}

			counter := &changeCounter{changes: map[string]int{}}
			transport := rtm.NewReplay(frames)
			conn := usecase.NewConnection(transport,
				append(connOpts,
					usecase.WithPingInterval(0),
					usecase.WithObserver(counter),
				)...,
			)

			if err := conn.Connect(ctx, "replay://"+framesPath, snapshot); err != nil {
				return err
			}

			select {
			case <-transport.Done():
			case <-ctx.Done():
				return ctx.Err()
			}

			counter.mu.Lock()
			cause := counter.cause
			changes := counter.changes
			counter.mu.Unlock()
			if cause != nil {
				return goerr.Wrap(cause, "replay stopped", goerr.V("frames", framesPath))
			}

			var report replayReport
			var dump *model.Snapshot
			report.Session, _ = conn.Session()
			report.Changes = changes
			conn.View(func(store *memory.Store) {
				report.Replica = store.Summary()
				if dumpPath != "" {
					dump = store.Snapshot()
				}
			})

			if dump != nil {
				if err := writeJSON(ctx, dumpPath, dump); err != nil {
					return err
				}
			}

			logging.From(ctx).Info("Replay finished", "replica", report.Replica)
			return writeJSON(ctx, outputPath, report)
		},
	}
}

func readSnapshot(path string) (*model.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read snapshot", goerr.V("path", path))
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, goerr.Wrap(err, "failed to parse snapshot", goerr.V("path", path))
	}
	if snapshot.Team == nil {
		return nil, goerr.New("snapshot has no team", goerr.V("path", path))
	}
	return &snapshot, nil
}

func openInput(ctx context.Context, path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to open frames", goerr.V("path", path))
	}
	return f, func() { safe.Close(ctx, f) }, nil
}

func writeJSON(ctx context.Context, path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return goerr.Wrap(err, "failed to create output file", goerr.V("path", path))
		}
		defer safe.Close(ctx, f)
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to write JSON", goerr.V("path", path))
	}
	return nil
}
