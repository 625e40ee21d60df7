package cli

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/0xpablo/slackkit/pkg/utils/errutil"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

var errGaveUp = errors.New("gave up reconnecting")

// supervisor keeps a Connection alive: it bootstraps and connects, waits for
// the session to end and starts a new one. Attempts are paced by limiter and
// it gives up after maxAttempts consecutive attempts that never reached
// Connected. With maxAttempts 0 the first lost session ends the loop.
type supervisor struct {
	conn        *usecase.Connection
	client      interfaces.SlackClient
	limiter     *rate.Limiter
	maxAttempts int

	established atomic.Bool
	lost        chan error
}

var _ interfaces.Observer = (*supervisor)(nil)

func newSupervisor(client interfaces.SlackClient, limiter *rate.Limiter, maxAttempts int) *supervisor {
	return &supervisor{
		client:      client,
		limiter:     limiter,
		maxAttempts: maxAttempts,
		lost:        make(chan error, 1),
	}
}

// attach must be called with the connection the supervisor was registered
// on as an observer
func (s *supervisor) attach(conn *usecase.Connection) { s.conn = conn }

func (s *supervisor) Connected(ctx context.Context) {
	s.established.Store(true)
	logging.From(ctx).Info("connected to slack")
}

func (s *supervisor) Disconnected(ctx context.Context, err error) {
	select {
	case s.lost <- err:
	default:
	}
}

func (s *supervisor) Changed(ctx context.Context, change model.Change) {
	logging.From(ctx).Debug("replica changed",
		"kind", change.Kind,
		"event", change.Event,
		"id", change.ID,
		"sub", change.Sub,
	)
}

func (s *supervisor) run(ctx context.Context) error {
	failures := 0
	for attempt := 1; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return s.shutdown()
		}

		cause := s.session(ctx, attempt)
		if ctx.Err() != nil {
			return s.shutdown()
		}

		if s.established.Load() {
			failures = 0
		} else {
			failures++
		}

		if s.maxAttempts == 0 || failures >= s.maxAttempts {
			return goerr.Wrap(errors.Join(errGaveUp, cause), "connection could not be kept alive",
				goerr.V("attempts", attempt),
				goerr.V("failures", failures),
			)
		}
		logging.From(ctx).Warn("session ended, reconnecting", "error", cause, "failures", failures)
	}
}

// session runs one bootstrap-connect cycle and blocks until it ends
func (s *supervisor) session(ctx context.Context, attempt int) error {
	s.established.Store(false)
	select {
	case <-s.lost:
	default:
	}

	boot, err := s.client.Bootstrap(ctx)
	if err != nil {
		return errutil.Handle(ctx, err, "failed to bootstrap session")
	}

	if attempt == 1 {
		err = s.conn.Connect(ctx, boot.URL, boot.Snapshot)
	} else {
		err = s.conn.Reconnect(ctx, boot.URL, boot.Snapshot)
	}
	if err != nil {
		return errutil.Handle(ctx, err, "failed to connect")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case cause := <-s.lost:
		return cause
	}
}

func (s *supervisor) shutdown() error {
	if err := s.conn.Disconnect(context.Background()); err != nil {
		return goerr.Wrap(err, "failed to disconnect")
	}
	return nil
}
