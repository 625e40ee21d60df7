package worker

import (
	"context"
	"sync"
	"time"

	"github.com/0xpablo/slackkit/pkg/utils/clock"
	"github.com/0xpablo/slackkit/pkg/utils/errutil"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
)

// KeepAlive periodically sends a ping while a session is up
type KeepAlive struct {
	ping     func(ctx context.Context) error
	interval time.Duration
	clock    clock.Clock
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

type KeepAliveOption func(*KeepAlive)

func WithKeepAliveClock(c clock.Clock) KeepAliveOption {
	return func(w *KeepAlive) {
		w.clock = c
	}
}

func NewKeepAlive(ping func(ctx context.Context) error, interval time.Duration, opts ...KeepAliveOption) *KeepAlive {
	w := &KeepAlive{
		ping:     ping,
		interval: interval,
		clock:    clock.Real{},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the ping loop. A non-positive interval disables it. The
// ticker is armed before Start returns.
func (w *KeepAlive) Start(ctx context.Context) {
	if w.interval <= 0 {
		close(w.doneCh)
		return
	}
	logging.From(ctx).Debug("keep-alive starting", "interval", w.interval.String())
	go w.run(ctx, w.clock.NewTicker(w.interval))
}

// Stop signals the loop to exit and waits for it. Safe to call more than once.
func (w *KeepAlive) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *KeepAlive) run(ctx context.Context, ticker clock.Ticker) {
	defer close(w.doneCh)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			if err := w.ping(ctx); err != nil {
				_ = errutil.Handle(ctx, err, "keep-alive ping failed")
			}
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
