package worker

import (
	"sync"
	"time"

	"github.com/0xpablo/slackkit/pkg/utils/clock"
)

// DefaultTypingTimeout is how long a user stays in a channel's typing set
// after their last typing event
const DefaultTypingTimeout = 5 * time.Second

// TypingKey identifies one typing indicator
type TypingKey struct {
	Channel string
	User    string
}

// ExpirePoster receives fired timers. Implementations must hand the expiry
// to the replica's serialization point and call TypingExpiry.Expire from
// there; the timer goroutine itself never touches the replica.
type ExpirePoster func(key TypingKey, token uint64)

type typingTimer struct {
	token uint64
	timer clock.Timer
}

// TypingExpiry keeps at most one live timer per (channel, user). Scheduling
// again for the same key supersedes the previous timer.
type TypingExpiry struct {
	clock   clock.Clock
	timeout time.Duration
	post    ExpirePoster

	mu      sync.Mutex
	timers  map[TypingKey]typingTimer
	seq     uint64
	stopped bool
}

type TypingOption func(*TypingExpiry)

func WithClock(c clock.Clock) TypingOption {
	return func(t *TypingExpiry) {
		t.clock = c
	}
}

func WithTypingTimeout(d time.Duration) TypingOption {
	return func(t *TypingExpiry) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func NewTypingExpiry(post ExpirePoster, opts ...TypingOption) *TypingExpiry {
	t := &TypingExpiry{
		clock:   clock.Real{},
		timeout: DefaultTypingTimeout,
		post:    post,
		timers:  make(map[TypingKey]typingTimer),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schedule (re)arms the timer for key and returns the token the expiry will
// carry. It returns 0 once the scheduler has been stopped.
func (t *TypingExpiry) Schedule(key TypingKey) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return 0
	}
	if prev, ok := t.timers[key]; ok {
		prev.timer.Stop()
	}

	t.seq++
	token := t.seq
	timer := t.clock.AfterFunc(t.timeout, func() {
		t.post(key, token)
	})
	t.timers[key] = typingTimer{token: token, timer: timer}
	return token
}

// Expire consumes a fired timer. It reports true only when token is still
// the live timer for key; a superseded or cancelled timer reports false and
// the caller must leave the replica alone.
func (t *TypingExpiry) Expire(key TypingKey, token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.timers[key]
	if !ok || cur.token != token {
		return false
	}
	delete(t.timers, key)
	return true
}

// Cancel drops the timer for key, if any
func (t *TypingExpiry) Cancel(key TypingKey) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.timers[key]; ok {
		cur.timer.Stop()
		delete(t.timers, key)
	}
}

// CancelChannel drops every timer of channel and returns how many were live
func (t *TypingExpiry) CancelChannel(channel string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for key, cur := range t.timers {
		if key.Channel != channel {
			continue
		}
		cur.timer.Stop()
		delete(t.timers, key)
		n++
	}
	return n
}

// Stop cancels every timer. Later Schedule calls are ignored.
func (t *TypingExpiry) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, cur := range t.timers {
		cur.timer.Stop()
		delete(t.timers, key)
	}
	t.stopped = true
}

// Pending returns the number of live timers
func (t *TypingExpiry) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
