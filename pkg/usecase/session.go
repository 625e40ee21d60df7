package usecase

import (
	"context"
	"time"

	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	rtmsvc "github.com/0xpablo/slackkit/pkg/service/rtm"
	"github.com/0xpablo/slackkit/pkg/service/worker"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/google/uuid"
)

// Session is everything that lives for exactly one connection attempt: the
// replica, the pending table, the typing timers and the decoder. It is built
// on Connect and torn down as a unit.
type Session struct {
	id         string
	generation uint64
	startedAt  time.Time
	ctx        context.Context

	engine    *Engine
	typing    *worker.TypingExpiry
	decoder   *rtmsvc.Decoder
	keepAlive *worker.KeepAlive

	closed       bool
	reconnectURL string
	lastPong     time.Time
}

func (c *Connection) newSession(ctx context.Context, generation uint64, snapshot *model.Snapshot) *Session {
	id := uuid.Must(uuid.NewV7()).String()
	logger := logging.From(ctx).With("session_id", id, "generation", generation)

	s := &Session{
		id:         id,
		generation: generation,
		startedAt:  c.clock.Now(),
		ctx:        logging.With(context.WithoutCancel(ctx), logger),
		decoder:    rtmsvc.NewDecoder(rtmsvc.WithDecoderClock(c.clock)),
	}
	s.typing = worker.NewTypingExpiry(func(key worker.TypingKey, token uint64) {
		c.expireTyping(generation, key, token)
	}, worker.WithClock(c.clock), worker.WithTypingTimeout(c.typingTimeout))
	s.engine = NewEngine(memory.New(snapshot), s.typing, NewPending())
	return s
}

// SessionInfo describes the current or most recent session
type SessionInfo struct {
	ID           string    `json:"id"`
	Generation   uint64    `json:"generation"`
	State        string    `json:"state"`
	StartedAt    time.Time `json:"started_at"`
	ReconnectURL string    `json:"reconnect_url,omitempty"`
	LastPong     time.Time `json:"last_pong,omitempty"`
	Pending      int       `json:"pending"`
	TypingTimers int       `json:"typing_timers"`
}
