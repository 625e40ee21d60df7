package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/0xpablo/slackkit/pkg/domain/types"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/service/worker"
	"github.com/0xpablo/slackkit/pkg/utils/clock"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Connection drives the session lifecycle
//
//	Disconnected -> Connecting -> Connected -> (Disconnected | Reconnecting) -> Connecting ...
//
// and is the single serialization point for the replica: inbound frames,
// typing expiry, pending-table updates and webhook ingestion all take the
// write lock, readers go through View. Observers are notified after the
// lock is released.
//
// Reconnect policy (backoff, attempt cap) belongs to the caller; the
// connection never retries on its own.
type Connection struct {
	transport     interfaces.Transport
	observers     []interfaces.Observer
	clock         clock.Clock
	metrics       Metrics
	typingTimeout time.Duration
	pingInterval  time.Duration

	mu         sync.RWMutex
	state      types.ConnState
	generation uint64
	session    *Session
	store      *memory.Store

	nextID atomic.Int64
}

type ConnectionOption func(*Connection)

func WithObserver(o interfaces.Observer) ConnectionOption {
	return func(c *Connection) {
		c.observers = append(c.observers, o)
	}
}

func WithClock(clk clock.Clock) ConnectionOption {
	return func(c *Connection) {
		c.clock = clk
	}
}

func WithMetrics(m Metrics) ConnectionOption {
	return func(c *Connection) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithTypingTimeout(d time.Duration) ConnectionOption {
	return func(c *Connection) {
		c.typingTimeout = d
	}
}

// WithPingInterval enables keep-alive pings while connected. Zero disables.
func WithPingInterval(d time.Duration) ConnectionOption {
	return func(c *Connection) {
		c.pingInterval = d
	}
}

func NewConnection(transport interfaces.Transport, opts ...ConnectionOption) *Connection {
	c := &Connection{
		transport:     transport,
		clock:         clock.Real{},
		metrics:       nopMetrics{},
		typingTimeout: worker.DefaultTypingTimeout,
		state:         types.ConnStateDisconnected,
		store:         memory.New(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state
func (c *Connection) State() types.ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// View runs fn with the current replica under the read lock. After a
// disconnect the last replica stays readable until the next Connect.
func (c *Connection) View(fn func(store *memory.Store)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.store)
}

// Session describes the current or most recent session. ok is false before
// the first Connect.
func (c *Connection) Session() (SessionInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.session
	if s == nil {
		return SessionInfo{State: c.state.String()}, false
	}
	return SessionInfo{
		ID:           s.id,
		Generation:   s.generation,
		State:        c.state.String(),
		StartedAt:    s.startedAt,
		ReconnectURL: s.reconnectURL,
		LastPong:     s.lastPong,
		Pending:      s.engine.Pending().Len(),
		TypingTimers: s.typing.Pending(),
	}, true
}

// ReconnectURL returns the last URL pushed by the server for resuming, if any
func (c *Connection) ReconnectURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.reconnectURL
}

// Connect seeds a fresh replica from snapshot and opens the transport. The
// connection takes ownership of snapshot's entities.
func (c *Connection) Connect(ctx context.Context, endpoint string, snapshot *model.Snapshot) error {
	c.mu.Lock()
	if !c.state.CanConnect() {
		state := c.state
		c.mu.Unlock()
		return goerr.Wrap(ErrInvalidState, "connect is not allowed", goerr.V(StateKey, state.String()))
	}
	return c.connectLocked(ctx, endpoint, snapshot)
}

// connectLocked is entered with the write lock held and releases it
func (c *Connection) connectLocked(ctx context.Context, endpoint string, snapshot *model.Snapshot) error {
	c.generation++
	gen := c.generation
	sess := c.newSession(ctx, gen, snapshot)
	c.session = sess
	c.store = sess.engine.Store()
	c.setStateLocked(types.ConnStateConnecting)
	c.mu.Unlock()

	logging.From(sess.ctx).Info("connecting", "url", redactURL(endpoint))

	if err := c.transport.Connect(sess.ctx, endpoint, &handler{c: c, generation: gen}); err != nil {
		c.mu.Lock()
		stop := c.teardownLocked(gen)
		c.mu.Unlock()
		stop()

		err = goerr.Wrap(errors.Join(ErrTransport, err), "failed to open transport")
		c.notifyDisconnected(sess.ctx, err)
		return err
	}
	return nil
}

// Reconnect moves a Connected or Disconnected connection through
// Reconnecting into Connecting with a fresh snapshot
func (c *Connection) Reconnect(ctx context.Context, endpoint string, snapshot *model.Snapshot) error {
	c.mu.Lock()
	prev := c.state
	if prev != types.ConnStateConnected && prev != types.ConnStateDisconnected {
		c.mu.Unlock()
		return goerr.Wrap(ErrInvalidState, "reconnect is not allowed", goerr.V(StateKey, prev.String()))
	}

	stop := func() {}
	if c.session != nil {
		stop = c.teardownLocked(c.generation)
	}
	c.setStateLocked(types.ConnStateReconnecting)
	c.mu.Unlock()
	stop()

	if prev == types.ConnStateConnected {
		if err := c.transport.Disconnect(ctx); err != nil {
			logging.From(ctx).Warn("failed to close previous transport", "error", err.Error())
		}
		c.notifyDisconnected(ctx, nil)
	}

	c.mu.Lock()
	if c.state != types.ConnStateReconnecting {
		state := c.state
		c.mu.Unlock()
		return goerr.Wrap(ErrInvalidState, "state changed during reconnect", goerr.V(StateKey, state.String()))
	}
	return c.connectLocked(ctx, endpoint, snapshot)
}

// Disconnect closes the session. It is a no-op when already disconnected.
func (c *Connection) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil || c.session.closed {
		c.setStateLocked(types.ConnStateDisconnected)
		c.mu.Unlock()
		return nil
	}
	sess := c.session
	stop := c.teardownLocked(c.generation)
	c.mu.Unlock()
	stop()

	logging.From(sess.ctx).Info("disconnecting")
	err := c.transport.Disconnect(ctx)
	c.notifyDisconnected(sess.ctx, nil)
	if err != nil {
		return goerr.Wrap(errors.Join(ErrTransport, err), "failed to close transport")
	}
	return nil
}

// teardownLocked closes the session of gen and moves to Disconnected. The
// returned func stops the keep-alive and must be called after unlocking.
func (c *Connection) teardownLocked(gen uint64) func() {
	sess := c.session
	if sess == nil || sess.generation != gen || sess.closed {
		return func() {}
	}
	sess.closed = true
	sess.typing.Stop()
	c.setStateLocked(types.ConnStateDisconnected)
	c.metrics.PendingChanged(0)

	ka := sess.keepAlive
	sess.keepAlive = nil
	if ka == nil {
		return func() {}
	}
	return ka.Stop
}

func (c *Connection) setStateLocked(state types.ConnState) {
	c.state = state
	c.metrics.StateChanged(state)
}

// live returns the session of gen if it may still mutate the replica
func (c *Connection) liveLocked(gen uint64) *Session {
	sess := c.session
	if sess == nil || sess.generation != gen || sess.closed || !c.state.Live() {
		return nil
	}
	return sess
}

func (c *Connection) onOpen(gen uint64) {
	c.mu.Lock()
	sess := c.liveLocked(gen)
	if sess == nil || c.state != types.ConnStateConnecting {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(types.ConnStateConnected)
	if c.pingInterval > 0 {
		sess.keepAlive = worker.NewKeepAlive(func(ctx context.Context) error {
			_, err := c.Ping(ctx)
			return err
		}, c.pingInterval, worker.WithKeepAliveClock(c.clock))
		sess.keepAlive.Start(sess.ctx)
	}
	c.mu.Unlock()

	logging.From(sess.ctx).Info("connected")
	c.notify(sess.ctx, func(ctx context.Context, o interfaces.Observer) { o.Connected(ctx) })
}

func (c *Connection) onClosed(gen uint64, cause error) {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.generation != gen || sess.closed {
		c.mu.Unlock()
		return
	}
	stop := c.teardownLocked(gen)
	c.mu.Unlock()
	stop()

	if cause != nil {
		cause = goerr.Wrap(errors.Join(ErrTransport, cause), "connection lost")
		logging.From(sess.ctx).Error("connection lost", "error", cause.Error())
	} else {
		logging.From(sess.ctx).Info("connection closed")
	}
	c.notifyDisconnected(sess.ctx, cause)
}

func (c *Connection) onText(gen uint64, text string) {
	c.mu.Lock()
	sess := c.liveLocked(gen)
	if sess == nil {
		c.mu.Unlock()
		return
	}
	changes, goodbye := c.handleFrameLocked(sess, text, true)
	var stop func()
	if goodbye {
		stop = c.teardownLocked(gen)
	}
	c.mu.Unlock()

	c.notifyChanges(sess.ctx, changes)

	if goodbye {
		stop()
		logging.From(sess.ctx).Info("server said goodbye")
		if err := c.transport.Disconnect(sess.ctx); err != nil {
			logging.From(sess.ctx).Warn("failed to close transport after goodbye", "error", err.Error())
		}
		c.notifyDisconnected(sess.ctx, nil)
	}
}

// Ingest applies one event delivered outside the transport, such as an
// Events API callback. Connection-level events are ignored.
func (c *Connection) Ingest(ctx context.Context, raw []byte) error {
	c.mu.Lock()
	sess := c.session
	if sess == nil || sess.closed || !c.state.Live() {
		c.mu.Unlock()
		return goerr.Wrap(ErrNotConnected, "cannot ingest event")
	}
	changes, _ := c.handleFrameLocked(sess, string(raw), false)
	c.mu.Unlock()

	c.notifyChanges(ctx, changes)
	return nil
}

// handleFrameLocked decodes and applies one frame. It reports goodbye when
// the server asked to close the session.
func (c *Connection) handleFrameLocked(sess *Session, text string, fromTransport bool) ([]model.Change, bool) {
	ctx := sess.ctx
	logger := logging.From(ctx)

	frame, err := sess.decoder.Decode(text, sess.generation)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, rtm.ErrUnknownEventType) {
			reason = "unknown_type"
		}
		c.metrics.DecodeFailed(reason)
		logger.Warn("dropping frame", "error", err.Error(), "reason", reason)
		return nil, false
	}
	c.metrics.FrameReceived(frame.Type)

	switch ev := frame.Event.(type) {
	case rtm.Hello:
		logger.Debug("hello received")
		return nil, false

	case rtm.Ack:
		if ev.Kind == rtm.AckPong {
			if fromTransport {
				sess.lastPong = c.clock.Now()
				if sentAt, ok := sess.engine.Pending().TakePing(ev.ReplyTo); ok {
					logger.Debug("pong received", "rtt", sess.lastPong.Sub(sentAt))
				}
				c.metrics.PendingChanged(sess.engine.Pending().Len())
			}
			return nil, false
		}

	case rtm.ReconnectURL:
		if fromTransport {
			sess.reconnectURL = ev.URL
		}
		return nil, false

	case rtm.Goodbye:
		return nil, fromTransport

	case rtm.ServerError:
		logger.Warn("server reported an error", "code", ev.Code, "msg", ev.Msg)
		return nil, false
	}

	change, err := sess.engine.Apply(ctx, frame.Event)
	if err != nil {
		c.metrics.EventSkipped(frame.Type)
		logger.Debug("event skipped", "type", frame.Type, "subtype", frame.Subtype, "reason", err.Error())
		return nil, false
	}
	c.metrics.EventApplied(frame.Type)
	if _, ok := frame.Event.(rtm.Ack); ok {
		c.metrics.PendingChanged(sess.engine.Pending().Len())
	}

	if change == nil {
		return nil, false
	}
	change.Event = frame.Type
	return []model.Change{*change}, false
}

func (c *Connection) expireTyping(gen uint64, key worker.TypingKey, token uint64) {
	c.mu.Lock()
	sess := c.liveLocked(gen)
	if sess == nil {
		c.mu.Unlock()
		return
	}
	change := sess.engine.ExpireTyping(key, token)
	c.mu.Unlock()

	if change != nil {
		change.Event = "typing_expired"
		c.notifyChanges(sess.ctx, []model.Change{*change})
	}
}

// SendMessage posts text to channel and returns the correlation ID. The
// message enters the replica when the server acknowledges it.
func (c *Connection) SendMessage(ctx context.Context, channel, text string) (int64, error) {
	id := c.nextID.Add(1)
	frame, err := json.Marshal(map[string]any{
		"id":      id,
		"type":    "message",
		"channel": channel,
		"text":    text,
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode message")
	}

	sess, err := c.register(func(s *Session) {
		s.engine.Pending().AddMessage(&PendingMessage{ID: id, Channel: channel, Text: text, SentAt: c.clock.Now()})
	})
	if err != nil {
		return 0, err
	}

	if err := c.transport.Send(ctx, frame); err != nil {
		c.unregister(sess, func(s *Session) { s.engine.Pending().RemoveMessage(id) })
		return 0, goerr.Wrap(errors.Join(ErrTransport, err), "failed to send message",
			goerr.V(ChannelIDKey, channel),
			goerr.V("id", id))
	}
	return id, nil
}

// Ping sends a ping frame and returns its correlation ID
func (c *Connection) Ping(ctx context.Context) (int64, error) {
	id := c.nextID.Add(1)
	frame, err := json.Marshal(map[string]any{"id": id, "type": "ping"})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to encode ping")
	}

	sess, err := c.register(func(s *Session) {
		s.engine.Pending().AddPing(id, c.clock.Now())
	})
	if err != nil {
		return 0, err
	}

	if err := c.transport.Send(ctx, frame); err != nil {
		c.unregister(sess, func(s *Session) { s.engine.Pending().RemovePing(id) })
		return 0, goerr.Wrap(errors.Join(ErrTransport, err), "failed to send ping", goerr.V("id", id))
	}
	return id, nil
}

func (c *Connection) register(fn func(s *Session)) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess := c.session
	if sess == nil || sess.closed || c.state != types.ConnStateConnected {
		return nil, goerr.Wrap(ErrNotConnected, "no live session", goerr.V(StateKey, c.state.String()))
	}
	fn(sess)
	c.metrics.PendingChanged(sess.engine.Pending().Len())
	return sess, nil
}

func (c *Connection) unregister(sess *Session, fn func(s *Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != sess {
		return
	}
	fn(sess)
	c.metrics.PendingChanged(sess.engine.Pending().Len())
}

func (c *Connection) notify(ctx context.Context, fn func(ctx context.Context, o interfaces.Observer)) {
	for _, o := range c.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.From(ctx).Error("observer panicked", "panic", r)
				}
			}()
			fn(ctx, o)
		}()
	}
}

func (c *Connection) notifyChanges(ctx context.Context, changes []model.Change) {
	for _, ch := range changes {
		c.notify(ctx, func(ctx context.Context, o interfaces.Observer) { o.Changed(ctx, ch) })
	}
}

func (c *Connection) notifyDisconnected(ctx context.Context, err error) {
	c.notify(ctx, func(ctx context.Context, o interfaces.Observer) { o.Disconnected(ctx, err) })
}

// handler binds transport callbacks to one generation
type handler struct {
	c          *Connection
	generation uint64
}

func (h *handler) OnOpen()             { h.c.onOpen(h.generation) }
func (h *handler) OnText(frame string) { h.c.onText(h.generation, frame) }
func (h *handler) OnClose()            { h.c.onClosed(h.generation, nil) }
func (h *handler) OnError(err error)   { h.c.onClosed(h.generation, err) }

// redactURL drops the query, which carries the session ticket
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	u.RawQuery = ""
	return u.String()
}
