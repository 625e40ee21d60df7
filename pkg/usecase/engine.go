package usecase

import (
	"context"

	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/service/worker"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// TypingScheduler owns the typing indicator timers of one session
type TypingScheduler interface {
	Schedule(key worker.TypingKey) uint64
	Cancel(key worker.TypingKey)
	CancelChannel(channel string) int
	Expire(key worker.TypingKey, token uint64) bool
}

// Engine applies decoded events to a session's replica. Every rule first
// resolves all references it needs (plan) and only then mutates (apply), so
// an event either fully applies or leaves the replica untouched.
//
// Engine is not safe for concurrent use; the Connection serializes calls.
type Engine struct {
	store   *memory.Store
	typing  TypingScheduler
	pending *Pending
}

func NewEngine(store *memory.Store, typing TypingScheduler, pending *Pending) *Engine {
	if pending == nil {
		pending = NewPending()
	}
	return &Engine{store: store, typing: typing, pending: pending}
}

func (e *Engine) Store() *memory.Store { return e.store }

func (e *Engine) Pending() *Pending { return e.pending }

// step is a fully resolved mutation. change is nil when the mutation is not
// worth announcing.
type step struct {
	change *model.Change
	apply  func()

	// violation is reported after apply when the rule had to clamp
	violation error
}

func changed(kind model.ChangeKind, id, sub string) *model.Change {
	return &model.Change{Kind: kind, ID: id, Sub: sub}
}

func missing(msg string, opts ...goerr.Option) error {
	return goerr.Wrap(ErrReferenceMissing, msg, opts...)
}

// Apply applies ev. It returns the change to announce, which may be nil, or
// an error wrapping ErrReferenceMissing when the event was skipped.
func (e *Engine) Apply(ctx context.Context, ev rtm.Event) (*model.Change, error) {
	s, err := e.plan(ev)
	if err != nil {
		return nil, err
	}

	s.apply()

	if s.violation != nil {
		logging.From(ctx).Warn("mutation clamped", "error", s.violation.Error())
	}
	return s.change, nil
}

func (e *Engine) plan(ev rtm.Event) (*step, error) {
	switch ev := ev.(type) {
	case rtm.Ack:
		return e.planAck(ev)
	case rtm.MessageReceived:
		return e.planMessageReceived(ev)
	case rtm.MessageChanged:
		return e.planMessageChanged(ev)
	case rtm.MessageDeleted:
		return e.planMessageDeleted(ev)
	case rtm.UserTyping:
		return e.planUserTyping(ev)

	case rtm.ChannelMarked:
		return e.planChannelMarked(ev)
	case rtm.ChannelCreated:
		return e.planChannelUpsert(ev.Channel, false)
	case rtm.ChannelJoined:
		return e.planChannelUpsert(ev.Channel, true)
	case rtm.ChannelDeleted:
		return e.planChannelDeleted(ev)
	case rtm.ChannelLeft:
		return e.planChannelLeft(ev)
	case rtm.ChannelRenamed:
		return e.planChannelRenamed(ev)
	case rtm.ChannelArchived:
		return e.planChannelArchived(ev)
	case rtm.ChannelOpened:
		return e.planChannelOpened(ev)

	case rtm.FilePosted:
		return e.planFilePosted(ev)
	case rtm.FilePrivate:
		return e.planFilePrivate(ev)
	case rtm.FileDeleted:
		return e.planFileDeleted(ev)
	case rtm.FileComment:
		return e.planFileComment(ev)

	case rtm.Pin:
		return e.planPin(ev)
	case rtm.Star:
		return e.planStar(ev)
	case rtm.Reaction:
		return e.planReaction(ev)

	case rtm.PresenceChanged:
		return e.planPresence(ev)
	case rtm.ManualPresenceChanged:
		return e.planManualPresence(ev)
	case rtm.PrefChanged:
		return e.planPref(ev)
	case rtm.UserChanged:
		return e.planUserUpsert(ev.User)
	case rtm.TeamJoined:
		return e.planUserUpsert(ev.User)
	case rtm.DNDUpdated:
		return e.planDND(e.store.SelfID(), ev.DND)
	case rtm.DNDUpdatedUser:
		return e.planDND(ev.User, ev.DND)
	case rtm.SubteamSelf:
		return e.planSubteamSelf(ev)

	case rtm.TeamChanged:
		return e.planTeamChanged(ev)
	case rtm.TeamProfile:
		return e.planTeamProfile(ev)
	case rtm.BotChanged:
		return e.planBot(ev)
	case rtm.SubteamChanged:
		return e.planSubteam(ev)

	case rtm.Notice:
		return &step{change: changed(model.ChangeNotice, "", ""), apply: func() {}}, nil
	}

	return nil, missing("event has no mutation rule", goerr.V("event", ev))
}
