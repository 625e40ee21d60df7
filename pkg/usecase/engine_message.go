package usecase

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/0xpablo/slackkit/pkg/service/worker"
	"github.com/m-mizutani/goerr/v2"
)

// planAck moves an acknowledged message from the pending table into its
// channel under the server-assigned timestamp. A rejected ack, or one for a
// channel no longer in the replica, only drops the pending entry.
func (e *Engine) planAck(ev rtm.Ack) (*step, error) {
	if ev.Kind != rtm.AckMessage {
		return nil, missing("ack is not for a message", goerr.V("reply_to", ev.ReplyTo))
	}
	pm := e.pending.Message(ev.ReplyTo)
	if pm == nil {
		return nil, missing("no pending message for ack", goerr.V("reply_to", ev.ReplyTo))
	}

	drop := &step{apply: func() { e.pending.RemoveMessage(ev.ReplyTo) }}
	if !ev.OK || ev.TS == "" {
		return drop, nil
	}
	ch := e.store.Channel(pm.Channel)
	if ch == nil {
		return drop, nil
	}

	text := pm.Text
	if ev.Text != "" {
		text = ev.Text
	}
	msg := &model.Message{
		Type:    "message",
		Channel: pm.Channel,
		User:    e.store.SelfID(),
		Text:    text,
		TS:      ev.TS,
	}

	return &step{
		change: changed(model.ChangeMessage, ch.ID, ev.TS),
		apply: func() {
			e.pending.RemoveMessage(ev.ReplyTo)
			ch.PutMessage(msg)
		},
	}, nil
}

// planMessageReceived stores a new message. A message from a user who is
// marked as typing in that channel is their explicit stop.
func (e *Engine) planMessageReceived(ev rtm.MessageReceived) (*step, error) {
	msg := ev.Message
	if msg == nil || msg.Channel == "" || msg.TS == "" {
		return nil, missing("message has no channel or ts")
	}
	ch := e.store.Channel(msg.Channel)
	if ch == nil {
		return nil, missing("channel not found", goerr.V(ChannelIDKey, msg.Channel))
	}

	return &step{
		change: changed(model.ChangeMessage, ch.ID, msg.TS),
		apply: func() {
			ch.PutMessage(msg)
			if msg.User != "" && ch.RemoveTyping(msg.User) {
				e.typing.Cancel(worker.TypingKey{Channel: ch.ID, User: msg.User})
			}
		},
	}, nil
}

func (e *Engine) planMessageChanged(ev rtm.MessageChanged) (*step, error) {
	channelID := ev.Channel
	if channelID == "" && ev.Message != nil {
		channelID = ev.Message.Channel
	}
	if ev.Message == nil || ev.Message.TS == "" || channelID == "" {
		return nil, missing("changed message has no channel or ts")
	}
	ch := e.store.Channel(channelID)
	if ch == nil {
		return nil, missing("channel not found", goerr.V(ChannelIDKey, channelID))
	}

	msg := *ev.Message
	msg.Channel = ch.ID
	return &step{
		change: changed(model.ChangeMessage, ch.ID, msg.TS),
		apply:  func() { ch.PutMessage(&msg) },
	}, nil
}

func (e *Engine) planMessageDeleted(ev rtm.MessageDeleted) (*step, error) {
	ch := e.store.Channel(ev.Channel)
	if ch == nil {
		return nil, missing("channel not found", goerr.V(ChannelIDKey, ev.Channel))
	}
	if ch.Message(ev.DeletedTS) == nil {
		return nil, missing("message not found",
			goerr.V(ChannelIDKey, ev.Channel),
			goerr.V(TSKey, ev.DeletedTS))
	}

	return &step{
		change: changed(model.ChangeMessage, ch.ID, ev.DeletedTS),
		apply:  func() { delete(ch.Messages, ev.DeletedTS) },
	}, nil
}

// planUserTyping marks the user as typing and (re)arms the expiry timer.
// Re-adding a typing user leaves the set unchanged but still pushes the
// expiry out.
func (e *Engine) planUserTyping(ev rtm.UserTyping) (*step, error) {
	if ev.User == "" {
		return nil, missing("typing event has no user")
	}
	ch := e.store.Channel(ev.Channel)
	if ch == nil {
		return nil, missing("channel not found", goerr.V(ChannelIDKey, ev.Channel))
	}

	key := worker.TypingKey{Channel: ch.ID, User: ev.User}
	s := &step{
		apply: func() {
			ch.AddTyping(ev.User)
			e.typing.Schedule(key)
		},
	}
	if !ch.IsTyping(ev.User) {
		s.change = changed(model.ChangeTyping, ch.ID, ev.User)
	}
	return s, nil
}

// ExpireTyping handles a fired typing timer. It is a no-op unless token is
// still the live timer for key and the user is still marked as typing.
func (e *Engine) ExpireTyping(key worker.TypingKey, token uint64) *model.Change {
	if !e.typing.Expire(key, token) {
		return nil
	}
	ch := e.store.Channel(key.Channel)
	if ch == nil || !ch.RemoveTyping(key.User) {
		return nil
	}
	return changed(model.ChangeTyping, key.Channel, key.User)
}
