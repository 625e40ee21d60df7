package usecase

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/m-mizutani/goerr/v2"
)

// channel resolves id or reports it missing
func (e *Engine) channel(id string) (*model.Channel, error) {
	if id == "" {
		return nil, missing("event has no channel")
	}
	ch := e.store.Channel(id)
	if ch == nil {
		return nil, missing("channel not found", goerr.V(ChannelIDKey, id))
	}
	return ch, nil
}

func (e *Engine) planChannelMarked(ev rtm.ChannelMarked) (*step, error) {
	ch, err := e.channel(ev.Channel)
	if err != nil {
		return nil, err
	}
	if ev.TS == "" {
		return nil, missing("marked event has no ts", goerr.V(ChannelIDKey, ev.Channel))
	}
	return &step{
		change: changed(model.ChangeChannel, ch.ID, ""),
		apply:  func() { ch.LastRead = ev.TS },
	}, nil
}

// planChannelUpsert replaces the channel record. Messages, pins and typing
// state are not carried by lifecycle events and survive the replacement.
func (e *Engine) planChannelUpsert(ch *model.Channel, joined bool) (*step, error) {
	if ch == nil || ch.ID == "" {
		return nil, missing("channel event has no channel id")
	}
	prev := e.store.Channel(ch.ID)
	next := *ch

	return &step{
		change: changed(model.ChangeChannel, next.ID, ""),
		apply: func() {
			next.Adopt(prev)
			if joined {
				next.IsMember = true
			}
			e.store.PutChannel(&next)
		},
	}, nil
}

// planChannelDeleted removes the channel and every typing timer it owns. It
// is idempotent.
func (e *Engine) planChannelDeleted(ev rtm.ChannelDeleted) (*step, error) {
	if ev.Channel == "" {
		return nil, missing("event has no channel")
	}
	return &step{
		change: changed(model.ChangeChannel, ev.Channel, ""),
		apply: func() {
			e.store.DeleteChannel(ev.Channel)
			e.typing.CancelChannel(ev.Channel)
		},
	}, nil
}

func (e *Engine) planChannelLeft(ev rtm.ChannelLeft) (*step, error) {
	ch, err := e.channel(ev.Channel)
	if err != nil {
		return nil, err
	}
	self := e.store.SelfID()
	if self == "" || !ch.HasMember(self) {
		return nil, missing("authenticated user is not a member",
			goerr.V(ChannelIDKey, ev.Channel),
			goerr.V(UserIDKey, self))
	}
	return &step{
		change: changed(model.ChangeChannel, ch.ID, ""),
		apply: func() {
			ch.RemoveMember(self)
			ch.IsMember = false
		},
	}, nil
}

func (e *Engine) planChannelRenamed(ev rtm.ChannelRenamed) (*step, error) {
	ch, err := e.channel(ev.Channel)
	if err != nil {
		return nil, err
	}
	if ev.Name == "" {
		return nil, missing("rename has no name", goerr.V(ChannelIDKey, ev.Channel))
	}
	return &step{
		change: changed(model.ChangeChannel, ch.ID, ""),
		apply:  func() { ch.Name = ev.Name },
	}, nil
}

func (e *Engine) planChannelArchived(ev rtm.ChannelArchived) (*step, error) {
	ch, err := e.channel(ev.Channel)
	if err != nil {
		return nil, err
	}
	return &step{
		change: changed(model.ChangeChannel, ch.ID, ""),
		apply:  func() { ch.IsArchived = ev.Archived },
	}, nil
}

func (e *Engine) planChannelOpened(ev rtm.ChannelOpened) (*step, error) {
	ch, err := e.channel(ev.Channel)
	if err != nil {
		return nil, err
	}
	return &step{
		change: changed(model.ChangeChannel, ch.ID, ""),
		apply:  func() { ch.IsOpen = ev.Open },
	}, nil
}
