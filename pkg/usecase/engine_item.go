package usecase

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/0xpablo/slackkit/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

func (e *Engine) planPin(ev rtm.Pin) (*step, error) {
	channelID := ev.Channel
	if channelID == "" {
		channelID = ev.Item.Channel
	}
	ch, err := e.channel(channelID)
	if err != nil {
		return nil, err
	}
	if !ev.Item.Type.IsValid() {
		return nil, missing("pin item has no valid type", goerr.V("type", ev.Item.Type))
	}

	item := ev.Item
	return &step{
		change: changed(model.ChangeChannel, ch.ID, item.Key()),
		apply: func() {
			if ev.Added {
				ch.Pin(item)
			} else {
				ch.Unpin(item)
			}
		},
	}, nil
}

func (e *Engine) message(item model.Item) (*model.Channel, *model.Message, error) {
	ch, err := e.channel(item.Channel)
	if err != nil {
		return nil, nil, err
	}
	ts := item.MessageTS()
	msg := ch.Message(ts)
	if msg == nil {
		return nil, nil, missing("message not found",
			goerr.V(ChannelIDKey, item.Channel),
			goerr.V(TSKey, ts))
	}
	return ch, msg, nil
}

func (e *Engine) comment(item model.Item) (*model.File, *model.Comment, error) {
	f, err := e.file(item.FileID())
	if err != nil {
		return nil, nil, err
	}
	c := f.Comment(item.CommentID())
	if c == nil {
		return nil, nil, missing("comment not found",
			goerr.V(FileIDKey, f.ID),
			goerr.V("comment_id", item.CommentID()))
	}
	return f, c, nil
}

// planStar dispatches on the item type: messages flip their flag, files flip
// their flag and adjust the count (never below zero), and comments are
// upserted from the payload.
func (e *Engine) planStar(ev rtm.Star) (*step, error) {
	item := ev.Item

	switch item.Type {
	case types.ItemTypeMessage:
		ch, msg, err := e.message(item)
		if err != nil {
			return nil, err
		}
		return &step{
			change: changed(model.ChangeMessage, ch.ID, msg.TS),
			apply:  func() { msg.IsStarred = ev.Added },
		}, nil

	case types.ItemTypeFile:
		f, err := e.file(item.FileID())
		if err != nil {
			return nil, err
		}
		s := &step{change: changed(model.ChangeFile, f.ID, "")}
		if ev.Added {
			s.apply = f.Star
			return s, nil
		}
		if f.Stars <= 0 {
			s.violation = goerr.Wrap(ErrInvariantViolation, "star count would go negative",
				goerr.V(FileIDKey, f.ID),
				goerr.V("stars", f.Stars))
		}
		s.apply = func() { f.Unstar() }
		return s, nil

	case types.ItemTypeFileComment:
		f, err := e.file(item.FileID())
		if err != nil {
			return nil, err
		}
		if item.Comment == nil || item.Comment.ID == "" {
			return nil, missing("starred comment has no id", goerr.V(FileIDKey, f.ID))
		}
		c := *item.Comment
		c.IsStarred = ev.Added
		return &step{
			change: changed(model.ChangeComment, f.ID, c.ID),
			apply:  func() { f.PutComment(&c) },
		}, nil
	}

	return nil, missing("item type cannot be starred", goerr.V("type", item.Type))
}

// planReaction appends a reaction, or removes the entries whose name and
// user both match
func (e *Engine) planReaction(ev rtm.Reaction) (*step, error) {
	if ev.Name == "" || ev.User == "" {
		return nil, missing("reaction has no name or user")
	}

	var (
		target *[]model.Reaction
		change *model.Change
	)
	switch ev.Item.Type {
	case types.ItemTypeMessage:
		ch, msg, err := e.message(ev.Item)
		if err != nil {
			return nil, err
		}
		target = &msg.Reactions
		change = changed(model.ChangeMessage, ch.ID, msg.TS)

	case types.ItemTypeFile:
		f, err := e.file(ev.Item.FileID())
		if err != nil {
			return nil, err
		}
		target = &f.Reactions
		change = changed(model.ChangeFile, f.ID, "")

	case types.ItemTypeFileComment:
		f, c, err := e.comment(ev.Item)
		if err != nil {
			return nil, err
		}
		target = &c.Reactions
		change = changed(model.ChangeComment, f.ID, c.ID)

	default:
		return nil, missing("item type cannot carry reactions", goerr.V("type", ev.Item.Type))
	}

	r := model.Reaction{Name: ev.Name, User: ev.User}
	return &step{
		change: change,
		apply: func() {
			if ev.Added {
				*target = model.AppendReaction(*target, r)
			} else {
				*target = model.RemoveReaction(*target, r.Name, r.User)
			}
		},
	}, nil
}
