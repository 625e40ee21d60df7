package slack

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/types"
	"github.com/slack-go/slack"
)

func toTeam(t *slack.TeamInfo) *model.Team {
	return &model.Team{
		ID:          t.ID,
		Name:        t.Name,
		Domain:      t.Domain,
		EmailDomain: t.EmailDomain,
	}
}

func toUser(u *slack.User) *model.User {
	user := &model.User{
		ID:       u.ID,
		Name:     u.Name,
		RealName: u.RealName,
		Deleted:  u.Deleted,
		IsBot:    u.IsBot,
		IsAdmin:  u.IsAdmin,
		TZ:       u.TZ,
		Profile: &model.Profile{
			DisplayName: u.Profile.DisplayName,
			RealName:    u.Profile.RealName,
			Email:       u.Profile.Email,
			Title:       u.Profile.Title,
			Phone:       u.Profile.Phone,
			StatusText:  u.Profile.StatusText,
			StatusEmoji: u.Profile.StatusEmoji,
			Image:       u.Profile.Image192,
		},
	}
	if p := types.Presence(u.Presence); p.IsValid() {
		user.Presence = p
	}

	if fields := u.Profile.Fields.ToMap(); len(fields) > 0 {
		user.Profile.Fields = make(map[string]*model.ProfileField, len(fields))
		for id, f := range fields {
			user.Profile.Fields[id] = &model.ProfileField{
				ID:    id,
				Label: f.Label,
				Value: f.Value,
				Alt:   f.Alt,
			}
		}
	}
	return user
}

func toTopic(value, creator string, lastSet slack.JSONTime) *model.Topic {
	if value == "" && creator == "" {
		return nil
	}
	return &model.Topic{Value: value, Creator: creator, LastSet: int64(lastSet)}
}

func toChannel(c *slack.Channel) *model.Channel {
	return &model.Channel{
		ID:         c.ID,
		Name:       c.Name,
		User:       c.User,
		Creator:    c.Creator,
		Created:    int64(c.Created),
		IsChannel:  !c.IsIM && !c.IsMpIM && !c.IsPrivate,
		IsGroup:    c.IsPrivate || c.IsMpIM,
		IsIM:       c.IsIM,
		IsMember:   c.IsMember,
		IsOpen:     c.IsOpen,
		IsArchived: c.IsArchived,
		IsGeneral:  c.IsGeneral,
		Topic:      toTopic(c.Topic.Value, c.Topic.Creator, c.Topic.LastSet),
		Purpose:    toTopic(c.Purpose.Value, c.Purpose.Creator, c.Purpose.LastSet),
		LastRead:   c.LastRead,
		Members:    c.Members,
	}
}

func toUserGroup(g *slack.UserGroup) *model.UserGroup {
	return &model.UserGroup{
		ID:          g.ID,
		TeamID:      g.TeamID,
		Name:        g.Name,
		Handle:      g.Handle,
		Description: g.Description,
		IsExternal:  g.IsExternal,
		DateCreate:  int64(g.DateCreate),
		DateUpdate:  int64(g.DateUpdate),
		DateDelete:  int64(g.DateDelete),
		CreatedBy:   g.CreatedBy,
		UpdatedBy:   g.UpdatedBy,
		Users:       g.Users,
		UserCount:   g.UserCount,
	}
}
