package usecase

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/m-mizutani/goerr/v2"
)

func (e *Engine) user(id string) (*model.User, error) {
	if id == "" {
		return nil, missing("event has no user")
	}
	u := e.store.User(id)
	if u == nil {
		return nil, missing("user not found", goerr.V(UserIDKey, id))
	}
	return u, nil
}

func (e *Engine) self() (*model.User, error) {
	u, err := e.user(e.store.SelfID())
	if err != nil {
		return nil, goerr.Wrap(err, "authenticated user is not in the replica")
	}
	return u, nil
}

// planPresence sets presence on every listed user. A batch naming any
// unknown user is skipped as a whole.
func (e *Engine) planPresence(ev rtm.PresenceChanged) (*step, error) {
	if len(ev.Users) == 0 || !ev.Presence.IsValid() {
		return nil, missing("presence event has no user or presence")
	}
	users := make([]*model.User, 0, len(ev.Users))
	for _, id := range ev.Users {
		u, err := e.user(id)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	change := changed(model.ChangeUser, users[0].ID, "")
	if len(users) > 1 {
		change.ID = ""
	}
	return &step{
		change: change,
		apply: func() {
			for _, u := range users {
				u.Presence = ev.Presence
			}
		},
	}, nil
}

func (e *Engine) planManualPresence(ev rtm.ManualPresenceChanged) (*step, error) {
	if !ev.Presence.IsValid() {
		return nil, missing("manual presence has no presence")
	}
	u, err := e.self()
	if err != nil {
		return nil, err
	}
	return &step{
		change: changed(model.ChangeUser, u.ID, ""),
		apply:  func() { u.Presence = ev.Presence },
	}, nil
}

func (e *Engine) planPref(ev rtm.PrefChanged) (*step, error) {
	if ev.Name == "" {
		return nil, missing("pref change has no name")
	}
	u, err := e.self()
	if err != nil {
		return nil, err
	}
	return &step{
		change: changed(model.ChangeUser, u.ID, ev.Name),
		apply:  func() { u.SetPref(ev.Name, ev.Value) },
	}, nil
}

// planUserUpsert replaces the user record. State this client maintains on
// its own (preferences, group membership, DND and presence) is carried over
// when the incoming record omits it.
func (e *Engine) planUserUpsert(u *model.User) (*step, error) {
	if u == nil || u.ID == "" {
		return nil, missing("user event has no user id")
	}
	prev := e.store.User(u.ID)
	next := *u

	return &step{
		change: changed(model.ChangeUser, next.ID, ""),
		apply: func() {
			if prev != nil {
				if next.Prefs == nil {
					next.Prefs = prev.Prefs
				}
				if next.UserGroups == nil {
					next.UserGroups = prev.UserGroups
				}
				if next.DND == nil {
					next.DND = prev.DND
				}
				if next.Presence == "" {
					next.Presence = prev.Presence
				}
			}
			e.store.PutUser(&next)
		},
	}, nil
}

func (e *Engine) planDND(userID string, dnd *model.DNDStatus) (*step, error) {
	if dnd == nil {
		return nil, missing("dnd event has no status")
	}
	u, err := e.user(userID)
	if err != nil {
		return nil, err
	}
	status := *dnd
	return &step{
		change: changed(model.ChangeUser, u.ID, ""),
		apply:  func() { u.DND = &status },
	}, nil
}

func (e *Engine) planSubteamSelf(ev rtm.SubteamSelf) (*step, error) {
	if ev.Subteam == "" {
		return nil, missing("subteam event has no subteam id")
	}
	u, err := e.self()
	if err != nil {
		return nil, err
	}
	return &step{
		change: changed(model.ChangeUser, u.ID, ev.Subteam),
		apply: func() {
			if ev.Added {
				u.JoinGroup(ev.Subteam)
			} else {
				u.LeaveGroup(ev.Subteam)
			}
		},
	}, nil
}
