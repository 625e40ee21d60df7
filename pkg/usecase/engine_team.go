package usecase

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/m-mizutani/goerr/v2"
)

func (e *Engine) planTeamChanged(ev rtm.TeamChanged) (*step, error) {
	team := e.store.Team()
	change := changed(model.ChangeTeam, team.ID, "")

	if ev.Field == rtm.TeamPref {
		if ev.PrefName == "" {
			return nil, missing("team pref change has no name")
		}
		change.Sub = ev.PrefName
		return &step{change: change, apply: func() { team.SetPref(ev.PrefName, ev.Value) }}, nil
	}

	value, ok := ev.Value.(string)
	if !ok || value == "" {
		return nil, missing("team change has no value", goerr.V("field", ev.Field))
	}

	var field *string
	switch ev.Field {
	case rtm.TeamName:
		field = &team.Name
	case rtm.TeamDomain:
		field = &team.Domain
	case rtm.TeamEmailDomain:
		field = &team.EmailDomain
	case rtm.TeamPlan:
		field = &team.Plan
	default:
		return nil, missing("unknown team field", goerr.V("field", ev.Field))
	}
	return &step{change: change, apply: func() { *field = value }}, nil
}

// planTeamProfile applies custom profile field definitions to every known
// user with a profile. A delete only removes the first field listed in the
// event.
func (e *Engine) planTeamProfile(ev rtm.TeamProfile) (*step, error) {
	var defs []*model.ProfileField
	for _, f := range ev.Fields {
		if f != nil && f.ID != "" {
			defs = append(defs, f)
		}
	}
	if len(defs) == 0 {
		return nil, missing("team profile event has no fields")
	}

	users := e.store.Users()
	change := changed(model.ChangeTeam, e.store.Team().ID, defs[0].ID)

	var apply func(p *model.Profile)
	switch ev.Action {
	case rtm.ProfileChanged:
		apply = func(p *model.Profile) {
			for _, def := range defs {
				cur, ok := p.Fields[def.ID]
				if !ok || cur == nil {
					cur = &model.ProfileField{ID: def.ID}
					if p.Fields == nil {
						p.Fields = make(map[string]*model.ProfileField)
					}
					p.Fields[def.ID] = cur
				}
				cur.MergeDefinition(def)
			}
		}

	case rtm.ProfileDeleted:
		id := defs[0].ID
		apply = func(p *model.Profile) { delete(p.Fields, id) }

	case rtm.ProfileReordered:
		apply = func(p *model.Profile) {
			for _, def := range defs {
				cur := p.Fields[def.ID]
				if cur == nil || def.Ordering == nil {
					continue
				}
				ordering := *def.Ordering
				cur.Ordering = &ordering
			}
		}

	default:
		return nil, missing("unknown profile action", goerr.V("action", ev.Action))
	}

	return &step{
		change: change,
		apply: func() {
			for _, u := range users {
				if u.Profile != nil {
					apply(u.Profile)
				}
			}
		},
	}, nil
}

func (e *Engine) planBot(ev rtm.BotChanged) (*step, error) {
	if ev.Bot == nil || ev.Bot.ID == "" {
		return nil, missing("bot event has no bot id")
	}
	b := *ev.Bot
	return &step{
		change: changed(model.ChangeBot, b.ID, ""),
		apply:  func() { e.store.PutBot(&b) },
	}, nil
}

func (e *Engine) planSubteam(ev rtm.SubteamChanged) (*step, error) {
	if ev.Group == nil || ev.Group.ID == "" {
		return nil, missing("subteam event has no subteam id")
	}
	g := *ev.Group
	return &step{
		change: changed(model.ChangeUserGroup, g.ID, ""),
		apply:  func() { e.store.PutUserGroup(&g) },
	}, nil
}
