package model

import "github.com/0xpablo/slackkit/pkg/domain/types"

// User is a workspace member. Users are never removed from the replica;
// deactivation is reflected by Deleted.
type User struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	RealName string         `json:"real_name,omitempty"`
	Deleted  bool           `json:"deleted,omitempty"`
	IsBot    bool           `json:"is_bot,omitempty"`
	IsAdmin  bool           `json:"is_admin,omitempty"`
	TZ       string         `json:"tz,omitempty"`
	Presence types.Presence `json:"presence,omitempty"`
	Prefs    map[string]any `json:"prefs,omitempty"`
	Profile  *Profile       `json:"profile,omitempty"`
	DND      *DNDStatus     `json:"dnd_status,omitempty"`

	// UserGroups maps subteam ID to itself; only tracked for the authenticated user
	UserGroups map[string]string `json:"user_groups,omitempty"`
}

// SetPref sets a single preference, allocating the map on first use
func (u *User) SetPref(name string, value any) {
	if u.Prefs == nil {
		u.Prefs = make(map[string]any)
	}
	u.Prefs[name] = value
}

// JoinGroup records membership of the given subteam
func (u *User) JoinGroup(subteamID string) {
	if u.UserGroups == nil {
		u.UserGroups = make(map[string]string)
	}
	u.UserGroups[subteamID] = subteamID
}

// LeaveGroup removes membership of the given subteam
func (u *User) LeaveGroup(subteamID string) {
	delete(u.UserGroups, subteamID)
}

// CustomField returns the user's custom profile field with the given ID, or nil
func (u *User) CustomField(id string) *ProfileField {
	if u.Profile == nil {
		return nil
	}
	return u.Profile.Fields[id]
}

// Profile is the user's profile card
type Profile struct {
	DisplayName string                   `json:"display_name,omitempty"`
	RealName    string                   `json:"real_name,omitempty"`
	Email       string                   `json:"email,omitempty"`
	Title       string                   `json:"title,omitempty"`
	Phone       string                   `json:"phone,omitempty"`
	StatusText  string                   `json:"status_text,omitempty"`
	StatusEmoji string                   `json:"status_emoji,omitempty"`
	Image       string                   `json:"image,omitempty"`
	Fields      map[string]*ProfileField `json:"fields,omitempty"`
}

// ProfileField is a custom profile field. When attached to a user it carries
// the user's value; when carried by a team_profile_* event it carries the
// team-wide definition.
type ProfileField struct {
	ID             string   `json:"id"`
	Label          string   `json:"label,omitempty"`
	Hint           string   `json:"hint,omitempty"`
	Type           string   `json:"type,omitempty"`
	Value          string   `json:"value,omitempty"`
	Alt            string   `json:"alt,omitempty"`
	Ordering       *int     `json:"ordering,omitempty"`
	PossibleValues []string `json:"possible_values,omitempty"`
	IsHidden       bool     `json:"is_hidden,omitempty"`
}

// MergeDefinition applies a team-wide field definition onto the field,
// leaving the user's value untouched. Zero-valued definition attributes are
// not applied.
func (f *ProfileField) MergeDefinition(def *ProfileField) {
	if def == nil {
		return
	}
	if def.Label != "" {
		f.Label = def.Label
	}
	if def.Hint != "" {
		f.Hint = def.Hint
	}
	if def.Type != "" {
		f.Type = def.Type
	}
	if def.Ordering != nil {
		ordering := *def.Ordering
		f.Ordering = &ordering
	}
	if def.PossibleValues != nil {
		f.PossibleValues = append([]string(nil), def.PossibleValues...)
	}
	f.IsHidden = def.IsHidden
}

// DNDStatus is a do-not-disturb status
type DNDStatus struct {
	Enabled        bool  `json:"dnd_enabled"`
	NextStartTS    int64 `json:"next_dnd_start_ts,omitempty"`
	NextEndTS      int64 `json:"next_dnd_end_ts,omitempty"`
	SnoozeEnabled  bool  `json:"snooze_enabled,omitempty"`
	SnoozeEndTime  int64 `json:"snooze_endtime,omitempty"`
	SnoozeRemained int64 `json:"snooze_remaining,omitempty"`
}
