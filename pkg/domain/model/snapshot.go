package model

// Snapshot is a point-in-time dump of the workspace used to seed the replica
// before streaming begins.
type Snapshot struct {
	Self       string       `json:"self"`
	Team       *Team        `json:"team"`
	Users      []*User      `json:"users,omitempty"`
	Channels   []*Channel   `json:"channels,omitempty"`
	Files      []*File      `json:"files,omitempty"`
	Bots       []*Bot       `json:"bots,omitempty"`
	UserGroups []*UserGroup `json:"user_groups,omitempty"`
}

// Bootstrap is what a session needs before dialing: the RTM URL and the
// snapshot to seed the replica with
type Bootstrap struct {
	URL      string
	Snapshot *Snapshot
}
