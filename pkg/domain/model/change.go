package model

// ChangeKind names the entity family touched by an applied event
type ChangeKind string

const (
	ChangeTeam      ChangeKind = "team"
	ChangeUser      ChangeKind = "user"
	ChangeChannel   ChangeKind = "channel"
	ChangeMessage   ChangeKind = "message"
	ChangeTyping    ChangeKind = "typing"
	ChangeFile      ChangeKind = "file"
	ChangeComment   ChangeKind = "comment"
	ChangeBot       ChangeKind = "bot"
	ChangeUserGroup ChangeKind = "user_group"
	ChangeNotice    ChangeKind = "notice"
)

// Change is delivered to observers after a mutation commits. ID is the
// primary entity (channel, user, file...) and Sub the nested key (message
// timestamp, comment ID, typing user) when relevant.
type Change struct {
	Kind  ChangeKind `json:"kind"`
	Event string     `json:"event"`
	ID    string     `json:"id,omitempty"`
	Sub   string     `json:"sub,omitempty"`
}
