package rtm

import (
	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/types"
)

// Event is one typed change notification. The concrete types below form a
// closed set; consumers type-switch over them.
type Event interface {
	event()
}

type AckKind int

const (
	AckMessage AckKind = iota
	AckPong
)

// Ack acknowledges a frame this client sent. ReplyTo is the correlation ID
// of the original frame.
type Ack struct {
	Kind    AckKind
	ReplyTo int64
	OK      bool
	TS      string
	Text    string
	Error   *ServerError
}

type Hello struct{}

// MessageReceived carries a new message; Message.Channel and Message.TS
// identify its slot.
type MessageReceived struct {
	Message *model.Message
}

// MessageChanged replaces the message stored at Message.TS
type MessageChanged struct {
	Channel string
	Message *model.Message
}

type MessageDeleted struct {
	Channel   string
	DeletedTS string
}

type UserTyping struct {
	Channel string
	User    string
}

// ChannelMarked moves the last-read marker of a channel, IM or group
type ChannelMarked struct {
	Channel string
	TS      string
}

type ChannelCreated struct {
	Channel *model.Channel
}

type ChannelJoined struct {
	Channel *model.Channel
}

type ChannelDeleted struct {
	Channel string
}

type ChannelLeft struct {
	Channel string
}

type ChannelRenamed struct {
	Channel string
	Name    string
}

type ChannelArchived struct {
	Channel  string
	Archived bool
}

// ChannelOpened toggles the is-open flag of an IM or group
type ChannelOpened struct {
	Channel string
	Open    bool
}

// Notice is an event that changes nothing in the replica but is still
// surfaced to observers (history changed, emoji changed, ...)
type Notice struct {
	Type string
}

// DNDUpdated sets the authenticated user's DND status
type DNDUpdated struct {
	DND *model.DNDStatus
}

type DNDUpdatedUser struct {
	User string
	DND  *model.DNDStatus
}

// FilePosted upserts a file (created, shared, unshared, public, change)
type FilePosted struct {
	File *model.File
}

type FilePrivate struct {
	FileID string
}

type FileDeleted struct {
	FileID string
}

type CommentAction int

const (
	CommentAdded CommentAction = iota
	CommentEdited
	CommentDeleted
)

// FileComment adds, edits or removes a comment. Comment is nil for
// CommentDeleted, where CommentID is set instead.
type FileComment struct {
	Action    CommentAction
	FileID    string
	Comment   *model.Comment
	CommentID string
}

type Pin struct {
	Added   bool
	Channel string
	User    string
	Item    model.Item
}

type Star struct {
	Added bool
	User  string
	Item  model.Item
}

type Reaction struct {
	Added    bool
	User     string
	Name     string
	ItemUser string
	Item     model.Item
}

// PresenceChanged sets presence for a single user or a batch
type PresenceChanged struct {
	Users    []string
	Presence types.Presence
}

// ManualPresenceChanged sets the authenticated user's presence
type ManualPresenceChanged struct {
	Presence types.Presence
}

// PrefChanged sets one of the authenticated user's preferences
type PrefChanged struct {
	Name  string
	Value any
}

type UserChanged struct {
	User *model.User
}

type TeamJoined struct {
	User *model.User
}

type TeamField int

const (
	TeamName TeamField = iota
	TeamDomain
	TeamEmailDomain
	TeamPlan
	TeamPref
)

// TeamChanged sets one team attribute. PrefName is only set for TeamPref.
type TeamChanged struct {
	Field    TeamField
	Value    any
	PrefName string
}

type ProfileAction int

const (
	ProfileChanged ProfileAction = iota
	ProfileDeleted
	ProfileReordered
)

// TeamProfile applies custom profile field definitions to every known user
type TeamProfile struct {
	Action ProfileAction
	Fields []*model.ProfileField
}

type BotChanged struct {
	Bot *model.Bot
}

type SubteamChanged struct {
	Group *model.UserGroup
}

// SubteamSelf adds or removes a subteam from the authenticated user's groups
type SubteamSelf struct {
	Added   bool
	Subteam string
}

type ReconnectURL struct {
	URL string
}

// Goodbye means the server is about to close the connection
type Goodbye struct{}

// ServerError is an error event pushed by the server
type ServerError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (Ack) event()                   {}
func (Hello) event()                 {}
func (MessageReceived) event()       {}
func (MessageChanged) event()        {}
func (MessageDeleted) event()        {}
func (UserTyping) event()            {}
func (ChannelMarked) event()         {}
func (ChannelCreated) event()        {}
func (ChannelJoined) event()         {}
func (ChannelDeleted) event()        {}
func (ChannelLeft) event()           {}
func (ChannelRenamed) event()        {}
func (ChannelArchived) event()       {}
func (ChannelOpened) event()         {}
func (Notice) event()                {}
func (DNDUpdated) event()            {}
func (DNDUpdatedUser) event()        {}
func (FilePosted) event()            {}
func (FilePrivate) event()           {}
func (FileDeleted) event()           {}
func (FileComment) event()           {}
func (Pin) event()                   {}
func (Star) event()                  {}
func (Reaction) event()              {}
func (PresenceChanged) event()       {}
func (ManualPresenceChanged) event() {}
func (PrefChanged) event()           {}
func (UserChanged) event()           {}
func (TeamJoined) event()            {}
func (TeamChanged) event()           {}
func (TeamProfile) event()           {}
func (BotChanged) event()            {}
func (SubteamChanged) event()        {}
func (SubteamSelf) event()           {}
func (ReconnectURL) event()          {}
func (Goodbye) event()               {}
func (ServerError) event()           {}
