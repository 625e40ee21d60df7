package model

import "slices"

// Topic is a channel topic or purpose
type Topic struct {
	Value   string `json:"value"`
	Creator string `json:"creator,omitempty"`
	LastSet int64  `json:"last_set,omitempty"`
}

// Channel is a public channel, private group or direct message conversation.
// Messages are keyed by their timestamp.
type Channel struct {
	ID         string              `json:"id"`
	Name       string              `json:"name,omitempty"`
	User       string              `json:"user,omitempty"`
	Creator    string              `json:"creator,omitempty"`
	Created    int64               `json:"created,omitempty"`
	IsChannel  bool                `json:"is_channel,omitempty"`
	IsGroup    bool                `json:"is_group,omitempty"`
	IsIM       bool                `json:"is_im,omitempty"`
	IsMember   bool                `json:"is_member,omitempty"`
	IsOpen     bool                `json:"is_open,omitempty"`
	IsArchived bool                `json:"is_archived,omitempty"`
	IsGeneral  bool                `json:"is_general,omitempty"`
	Topic      *Topic              `json:"topic,omitempty"`
	Purpose    *Topic              `json:"purpose,omitempty"`
	LastRead   string              `json:"last_read,omitempty"`
	Members    []string            `json:"members,omitempty"`
	Messages   map[string]*Message `json:"messages,omitempty"`
	Pinned     []Item              `json:"pinned_items,omitempty"`

	// UsersTyping is ephemeral and never part of a snapshot
	UsersTyping []string `json:"users_typing,omitempty"`
}

// PutMessage stores msg under its timestamp
func (c *Channel) PutMessage(msg *Message) {
	if c.Messages == nil {
		c.Messages = make(map[string]*Message)
	}
	c.Messages[msg.TS] = msg
}

// Message returns the message at ts, or nil
func (c *Channel) Message(ts string) *Message {
	return c.Messages[ts]
}

// SortedMessages returns messages ordered by timestamp
func (c *Channel) SortedMessages() []*Message {
	msgs := make([]*Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, m)
	}
	slices.SortFunc(msgs, func(a, b *Message) int {
		return CompareTS(a.TS, b.TS)
	})
	return msgs
}

func (c *Channel) HasMember(userID string) bool {
	return slices.Contains(c.Members, userID)
}

// RemoveMember drops every occurrence of userID from the member list
func (c *Channel) RemoveMember(userID string) {
	c.Members = slices.DeleteFunc(c.Members, func(m string) bool { return m == userID })
}

func (c *Channel) IsTyping(userID string) bool {
	return slices.Contains(c.UsersTyping, userID)
}

// AddTyping marks userID as typing. It returns false when the user was
// already marked.
func (c *Channel) AddTyping(userID string) bool {
	if c.IsTyping(userID) {
		return false
	}
	c.UsersTyping = append(c.UsersTyping, userID)
	return true
}

// RemoveTyping clears userID from the typing set. It returns false when the
// user was not marked.
func (c *Channel) RemoveTyping(userID string) bool {
	if !c.IsTyping(userID) {
		return false
	}
	c.UsersTyping = slices.DeleteFunc(c.UsersTyping, func(u string) bool { return u == userID })
	return true
}

// Pin appends item to the pinned list
func (c *Channel) Pin(item Item) {
	c.Pinned = append(c.Pinned, item)
}

// Unpin removes every pinned entry with the same identity as item
func (c *Channel) Unpin(item Item) {
	key := item.Key()
	c.Pinned = slices.DeleteFunc(c.Pinned, func(p Item) bool { return p.Key() == key })
}

// Adopt copies the state that channel lifecycle events do not carry (messages,
// pins and typing state) from prev into c.
func (c *Channel) Adopt(prev *Channel) {
	if prev == nil {
		return
	}
	if c.Messages == nil {
		c.Messages = prev.Messages
	}
	if c.Pinned == nil {
		c.Pinned = prev.Pinned
	}
	if c.UsersTyping == nil {
		c.UsersTyping = prev.UsersTyping
	}
	if c.LastRead == "" {
		c.LastRead = prev.LastRead
	}
}
