package model

// Message is a message stored in a channel, keyed by its timestamp. A message
// never exists outside of a Channel's Messages map.
type Message struct {
	Type      string     `json:"type,omitempty"`
	Subtype   string     `json:"subtype,omitempty"`
	Channel   string     `json:"channel,omitempty"`
	User      string     `json:"user,omitempty"`
	BotID     string     `json:"bot_id,omitempty"`
	Text      string     `json:"text"`
	TS        string     `json:"ts"`
	ThreadTS  string     `json:"thread_ts,omitempty"`
	IsStarred bool       `json:"is_starred,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}
