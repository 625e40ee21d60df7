package model

// WebhookRequest is an inbound slash command or outgoing webhook invocation
type WebhookRequest struct {
	Token       string `json:"-"`
	TeamID      string `json:"team_id"`
	TeamDomain  string `json:"team_domain,omitempty"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name,omitempty"`
	Command     string `json:"command,omitempty"`
	Text        string `json:"text"`
	TriggerWord string `json:"trigger_word,omitempty"`
	ResponseURL string `json:"response_url,omitempty"`
}

// IsCommand reports whether the request came from a slash command rather
// than an outgoing webhook trigger word
func (r *WebhookRequest) IsCommand() bool {
	return r.Command != ""
}
