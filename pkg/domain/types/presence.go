package types

// Presence is a user's presence as reported by presence_change events
type Presence string

const (
	PresenceActive Presence = "active"
	PresenceAway   Presence = "away"
)

// IsValid checks if the presence value is valid
func (p Presence) IsValid() bool {
	return p == PresenceActive || p == PresenceAway
}

func (p Presence) String() string {
	return string(p)
}
