package model

// Team holds workspace-level attributes. There is exactly one per session.
type Team struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Domain      string         `json:"domain"`
	EmailDomain string         `json:"email_domain,omitempty"`
	Plan        string         `json:"plan,omitempty"`
	Prefs       map[string]any `json:"prefs,omitempty"`
}

// SetPref sets a single team preference, allocating the map on first use
func (t *Team) SetPref(name string, value any) {
	if t.Prefs == nil {
		t.Prefs = make(map[string]any)
	}
	t.Prefs[name] = value
}
