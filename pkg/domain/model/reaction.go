package model

// Reaction is a single (emoji name, user) pair
type Reaction struct {
	Name string `json:"name"`
	User string `json:"user"`
}

// AppendReaction returns reactions with r appended. Reaction lists are
// append-only; duplicates are kept.
func AppendReaction(reactions []Reaction, r Reaction) []Reaction {
	return append(reactions, r)
}

// RemoveReaction returns reactions without the entries whose name AND user
// both match. Entries matching only one of the two are kept.
func RemoveReaction(reactions []Reaction, name, user string) []Reaction {
	kept := reactions[:0:0]
	for _, r := range reactions {
		if r.Name == name && r.User == user {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
