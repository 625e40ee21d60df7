package types

import "fmt"

// ItemType discriminates the payload of a pinned or starred item, and the
// target of a reaction
type ItemType string

const (
	ItemTypeMessage     ItemType = "message"
	ItemTypeFile        ItemType = "file"
	ItemTypeFileComment ItemType = "file_comment"
	ItemTypeChannel     ItemType = "channel"
	ItemTypeIM          ItemType = "im"
	ItemTypeGroup       ItemType = "group"
)

// AllItemTypes returns all valid item types
func AllItemTypes() []ItemType {
	return []ItemType{
		ItemTypeMessage,
		ItemTypeFile,
		ItemTypeFileComment,
		ItemTypeChannel,
		ItemTypeIM,
		ItemTypeGroup,
	}
}

// IsValid checks if the item type is valid
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeMessage,
		ItemTypeFile,
		ItemTypeFileComment,
		ItemTypeChannel,
		ItemTypeIM,
		ItemTypeGroup:
		return true
	default:
		return false
	}
}

// Starrable reports whether starring an item of this type changes replica state
func (t ItemType) Starrable() bool {
	return t == ItemTypeMessage || t == ItemTypeFile || t == ItemTypeFileComment
}

func (t ItemType) String() string {
	return string(t)
}

// ParseItemType parses a string into an ItemType
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid item type: %s", s)
	}
	return t, nil
}
