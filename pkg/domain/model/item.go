package model

import (
	"strings"

	"github.com/0xpablo/slackkit/pkg/domain/types"
)

// Item is the target of a pin, star or reaction. Only the references
// relevant to Type are set.
type Item struct {
	Type    types.ItemType `json:"type"`
	Channel string         `json:"channel,omitempty"`
	TS      string         `json:"ts,omitempty"`
	Message *Message       `json:"message,omitempty"`
	File    *File          `json:"file,omitempty"`
	Comment *Comment       `json:"comment,omitempty"`
}

// FileID returns the referenced file ID, if any
func (i Item) FileID() string {
	if i.File == nil {
		return ""
	}
	return i.File.ID
}

// CommentID returns the referenced file comment ID, if any
func (i Item) CommentID() string {
	if i.Comment == nil {
		return ""
	}
	return i.Comment.ID
}

// MessageTS returns the referenced message timestamp. The flat TS field
// wins over the embedded message.
func (i Item) MessageTS() string {
	if i.TS != "" {
		return i.TS
	}
	if i.Message != nil {
		return i.Message.TS
	}
	return ""
}

// Key returns the identity of the item: two items with the same key refer to
// the same underlying entity regardless of embedded payload.
func (i Item) Key() string {
	var parts []string
	switch i.Type {
	case types.ItemTypeMessage:
		parts = []string{i.Channel, i.MessageTS()}
	case types.ItemTypeFile:
		parts = []string{i.FileID()}
	case types.ItemTypeFileComment:
		parts = []string{i.FileID(), i.CommentID()}
	default:
		parts = []string{i.Channel}
	}
	return i.Type.String() + ":" + strings.Join(parts, "/")
}

// Equal reports whether both items refer to the same entity
func (i Item) Equal(o Item) bool {
	return i.Key() == o.Key()
}
