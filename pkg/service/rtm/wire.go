package rtm

import (
	"bytes"
	"encoding/json"

	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/types"
)

// header is the part of a frame needed to route it
type header struct {
	Type    string           `json:"type"`
	Subtype string           `json:"subtype"`
	ReplyTo *int64           `json:"reply_to"`
	OK      *bool            `json:"ok"`
	TS      string           `json:"ts"`
	Text    string           `json:"text"`
	EventTS string           `json:"event_ts"`
	Error   *wireServerError `json:"error"`
}

type wireServerError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ref is an entity reference that arrives either as a bare ID string or as
// an object carrying an "id" field
type ref struct {
	ID  string
	Raw json.RawMessage
}

func (r *ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.ID
	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// isObject reports whether the reference carried a full object
func (r ref) isObject() bool { return len(r.Raw) > 0 }

// wireReaction is the aggregated form used inside message and file objects
type wireReaction struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}

func expandReactions(src []wireReaction) []model.Reaction {
	if len(src) == 0 {
		return nil
	}
	var out []model.Reaction
	for _, r := range src {
		for _, u := range r.Users {
			out = append(out, model.Reaction{Name: r.Name, User: u})
		}
	}
	return out
}

type wireMessage struct {
	model.Message
	Reactions []wireReaction `json:"reactions"`
}

func (w *wireMessage) toModel() *model.Message {
	if w == nil {
		return nil
	}
	m := w.Message
	m.Reactions = expandReactions(w.Reactions)
	return &m
}

type wireComment struct {
	model.Comment
	Reactions []wireReaction `json:"reactions"`
}

func (w *wireComment) toModel() *model.Comment {
	if w == nil {
		return nil
	}
	c := w.Comment
	c.Reactions = expandReactions(w.Reactions)
	return &c
}

type wireFile struct {
	model.File
	Comments       json.RawMessage `json:"comments"`
	InitialComment *wireComment    `json:"initial_comment"`
	Reactions      []wireReaction  `json:"reactions"`
}

func (w *wireFile) toModel() *model.File {
	if w == nil {
		return nil
	}
	f := w.File
	f.Comments = nil
	f.InitialComment = w.InitialComment.toModel()
	f.Reactions = expandReactions(w.Reactions)
	return &f
}

type wireUser struct {
	model.User
	Profile *wireUserProfile `json:"profile"`
}

// wireUserProfile accepts "fields" as an object keyed by field ID; other
// shapes (null, empty array) mean no custom fields
type wireUserProfile struct {
	model.Profile
	Fields json.RawMessage `json:"fields"`
}

func (w *wireUser) toModel() *model.User {
	if w == nil {
		return nil
	}
	u := w.User
	u.Profile = nil
	if w.Profile != nil {
		p := w.Profile.Profile
		p.Fields = nil
		var fields map[string]*model.ProfileField
		trimmed := bytes.TrimSpace(w.Profile.Fields)
		if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &fields) == nil {
			for id, f := range fields {
				if f == nil {
					continue
				}
				f.ID = id
				if p.Fields == nil {
					p.Fields = make(map[string]*model.ProfileField)
				}
				p.Fields[id] = f
			}
		}
		u.Profile = &p
	}
	return &u
}

// wireItem is the pin/star/reaction target. Stars and pins embed full
// objects; reactions reference files and comments by ID.
type wireItem struct {
	Type        types.ItemType `json:"type"`
	Channel     string         `json:"channel"`
	TS          string         `json:"ts"`
	Message     *wireMessage   `json:"message"`
	File        ref            `json:"file"`
	Comment     *wireComment   `json:"comment"`
	FileComment string         `json:"file_comment"`
}

func (w wireItem) toModel() (model.Item, error) {
	item := model.Item{
		Type:    w.Type,
		Channel: w.Channel,
		TS:      w.TS,
		Message: w.Message.toModel(),
	}
	if item.Message != nil && item.Message.Channel == "" {
		item.Message.Channel = w.Channel
	}

	if w.File.isObject() {
		var f wireFile
		if err := json.Unmarshal(w.File.Raw, &f); err != nil {
			return item, err
		}
		item.File = f.toModel()
	} else if w.File.ID != "" {
		item.File = &model.File{ID: w.File.ID}
	}

	switch {
	case w.Comment != nil:
		item.Comment = w.Comment.toModel()
	case w.FileComment != "":
		item.Comment = &model.Comment{ID: w.FileComment}
	}
	return item, nil
}

type wireProfile struct {
	Fields []*model.ProfileField `json:"fields"`
}
