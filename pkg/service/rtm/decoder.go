package rtm

import (
	"encoding/json"
	"sync/atomic"

	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/0xpablo/slackkit/pkg/domain/types"
	"github.com/0xpablo/slackkit/pkg/utils/clock"
	"github.com/m-mizutani/goerr/v2"
)

// Decoder turns raw frames into typed events. One decoder serves one
// session; its sequence counter never decreases.
type Decoder struct {
	clock clock.Clock
	seq   atomic.Uint64
}

type DecoderOption func(*Decoder)

func WithDecoderClock(c clock.Clock) DecoderOption {
	return func(d *Decoder) {
		d.clock = c
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{clock: clock.Real{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses frame. Errors wrap rtm.ErrDecode and either
// rtm.ErrMalformedFrame or rtm.ErrUnknownEventType; the returned frame
// carries the envelope even on error when the header could be read.
func (d *Decoder) Decode(frame string, generation uint64) (*rtm.Frame, error) {
	data := []byte(frame)

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, goerr.Wrap(rtm.ErrMalformedFrame, "frame is not a JSON object",
			goerr.V("cause", err.Error()),
			goerr.V("generation", generation))
	}

	out := &rtm.Frame{
		Envelope: rtm.Envelope{
			Type:       h.Type,
			Subtype:    h.Subtype,
			Seq:        d.seq.Add(1),
			Generation: generation,
			EventTS:    h.EventTS,
			ReceivedAt: d.clock.Now(),
		},
	}

	if h.ReplyTo != nil || h.Type == "pong" {
		out.Event = decodeAck(&h)
		return out, nil
	}

	if h.Type == "" {
		return out, goerr.Wrap(rtm.ErrMalformedFrame, "frame has no type",
			goerr.V("generation", generation))
	}

	decode, ok := decoders[h.Type]
	if !ok {
		return out, goerr.Wrap(rtm.ErrUnknownEventType, "unsupported event type",
			goerr.V("type", h.Type),
			goerr.V("generation", generation))
	}

	ev, err := decode(data, &h)
	if err != nil {
		return out, goerr.Wrap(rtm.ErrMalformedFrame, "failed to decode event payload",
			goerr.V("type", h.Type),
			goerr.V("subtype", h.Subtype),
			goerr.V("cause", err.Error()),
			goerr.V("generation", generation))
	}
	out.Event = ev
	return out, nil
}

func decodeAck(h *header) rtm.Ack {
	ack := rtm.Ack{
		Kind: rtm.AckMessage,
		TS:   h.TS,
		Text: h.Text,
		OK:   h.OK == nil || *h.OK,
	}
	if h.Type == "pong" {
		ack.Kind = rtm.AckPong
	}
	if h.ReplyTo != nil {
		ack.ReplyTo = *h.ReplyTo
	}
	if h.Error != nil {
		ack.OK = false
		ack.Error = &rtm.ServerError{Code: h.Error.Code, Msg: h.Error.Msg}
	}
	return ack
}

type decodeFunc func(data []byte, h *header) (rtm.Event, error)

func unmarshal[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

var decoders = map[string]decodeFunc{
	"hello":         func([]byte, *header) (rtm.Event, error) { return rtm.Hello{}, nil },
	"goodbye":       func([]byte, *header) (rtm.Event, error) { return rtm.Goodbye{}, nil },
	"error":         decodeServerError,
	"reconnect_url": decodeReconnectURL,

	"message":     decodeMessage,
	"user_typing": decodeUserTyping,

	"channel_marked": decodeChannelMarked,
	"im_marked":      decodeChannelMarked,
	"group_marked":   decodeChannelMarked,

	"channel_created": decodeChannelObject(func(ch *model.Channel) rtm.Event { return rtm.ChannelCreated{Channel: ch} }),
	"im_created":      decodeChannelObject(func(ch *model.Channel) rtm.Event { return rtm.ChannelCreated{Channel: ch} }),
	"channel_joined":  decodeChannelObject(func(ch *model.Channel) rtm.Event { return rtm.ChannelJoined{Channel: ch} }),
	"group_joined":    decodeChannelObject(func(ch *model.Channel) rtm.Event { return rtm.ChannelJoined{Channel: ch} }),

	"channel_deleted": decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelDeleted{Channel: id} }),
	"channel_left":    decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelLeft{Channel: id} }),
	"group_left":      decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelLeft{Channel: id} }),

	"channel_rename": decodeChannelRename,
	"group_rename":   decodeChannelRename,

	"channel_archive":   decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelArchived{Channel: id, Archived: true} }),
	"group_archive":     decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelArchived{Channel: id, Archived: true} }),
	"channel_unarchive": decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelArchived{Channel: id, Archived: false} }),
	"group_unarchive":   decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelArchived{Channel: id, Archived: false} }),

	"im_open":     decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelOpened{Channel: id, Open: true} }),
	"group_open":  decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelOpened{Channel: id, Open: true} }),
	"im_close":    decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelOpened{Channel: id, Open: false} }),
	"group_close": decodeChannelRef(func(id string) rtm.Event { return rtm.ChannelOpened{Channel: id, Open: false} }),

	"channel_history_changed": decodeNotice,
	"im_history_changed":      decodeNotice,
	"group_history_changed":   decodeNotice,
	"emoji_changed":           decodeNotice,
	"commands_changed":        decodeNotice,
	"accounts_changed":        decodeNotice,

	"dnd_updated":      decodeDND,
	"dnd_updated_user": decodeDND,

	"file_created":  decodeFilePosted,
	"file_shared":   decodeFilePosted,
	"file_unshared": decodeFilePosted,
	"file_public":   decodeFilePosted,
	"file_change":   decodeFilePosted,
	"file_private":  decodeFileRef(func(id string) rtm.Event { return rtm.FilePrivate{FileID: id} }),
	"file_deleted":  decodeFileRef(func(id string) rtm.Event { return rtm.FileDeleted{FileID: id} }),

	"file_comment_added":   decodeFileComment(rtm.CommentAdded),
	"file_comment_edited":  decodeFileComment(rtm.CommentEdited),
	"file_comment_deleted": decodeFileComment(rtm.CommentDeleted),

	"pin_added":        decodePin(true),
	"pin_removed":      decodePin(false),
	"star_added":       decodeStar(true),
	"star_removed":     decodeStar(false),
	"reaction_added":   decodeReaction(true),
	"reaction_removed": decodeReaction(false),

	"presence_change":        decodePresence,
	"manual_presence_change": decodeManualPresence,
	"pref_change":            decodePref,
	"user_change":            decodeUserObject(func(u *model.User) rtm.Event { return rtm.UserChanged{User: u} }),
	"team_join":              decodeUserObject(func(u *model.User) rtm.Event { return rtm.TeamJoined{User: u} }),

	"team_rename":          decodeTeamField(rtm.TeamName, "name"),
	"team_domain_change":   decodeTeamField(rtm.TeamDomain, "domain"),
	"email_domain_changed": decodeTeamField(rtm.TeamEmailDomain, "email_domain"),
	"team_plan_change":     decodeTeamField(rtm.TeamPlan, "plan"),
	"team_pref_change":     decodeTeamPref,
	"team_profile_change":  decodeTeamProfile(rtm.ProfileChanged),
	"team_profile_delete":  decodeTeamProfile(rtm.ProfileDeleted),
	"team_profile_reorder": decodeTeamProfile(rtm.ProfileReordered),
	"bot_added":            decodeBot,
	"bot_changed":          decodeBot,
	"subteam_created":      decodeSubteam,
	"subteam_updated":      decodeSubteam,
	"subteam_self_added":   decodeSubteamSelf(true),
	"subteam_self_removed": decodeSubteamSelf(false),
}

// SupportedTypes returns the number of wire types the decoder understands
func SupportedTypes() int { return len(decoders) }

func decodeServerError(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Error wireServerError `json:"error"`
	}](data)
	return rtm.ServerError{Code: w.Error.Code, Msg: w.Error.Msg}, err
}

func decodeReconnectURL(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		URL string `json:"url"`
	}](data)
	return rtm.ReconnectURL{URL: w.URL}, err
}

func decodeMessage(data []byte, h *header) (rtm.Event, error) {
	switch h.Subtype {
	case "message_changed":
		w, err := unmarshal[struct {
			Channel string       `json:"channel"`
			Message *wireMessage `json:"message"`
		}](data)
		if err != nil {
			return nil, err
		}
		msg := w.Message.toModel()
		if msg != nil && msg.Channel == "" {
			msg.Channel = w.Channel
		}
		return rtm.MessageChanged{Channel: w.Channel, Message: msg}, nil

	case "message_deleted":
		w, err := unmarshal[struct {
			Channel   string `json:"channel"`
			DeletedTS string `json:"deleted_ts"`
		}](data)
		return rtm.MessageDeleted{Channel: w.Channel, DeletedTS: w.DeletedTS}, err

	default:
		w, err := unmarshal[wireMessage](data)
		if err != nil {
			return nil, err
		}
		return rtm.MessageReceived{Message: w.toModel()}, nil
	}
}

func decodeUserTyping(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Channel string `json:"channel"`
		User    string `json:"user"`
	}](data)
	return rtm.UserTyping{Channel: w.Channel, User: w.User}, err
}

func decodeChannelMarked(data []byte, h *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Channel string `json:"channel"`
	}](data)
	return rtm.ChannelMarked{Channel: w.Channel, TS: h.TS}, err
}

func decodeChannelObject(build func(*model.Channel) rtm.Event) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			User    string `json:"user"`
			Channel ref    `json:"channel"`
		}](data)
		if err != nil {
			return nil, err
		}

		var ch *model.Channel
		switch {
		case w.Channel.isObject():
			ch = &model.Channel{}
			if err := json.Unmarshal(w.Channel.Raw, ch); err != nil {
				return nil, err
			}
		case w.Channel.ID != "":
			ch = &model.Channel{ID: w.Channel.ID}
		}
		// im_created names the counterpart outside the channel object
		if ch != nil && ch.User == "" && w.User != "" {
			ch.User = w.User
			ch.IsIM = true
		}
		return build(ch), nil
	}
}

func decodeChannelRef(build func(string) rtm.Event) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			Channel ref `json:"channel"`
		}](data)
		return build(w.Channel.ID), err
	}
}

func decodeChannelRename(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Channel struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"channel"`
	}](data)
	return rtm.ChannelRenamed{Channel: w.Channel.ID, Name: w.Channel.Name}, err
}

func decodeNotice(_ []byte, h *header) (rtm.Event, error) {
	return rtm.Notice{Type: h.Type}, nil
}

func decodeDND(data []byte, h *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		User string           `json:"user"`
		DND  *model.DNDStatus `json:"dnd_status"`
	}](data)
	if err != nil {
		return nil, err
	}
	if h.Type == "dnd_updated_user" {
		return rtm.DNDUpdatedUser{User: w.User, DND: w.DND}, nil
	}
	return rtm.DNDUpdated{DND: w.DND}, nil
}

func decodeFilePosted(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		FileID string `json:"file_id"`
		File   ref    `json:"file"`
	}](data)
	if err != nil {
		return nil, err
	}

	var f *model.File
	switch {
	case w.File.isObject():
		var wf wireFile
		if err := json.Unmarshal(w.File.Raw, &wf); err != nil {
			return nil, err
		}
		f = wf.toModel()
	case w.File.ID != "":
		f = &model.File{ID: w.File.ID}
	case w.FileID != "":
		f = &model.File{ID: w.FileID}
	}
	return rtm.FilePosted{File: f}, nil
}

func decodeFileRef(build func(string) rtm.Event) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			FileID string `json:"file_id"`
			File   ref    `json:"file"`
		}](data)
		id := w.File.ID
		if id == "" {
			id = w.FileID
		}
		return build(id), err
	}
}

func decodeFileComment(action rtm.CommentAction) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			FileID  string `json:"file_id"`
			File    ref    `json:"file"`
			Comment ref    `json:"comment"`
		}](data)
		if err != nil {
			return nil, err
		}

		ev := rtm.FileComment{Action: action, FileID: w.File.ID, CommentID: w.Comment.ID}
		if ev.FileID == "" {
			ev.FileID = w.FileID
		}
		if w.Comment.isObject() {
			var wc wireComment
			if err := json.Unmarshal(w.Comment.Raw, &wc); err != nil {
				return nil, err
			}
			ev.Comment = wc.toModel()
		}
		return ev, nil
	}
}

func decodePin(added bool) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			User      string   `json:"user"`
			ChannelID string   `json:"channel_id"`
			Item      wireItem `json:"item"`
		}](data)
		if err != nil {
			return nil, err
		}
		item, err := w.Item.toModel()
		if err != nil {
			return nil, err
		}
		return rtm.Pin{Added: added, Channel: w.ChannelID, User: w.User, Item: item}, nil
	}
}

func decodeStar(added bool) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			User string   `json:"user"`
			Item wireItem `json:"item"`
		}](data)
		if err != nil {
			return nil, err
		}
		item, err := w.Item.toModel()
		if err != nil {
			return nil, err
		}
		return rtm.Star{Added: added, User: w.User, Item: item}, nil
	}
}

func decodeReaction(added bool) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			User     string   `json:"user"`
			Reaction string   `json:"reaction"`
			ItemUser string   `json:"item_user"`
			Item     wireItem `json:"item"`
		}](data)
		if err != nil {
			return nil, err
		}
		item, err := w.Item.toModel()
		if err != nil {
			return nil, err
		}
		return rtm.Reaction{Added: added, User: w.User, Name: w.Reaction, ItemUser: w.ItemUser, Item: item}, nil
	}
}

func decodePresence(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		User     string         `json:"user"`
		Users    []string       `json:"users"`
		Presence types.Presence `json:"presence"`
	}](data)
	if err != nil {
		return nil, err
	}
	users := w.Users
	if w.User != "" {
		users = append([]string{w.User}, users...)
	}
	return rtm.PresenceChanged{Users: users, Presence: w.Presence}, nil
}

func decodeManualPresence(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Presence types.Presence `json:"presence"`
	}](data)
	return rtm.ManualPresenceChanged{Presence: w.Presence}, err
}

func decodePref(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}](data)
	return rtm.PrefChanged{Name: w.Name, Value: w.Value}, err
}

func decodeUserObject(build func(*model.User) rtm.Event) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			User *wireUser `json:"user"`
		}](data)
		if err != nil {
			return nil, err
		}
		return build(w.User.toModel()), nil
	}
}

func decodeTeamField(field rtm.TeamField, key string) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[map[string]json.RawMessage](data)
		if err != nil {
			return nil, err
		}
		var value string
		if raw, ok := w[key]; ok {
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, err
			}
		}
		return rtm.TeamChanged{Field: field, Value: value}, nil
	}
}

func decodeTeamPref(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}](data)
	return rtm.TeamChanged{Field: rtm.TeamPref, PrefName: w.Name, Value: w.Value}, err
}

func decodeTeamProfile(action rtm.ProfileAction) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			Profile wireProfile `json:"profile"`
		}](data)
		if err != nil {
			return nil, err
		}
		return rtm.TeamProfile{Action: action, Fields: w.Profile.Fields}, nil
	}
}

func decodeBot(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Bot *model.Bot `json:"bot"`
	}](data)
	return rtm.BotChanged{Bot: w.Bot}, err
}

func decodeSubteam(data []byte, _ *header) (rtm.Event, error) {
	w, err := unmarshal[struct {
		Subteam *model.UserGroup `json:"subteam"`
	}](data)
	return rtm.SubteamChanged{Group: w.Subteam}, err
}

func decodeSubteamSelf(added bool) decodeFunc {
	return func(data []byte, _ *header) (rtm.Event, error) {
		w, err := unmarshal[struct {
			SubteamID string `json:"subteam_id"`
		}](data)
		return rtm.SubteamSelf{Added: added, Subteam: w.SubteamID}, err
	}
}
