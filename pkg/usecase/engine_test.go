package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/domain/model/rtm"
	"github.com/0xpablo/slackkit/pkg/domain/types"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/service/worker"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/0xpablo/slackkit/pkg/utils/clock"
	"github.com/m-mizutani/gt"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Self: "U1",
		Team: &model.Team{ID: "T1", Name: "acme", Domain: "acme"},
		Users: []*model.User{
			{ID: "U1", Name: "alice", Presence: types.PresenceActive},
			{ID: "U2", Name: "bob", Presence: types.PresenceAway, Profile: &model.Profile{}},
			{ID: "U3", Name: "carol"},
		},
		Channels: []*model.Channel{
			{
				ID:        "C1",
				Name:      "general",
				IsChannel: true,
				IsMember:  true,
				Members:   []string{"U1", "U2"},
				Messages: map[string]*model.Message{
					"1.0": {Type: "message", Channel: "C1", User: "U2", Text: "hi", TS: "1.0"},
				},
			},
			{ID: "C2", Name: "random", IsChannel: true, Members: []string{"U2"}},
		},
		Files: []*model.File{
			{
				ID:   "F1",
				Name: "a.txt",
				Comments: map[string]*model.Comment{
					"Fc1": {ID: "Fc1", User: "U2", Comment: "nice"},
				},
			},
		},
	}
}

type engineFixture struct {
	engine *usecase.Engine
	typing *worker.TypingExpiry
	clock  *clock.Fake
	store  *memory.Store

	expired []*model.Change
}

func newEngine(t *testing.T) *engineFixture {
	t.Helper()
	return newEngineFrom(t, newSnapshot())
}

func newEngineFrom(t *testing.T, snapshot *model.Snapshot) *engineFixture {
	t.Helper()
	f := &engineFixture{clock: clock.NewFake(epoch)}
	f.typing = worker.NewTypingExpiry(func(key worker.TypingKey, token uint64) {
		if ch := f.engine.ExpireTyping(key, token); ch != nil {
			f.expired = append(f.expired, ch)
		}
	}, worker.WithClock(f.clock))
	f.store = memory.New(snapshot)
	f.engine = usecase.NewEngine(f.store, f.typing, nil)
	t.Cleanup(f.typing.Stop)
	return f
}

func (f *engineFixture) apply(t *testing.T, ev rtm.Event) *model.Change {
	t.Helper()
	change, err := f.engine.Apply(context.Background(), ev)
	gt.NoError(t, err).Required()
	return change
}

func (f *engineFixture) skip(t *testing.T, ev rtm.Event) {
	t.Helper()
	before := dump(t, f.store)
	_, err := f.engine.Apply(context.Background(), ev)
	gt.Error(t, err).Is(usecase.ErrReferenceMissing)
	gt.Value(t, dump(t, f.store)).Equal(before)
}

func dump(t *testing.T, store *memory.Store) string {
	t.Helper()
	raw, err := json.Marshal(store.Snapshot())
	gt.NoError(t, err).Required()
	return string(raw)
}

func TestEngineMessages(t *testing.T) {
	t.Run("received", func(t *testing.T) {
		f := newEngine(t)
		change := f.apply(t, rtm.MessageReceived{Message: &model.Message{Channel: "C1", User: "U2", Text: "yo", TS: "2.0"}})
		gt.Value(t, *change).Equal(model.Change{Kind: model.ChangeMessage, ID: "C1", Sub: "2.0"})
		gt.Value(t, f.store.Channel("C1").Message("2.0").Text).Equal("yo")
	})

	t.Run("unknown channel is skipped", func(t *testing.T) {
		f := newEngine(t)
		f.skip(t, rtm.MessageReceived{Message: &model.Message{Channel: "C9", TS: "2.0"}})
	})

	t.Run("edit then delete", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.MessageChanged{Channel: "C1", Message: &model.Message{User: "U2", Text: "hello", TS: "1.0"}})
		gt.Value(t, f.store.Channel("C1").Message("1.0").Text).Equal("hello")

		f.apply(t, rtm.MessageDeleted{Channel: "C1", DeletedTS: "1.0"})
		gt.Value(t, f.store.Channel("C1").Message("1.0")).Nil()

		// a second delete finds nothing
		f.skip(t, rtm.MessageDeleted{Channel: "C1", DeletedTS: "1.0"})
	})

	t.Run("edit of a message in an unknown channel", func(t *testing.T) {
		f := newEngine(t)
		f.skip(t, rtm.MessageChanged{Channel: "C9", Message: &model.Message{TS: "1.0", Text: "x"}})
	})
}

func TestEngineAck(t *testing.T) {
	t.Run("ok moves pending message into channel", func(t *testing.T) {
		f := newEngine(t)
		f.engine.Pending().AddMessage(&usecase.PendingMessage{ID: 7, Channel: "C1", Text: "draft"})

		change := f.apply(t, rtm.Ack{Kind: rtm.AckMessage, ReplyTo: 7, OK: true, TS: "3.0"})
		gt.Value(t, *change).Equal(model.Change{Kind: model.ChangeMessage, ID: "C1", Sub: "3.0"})

		msg := f.store.Channel("C1").Message("3.0")
		gt.Value(t, msg).NotNil().Required()
		gt.Value(t, msg.Text).Equal("draft")
		gt.Value(t, msg.User).Equal("U1")
		gt.Number(t, f.engine.Pending().Len()).Equal(0)
	})

	t.Run("rejected ack only drops the entry", func(t *testing.T) {
		f := newEngine(t)
		f.engine.Pending().AddMessage(&usecase.PendingMessage{ID: 8, Channel: "C1", Text: "draft"})

		change := f.apply(t, rtm.Ack{Kind: rtm.AckMessage, ReplyTo: 8, OK: false})
		gt.Value(t, change).Nil()
		gt.Number(t, len(f.store.Channel("C1").Messages)).Equal(1)
		gt.Number(t, f.engine.Pending().Len()).Equal(0)
	})

	t.Run("unknown correlation id", func(t *testing.T) {
		f := newEngine(t)
		f.skip(t, rtm.Ack{Kind: rtm.AckMessage, ReplyTo: 99, OK: true, TS: "3.0"})
	})
}

func TestEngineTyping(t *testing.T) {
	t.Run("expires after timeout", func(t *testing.T) {
		f := newEngine(t)
		change := f.apply(t, rtm.UserTyping{Channel: "C1", User: "U2"})
		gt.Value(t, change).NotNil()
		gt.Bool(t, f.store.Channel("C1").IsTyping("U2")).True()

		f.clock.Advance(4 * time.Second)
		gt.Bool(t, f.store.Channel("C1").IsTyping("U2")).True()

		f.clock.Advance(time.Second)
		gt.Bool(t, f.store.Channel("C1").IsTyping("U2")).False()
		gt.Array(t, f.expired).Length(1)
		gt.Number(t, f.typing.Pending()).Equal(0)
	})

	t.Run("repeat typing pushes expiry out", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.UserTyping{Channel: "C1", User: "U2"})
		f.clock.Advance(3 * time.Second)

		change := f.apply(t, rtm.UserTyping{Channel: "C1", User: "U2"})
		gt.Value(t, change).Nil()

		f.clock.Advance(3 * time.Second)
		gt.Bool(t, f.store.Channel("C1").IsTyping("U2")).True()
		gt.Array(t, f.store.Channel("C1").UsersTyping).Length(1)

		f.clock.Advance(2 * time.Second)
		gt.Bool(t, f.store.Channel("C1").IsTyping("U2")).False()
		gt.Array(t, f.expired).Length(1)
	})

	t.Run("message stops typing", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.UserTyping{Channel: "C1", User: "U2"})
		f.apply(t, rtm.MessageReceived{Message: &model.Message{Channel: "C1", User: "U2", TS: "2.0"}})

		gt.Bool(t, f.store.Channel("C1").IsTyping("U2")).False()
		gt.Number(t, f.typing.Pending()).Equal(0)

		f.clock.Advance(10 * time.Second)
		gt.Array(t, f.expired).Length(0)
	})

	t.Run("channel delete cancels timers", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.UserTyping{Channel: "C1", User: "U2"})
		f.apply(t, rtm.UserTyping{Channel: "C1", User: "U3"})
		f.apply(t, rtm.ChannelDeleted{Channel: "C1"})

		gt.Number(t, f.typing.Pending()).Equal(0)
		f.clock.Advance(10 * time.Second)
		gt.Array(t, f.expired).Length(0)
	})
}

func TestEngineChannels(t *testing.T) {
	t.Run("delete then create is a fresh channel", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ChannelDeleted{Channel: "C1"})
		gt.Value(t, f.store.Channel("C1")).Nil()

		// deleting twice is fine
		f.apply(t, rtm.ChannelDeleted{Channel: "C1"})

		f.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C1", Name: "general-2"}})
		ch := f.store.Channel("C1")
		gt.Value(t, ch).NotNil().Required()
		gt.Value(t, ch.Name).Equal("general-2")
		gt.Number(t, len(ch.Messages)).Equal(0)
	})

	t.Run("create of existing channel keeps history", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C1", Name: "general"}})
		f.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C1", Name: "general"}})

		ch := f.store.Channel("C1")
		gt.Value(t, ch.Message("1.0")).NotNil()
		gt.Number(t, len(f.store.Channels())).Equal(2)
	})

	t.Run("join marks membership", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ChannelJoined{Channel: &model.Channel{ID: "C2", Name: "random", Members: []string{"U1", "U2"}}})
		gt.Bool(t, f.store.Channel("C2").IsMember).True()
	})

	t.Run("leave requires membership", func(t *testing.T) {
		f := newEngine(t)
		f.skip(t, rtm.ChannelLeft{Channel: "C2"})

		f.apply(t, rtm.ChannelLeft{Channel: "C1"})
		ch := f.store.Channel("C1")
		gt.Bool(t, ch.HasMember("U1")).False()
		gt.Bool(t, ch.IsMember).False()
	})

	t.Run("rename archive open marked", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ChannelRenamed{Channel: "C1", Name: "town-square"})
		f.apply(t, rtm.ChannelArchived{Channel: "C1", Archived: true})
		f.apply(t, rtm.ChannelOpened{Channel: "C1", Open: true})
		f.apply(t, rtm.ChannelMarked{Channel: "C1", TS: "1.0"})

		ch := f.store.Channel("C1")
		gt.Value(t, ch.Name).Equal("town-square")
		gt.Bool(t, ch.IsArchived).True()
		gt.Bool(t, ch.IsOpen).True()
		gt.Value(t, ch.LastRead).Equal("1.0")
	})

	t.Run("pins", func(t *testing.T) {
		f := newEngine(t)
		item := model.Item{Type: types.ItemTypeMessage, Channel: "C1", TS: "1.0"}
		other := model.Item{Type: types.ItemTypeFile, File: &model.File{ID: "F1"}}
		f.apply(t, rtm.Pin{Added: true, Channel: "C1", User: "U2", Item: item})
		f.apply(t, rtm.Pin{Added: true, Channel: "C1", User: "U2", Item: item})
		f.apply(t, rtm.Pin{Added: true, Channel: "C1", User: "U2", Item: other})
		gt.Array(t, f.store.Channel("C1").Pinned).Length(3)

		// one removal drops every entry for the same item
		f.apply(t, rtm.Pin{Added: false, Channel: "C1", User: "U2", Item: item})
		pinned := f.store.Channel("C1").Pinned
		gt.Array(t, pinned).Length(1).Required()
		gt.Value(t, pinned[0].Type).Equal(types.ItemTypeFile)

		f.skip(t, rtm.Pin{Added: true, Channel: "C9", User: "U2", Item: item})
	})
}

func TestEngineFiles(t *testing.T) {
	t.Run("star count never goes negative", func(t *testing.T) {
		f := newEngine(t)
		item := model.Item{Type: types.ItemTypeFile, File: &model.File{ID: "F1"}}

		f.apply(t, rtm.Star{Added: false, User: "U1", Item: item})
		gt.Number(t, f.store.File("F1").Stars).Equal(0)

		f.apply(t, rtm.Star{Added: true, User: "U1", Item: item})
		f.apply(t, rtm.Star{Added: true, User: "U2", Item: item})
		gt.Number(t, f.store.File("F1").Stars).Equal(2)
		gt.Bool(t, f.store.File("F1").IsStarred).True()

		f.apply(t, rtm.Star{Added: false, User: "U2", Item: item})
		gt.Number(t, f.store.File("F1").Stars).Equal(1)
	})

	t.Run("posted keeps comments", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.FilePosted{File: &model.File{
			ID:             "F1",
			Name:           "b.txt",
			InitialComment: &model.Comment{ID: "Fc2", Comment: "first"},
		}})

		file := f.store.File("F1")
		gt.Value(t, file.Name).Equal("b.txt")
		gt.Map(t, file.Comments).HasKey("Fc1")
		gt.Map(t, file.Comments).HasKey("Fc2")
	})

	t.Run("reference payload on known file is a no-op", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.FilePosted{File: &model.File{ID: "F1"}})
		gt.Value(t, f.store.File("F1").Name).Equal("a.txt")
	})

	t.Run("comments", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.FileComment{Action: rtm.CommentAdded, FileID: "F1", Comment: &model.Comment{ID: "Fc3", Comment: "ok"}})
		f.apply(t, rtm.FileComment{Action: rtm.CommentEdited, FileID: "F1", Comment: &model.Comment{ID: "Fc3", Comment: "okay"}})
		gt.Value(t, f.store.File("F1").Comment("Fc3").Comment).Equal("okay")

		f.apply(t, rtm.FileComment{Action: rtm.CommentDeleted, FileID: "F1", CommentID: "Fc3"})
		gt.Map(t, f.store.File("F1").Comments).NotHasKey("Fc3")

		f.skip(t, rtm.FileComment{Action: rtm.CommentEdited, FileID: "F1", Comment: &model.Comment{ID: "Fc3", Comment: "again"}})
		f.skip(t, rtm.FileComment{Action: rtm.CommentAdded, FileID: "F9", Comment: &model.Comment{ID: "Fc4", Comment: "x"}})
	})

	t.Run("private and deleted", func(t *testing.T) {
		f := newEngine(t)
		f.store.File("F1").IsPublic = true
		f.apply(t, rtm.FilePrivate{FileID: "F1"})
		gt.Bool(t, f.store.File("F1").IsPublic).False()

		f.apply(t, rtm.FileDeleted{FileID: "F1"})
		f.apply(t, rtm.FileDeleted{FileID: "F1"})
		gt.Value(t, f.store.File("F1")).Nil()
	})
}

func TestEngineStars(t *testing.T) {
	message := model.Item{Type: types.ItemTypeMessage, Channel: "C1", TS: "1.0"}
	file := model.Item{Type: types.ItemTypeFile, File: &model.File{ID: "F1"}}
	comment := model.Item{Type: types.ItemTypeFileComment, File: &model.File{ID: "F1"}, Comment: &model.Comment{ID: "Fc1", User: "U2", Comment: "nice"}}

	starred := map[types.ItemType]func(store *memory.Store) bool{
		types.ItemTypeMessage:     func(store *memory.Store) bool { return store.Channel("C1").Message("1.0").IsStarred },
		types.ItemTypeFile:        func(store *memory.Store) bool { return store.File("F1").IsStarred },
		types.ItemTypeFileComment: func(store *memory.Store) bool { return store.File("F1").Comment("Fc1").IsStarred },
	}

	testCases := map[string]struct {
		item    model.Item
		missing model.Item
	}{
		"message": {
			item:    message,
			missing: model.Item{Type: types.ItemTypeMessage, Channel: "C1", TS: "9.0"},
		},
		"file": {
			item:    file,
			missing: model.Item{Type: types.ItemTypeFile, File: &model.File{ID: "F9"}},
		},
		"file comment": {
			item:    comment,
			missing: model.Item{Type: types.ItemTypeFileComment, File: &model.File{ID: "F9"}, Comment: &model.Comment{ID: "Fc1"}},
		},
	}

	for name, tc := range testCases {
		t.Run(name+" added", func(t *testing.T) {
			f := newEngine(t)
			f.apply(t, rtm.Star{Added: true, User: "U1", Item: tc.item})
			gt.Bool(t, starred[tc.item.Type](f.store)).True()
		})

		t.Run(name+" removed", func(t *testing.T) {
			f := newEngine(t)
			f.apply(t, rtm.Star{Added: true, User: "U1", Item: tc.item})
			f.apply(t, rtm.Star{Added: false, User: "U1", Item: tc.item})
			gt.Bool(t, starred[tc.item.Type](f.store)).False()
		})

		t.Run(name+" missing reference", func(t *testing.T) {
			f := newEngine(t)
			f.skip(t, rtm.Star{Added: true, User: "U1", Item: tc.missing})
		})
	}

	t.Run("comment star keeps the comment", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.Star{Added: true, User: "U1", Item: comment})
		c := f.store.File("F1").Comment("Fc1")
		gt.Value(t, c.Comment).Equal("nice")
		gt.Number(t, len(f.store.File("F1").Comments)).Equal(1)
	})
}

func TestEngineReactions(t *testing.T) {
	f := newEngine(t)
	item := model.Item{Type: types.ItemTypeMessage, Channel: "C1", TS: "1.0"}

	f.apply(t, rtm.Reaction{Added: true, User: "U1", Name: "+1", Item: item})
	f.apply(t, rtm.Reaction{Added: true, User: "U2", Name: "+1", Item: item})
	gt.Array(t, f.store.Channel("C1").Message("1.0").Reactions).Length(2)

	f.apply(t, rtm.Reaction{Added: false, User: "U1", Name: "+1", Item: item})
	gt.Array(t, f.store.Channel("C1").Message("1.0").Reactions).Equal([]model.Reaction{{Name: "+1", User: "U2"}})

	f.apply(t, rtm.Reaction{Added: false, User: "U2", Name: "+1", Item: item})
	gt.Array(t, f.store.Channel("C1").Message("1.0").Reactions).Length(0)

	f.skip(t, rtm.Reaction{Added: true, User: "U1", Name: "+1", Item: model.Item{Type: types.ItemTypeMessage, Channel: "C1", TS: "9.0"}})

	comment := model.Item{Type: types.ItemTypeFileComment, File: &model.File{ID: "F1"}, Comment: &model.Comment{ID: "Fc1"}}
	f.apply(t, rtm.Reaction{Added: true, User: "U1", Name: "eyes", Item: comment})
	gt.Array(t, f.store.File("F1").Comment("Fc1").Reactions).Length(1)
}

func TestEngineUsers(t *testing.T) {
	t.Run("presence batch is all or nothing", func(t *testing.T) {
		f := newEngine(t)
		f.skip(t, rtm.PresenceChanged{Users: []string{"U2", "U9"}, Presence: types.PresenceActive})

		f.apply(t, rtm.PresenceChanged{Users: []string{"U2", "U3"}, Presence: types.PresenceActive})
		gt.Value(t, f.store.User("U2").Presence).Equal(types.PresenceActive)
		gt.Value(t, f.store.User("U3").Presence).Equal(types.PresenceActive)
	})

	t.Run("manual presence and prefs apply to self", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ManualPresenceChanged{Presence: types.PresenceAway})
		f.apply(t, rtm.PrefChanged{Name: "theme", Value: "dark"})

		self := f.store.Self()
		gt.Value(t, self.Presence).Equal(types.PresenceAway)
		gt.Value(t, self.Prefs["theme"]).Equal(any("dark"))
	})

	t.Run("user change keeps client state", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.DNDUpdatedUser{User: "U2", DND: &model.DNDStatus{Enabled: true}})
		f.apply(t, rtm.UserChanged{User: &model.User{ID: "U2", Name: "robert"}})

		u := f.store.User("U2")
		gt.Value(t, u.Name).Equal("robert")
		gt.Value(t, u.Presence).Equal(types.PresenceAway)
		gt.Value(t, u.DND).NotNil()
	})

	t.Run("dnd on self", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.DNDUpdated{DND: &model.DNDStatus{Enabled: true}})
		gt.Value(t, f.store.Self().DND).NotNil().Required()
		gt.Bool(t, f.store.Self().DND.Enabled).True()
		gt.Value(t, f.store.User("U2").DND).Nil()
	})

	t.Run("dnd on self without self user", func(t *testing.T) {
		snapshot := newSnapshot()
		snapshot.Users = snapshot.Users[1:]
		f := newEngineFrom(t, snapshot)
		f.skip(t, rtm.DNDUpdated{DND: &model.DNDStatus{Enabled: true}})
	})

	t.Run("team join adds user", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.TeamJoined{User: &model.User{ID: "U4", Name: "dave"}})
		gt.Value(t, f.store.User("U4")).NotNil()
	})

	t.Run("subteam self", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.SubteamSelf{Added: true, Subteam: "S1"})
		gt.Map(t, f.store.Self().UserGroups).HasKey("S1")

		f.apply(t, rtm.SubteamSelf{Added: false, Subteam: "S1"})
		gt.Map(t, f.store.Self().UserGroups).NotHasKey("S1")
	})
}

func TestEngineTeam(t *testing.T) {
	t.Run("fields and prefs", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.TeamChanged{Field: rtm.TeamName, Value: "Acme Inc"})
		f.apply(t, rtm.TeamChanged{Field: rtm.TeamPref, PrefName: "retention", Value: float64(30)})
		gt.Value(t, f.store.Team().Name).Equal("Acme Inc")
		gt.Value(t, f.store.Team().Prefs["retention"]).Equal(any(float64(30)))
	})

	t.Run("profile field added to users with a profile", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.TeamProfile{Action: rtm.ProfileChanged, Fields: []*model.ProfileField{{ID: "Xf1", Label: "Pronouns"}}})
		gt.Map(t, f.store.User("U2").Profile.Fields).HasKey("Xf1")
		gt.Value(t, f.store.User("U3").Profile).Nil()
	})

	t.Run("profile delete removes only the first field", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.TeamProfile{Action: rtm.ProfileChanged, Fields: []*model.ProfileField{{ID: "Xf1"}, {ID: "Xf2"}}})
		f.apply(t, rtm.TeamProfile{Action: rtm.ProfileDeleted, Fields: []*model.ProfileField{{ID: "Xf1"}, {ID: "Xf2"}}})

		fields := f.store.User("U2").Profile.Fields
		gt.Map(t, fields).NotHasKey("Xf1")
		gt.Map(t, fields).HasKey("Xf2")
	})

	t.Run("profile reorder", func(t *testing.T) {
		snapshot := newSnapshot()
		snapshot.Users[2].Profile = &model.Profile{}
		f := newEngineFrom(t, snapshot)
		f.apply(t, rtm.TeamProfile{Action: rtm.ProfileChanged, Fields: []*model.ProfileField{{ID: "Xf1"}, {ID: "Xf2"}}})

		first, second := 1, 0
		f.apply(t, rtm.TeamProfile{Action: rtm.ProfileReordered, Fields: []*model.ProfileField{
			{ID: "Xf1", Ordering: &first},
			{ID: "Xf2", Ordering: &second},
		}})

		for _, id := range []string{"U2", "U3"} {
			fields := f.store.User(id).Profile.Fields
			gt.Value(t, fields["Xf1"].Ordering).NotNil().Required()
			gt.Value(t, fields["Xf2"].Ordering).NotNil().Required()
			gt.Number(t, *fields["Xf1"].Ordering).Equal(1)
			gt.Number(t, *fields["Xf2"].Ordering).Equal(0)
		}
		gt.Value(t, f.store.User("U1").Profile).Nil()
	})

	t.Run("profile event without fields", func(t *testing.T) {
		f := newEngine(t)
		f.skip(t, rtm.TeamProfile{Action: rtm.ProfileDeleted})
	})

	t.Run("bots and subteams", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.BotChanged{Bot: &model.Bot{ID: "B1", Name: "deploy"}})
		gt.Value(t, f.store.Bot("B1")).NotNil()

		f.apply(t, rtm.SubteamChanged{Group: &model.UserGroup{ID: "S1", Handle: "oncall"}})
		gt.Value(t, f.store.UserGroup("S1").Handle).Equal("oncall")
	})
}

func TestEngineOutOfOrder(t *testing.T) {
	f := newEngine(t)

	// the edit arrives before the channel exists and is dropped
	f.skip(t, rtm.MessageChanged{Channel: "C5", Message: &model.Message{TS: "1.0", Text: "late"}})

	f.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C5", Name: "new"}})
	f.apply(t, rtm.MessageReceived{Message: &model.Message{Channel: "C5", TS: "1.0", Text: "first"}})
	gt.Value(t, f.store.Channel("C5").Message("1.0").Text).Equal("first")
}

func TestEngineScenarios(t *testing.T) {
	t.Run("create receive delete leaves no message", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C7"}})
		f.apply(t, rtm.MessageReceived{Message: &model.Message{Channel: "C7", TS: "100.1", Text: "x"}})
		f.apply(t, rtm.MessageDeleted{Channel: "C7", DeletedTS: "100.1"})
		gt.Map(t, f.store.Channel("C7").Messages).NotHasKey("100.1")
	})

	t.Run("create twice equals create once", func(t *testing.T) {
		once := newEngine(t)
		once.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C7", Name: "x"}})

		twice := newEngine(t)
		twice.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C7", Name: "x"}})
		twice.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C7", Name: "x"}})

		gt.Value(t, dump(t, twice.store)).Equal(dump(t, once.store))
	})

	t.Run("edit replaces text", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C7"}})
		f.apply(t, rtm.MessageReceived{Message: &model.Message{Channel: "C7", TS: "100.1", Text: "orig"}})
		f.apply(t, rtm.MessageChanged{Channel: "C7", Message: &model.Message{TS: "100.1", Text: "edited"}})

		ch := f.store.Channel("C7")
		gt.Number(t, len(ch.Messages)).Equal(1)
		gt.Value(t, ch.Message("100.1").Text).Equal("edited")
	})

	t.Run("reaction add then remove", func(t *testing.T) {
		f := newEngine(t)
		f.apply(t, rtm.ChannelCreated{Channel: &model.Channel{ID: "C7"}})
		f.apply(t, rtm.MessageReceived{Message: &model.Message{Channel: "C7", TS: "100.1"}})

		item := model.Item{Type: types.ItemTypeMessage, Channel: "C7", TS: "100.1"}
		f.apply(t, rtm.Reaction{Added: true, User: "U1", Name: "thumbsup", Item: item})
		f.apply(t, rtm.Reaction{Added: false, User: "U1", Name: "thumbsup", Item: item})
		gt.Array(t, f.store.Channel("C7").Message("100.1").Reactions).Length(0)
	})

	t.Run("star count equals adds minus removes clamped", func(t *testing.T) {
		seq := []bool{false, true, true, false, false, false, true}
		f := newEngine(t)
		item := model.Item{Type: types.ItemTypeFile, File: &model.File{ID: "F1"}}

		want := 0
		for _, added := range seq {
			f.apply(t, rtm.Star{Added: added, User: "U1", Item: item})
			if added {
				want++
			} else if want > 0 {
				want--
			}
			gt.Number(t, f.store.File("F1").Stars).Equal(want)
		}
	})
}
