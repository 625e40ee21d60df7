package memory

import (
	"maps"
	"slices"

	"github.com/0xpablo/slackkit/pkg/domain/model"
)

// Store is the in-memory replica of one session. It is not safe for
// concurrent use: the owning session serializes every access.
type Store struct {
	self     string
	team     *model.Team
	users    map[string]*model.User
	channels map[string]*model.Channel
	files    map[string]*model.File
	bots     map[string]*model.Bot
	groups   map[string]*model.UserGroup
}

// New seeds a store from snapshot. The store takes ownership of the entities
// referenced by snapshot. A nil snapshot yields an empty store.
func New(snapshot *model.Snapshot) *Store {
	s := &Store{
		team:     &model.Team{},
		users:    make(map[string]*model.User),
		channels: make(map[string]*model.Channel),
		files:    make(map[string]*model.File),
		bots:     make(map[string]*model.Bot),
		groups:   make(map[string]*model.UserGroup),
	}
	if snapshot == nil {
		return s
	}

	s.self = snapshot.Self
	if snapshot.Team != nil {
		s.team = snapshot.Team
	}
	for _, u := range snapshot.Users {
		if u != nil && u.ID != "" {
			s.users[u.ID] = u
		}
	}
	for _, ch := range snapshot.Channels {
		if ch != nil && ch.ID != "" {
			// typing state never survives a snapshot
			ch.UsersTyping = nil
			s.channels[ch.ID] = ch
		}
	}
	for _, f := range snapshot.Files {
		if f != nil && f.ID != "" {
			s.files[f.ID] = f
		}
	}
	for _, b := range snapshot.Bots {
		if b != nil && b.ID != "" {
			s.bots[b.ID] = b
		}
	}
	for _, g := range snapshot.UserGroups {
		if g != nil && g.ID != "" {
			s.groups[g.ID] = g
		}
	}
	return s
}

// SelfID returns the ID of the authenticated user
func (s *Store) SelfID() string { return s.self }

// Self returns the authenticated user, or nil when the snapshot did not
// include it
func (s *Store) Self() *model.User { return s.users[s.self] }

func (s *Store) Team() *model.Team { return s.team }

func (s *Store) User(id string) *model.User { return s.users[id] }

func (s *Store) PutUser(u *model.User) { s.users[u.ID] = u }

// Users returns every known user ordered by ID
func (s *Store) Users() []*model.User {
	return sortedValues(s.users)
}

func (s *Store) Channel(id string) *model.Channel { return s.channels[id] }

func (s *Store) PutChannel(ch *model.Channel) { s.channels[ch.ID] = ch }

func (s *Store) DeleteChannel(id string) { delete(s.channels, id) }

// Channels returns every known channel ordered by ID
func (s *Store) Channels() []*model.Channel {
	return sortedValues(s.channels)
}

func (s *Store) File(id string) *model.File { return s.files[id] }

func (s *Store) PutFile(f *model.File) { s.files[f.ID] = f }

func (s *Store) DeleteFile(id string) { delete(s.files, id) }

func (s *Store) Bot(id string) *model.Bot { return s.bots[id] }

func (s *Store) PutBot(b *model.Bot) { s.bots[b.ID] = b }

func (s *Store) UserGroup(id string) *model.UserGroup { return s.groups[id] }

func (s *Store) PutUserGroup(g *model.UserGroup) { s.groups[g.ID] = g }

// Summary counts the entities held by the store
type Summary struct {
	Self       string `json:"self"`
	Team       string `json:"team"`
	Users      int    `json:"users"`
	Channels   int    `json:"channels"`
	Messages   int    `json:"messages"`
	Files      int    `json:"files"`
	Comments   int    `json:"comments"`
	Bots       int    `json:"bots"`
	UserGroups int    `json:"user_groups"`
	Typing     int    `json:"typing"`
}

func (s *Store) Summary() Summary {
	sum := Summary{
		Self:       s.self,
		Team:       s.team.Name,
		Users:      len(s.users),
		Channels:   len(s.channels),
		Files:      len(s.files),
		Bots:       len(s.bots),
		UserGroups: len(s.groups),
	}
	for _, ch := range s.channels {
		sum.Messages += len(ch.Messages)
		sum.Typing += len(ch.UsersTyping)
	}
	for _, f := range s.files {
		sum.Comments += len(f.Comments)
	}
	return sum
}

// Snapshot exports the current replica. The returned snapshot shares entities
// with the store and must only be read while the store is not being mutated.
func (s *Store) Snapshot() *model.Snapshot {
	return &model.Snapshot{
		Self:       s.self,
		Team:       s.team,
		Users:      s.Users(),
		Channels:   s.Channels(),
		Files:      sortedValues(s.files),
		Bots:       sortedValues(s.bots),
		UserGroups: sortedValues(s.groups),
	}
}

func sortedValues[T any](m map[string]*T) []*T {
	keys := slices.Sorted(maps.Keys(m))
	values := make([]*T, 0, len(keys))
	for _, k := range keys {
		values = append(values, m[k])
	}
	return values
}
