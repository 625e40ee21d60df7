package slack

import (
	"context"

	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

const defaultPageSize = 200

// DefaultConversationTypes are the conversation kinds seeded into a snapshot
var DefaultConversationTypes = []string{"public_channel", "private_channel", "mpim", "im"}

// Client fetches what a session needs before dialing: the RTM URL from
// rtm.connect and a snapshot assembled from the Web API
type Client struct {
	api        *slack.Client
	apiURL     string
	convTypes  []string
	members    bool
	userGroups bool
}

// Option is a functional option for client configuration
type Option func(*Client)

// WithAPIURL points the client at a different Web API endpoint. The URL
// must end with a slash.
func WithAPIURL(url string) Option {
	return func(c *Client) {
		c.apiURL = url
	}
}

// WithConversationTypes limits which conversations are listed
func WithConversationTypes(kinds ...string) Option {
	return func(c *Client) {
		c.convTypes = kinds
	}
}

// WithMembers fetches the member list of every conversation the
// authenticated user belongs to
func WithMembers(enabled bool) Option {
	return func(c *Client) {
		c.members = enabled
	}
}

// WithUserGroups includes user groups in the snapshot. Requires the
// usergroups:read scope.
func WithUserGroups(enabled bool) Option {
	return func(c *Client) {
		c.userGroups = enabled
	}
}

// New creates a new Slack client with the provided token
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, goerr.New("Slack token is required")
	}

	c := &Client{
		convTypes: DefaultConversationTypes,
		members:   true,
	}
	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []slack.Option
	if c.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(c.apiURL))
	}
	c.api = slack.New(token, apiOpts...)

	return c, nil
}

// Bootstrap calls rtm.connect and assembles the snapshot the replica is
// seeded with. Each call yields a new single-use websocket URL.
func (c *Client) Bootstrap(ctx context.Context) (*model.Bootstrap, error) {
	info, url, err := c.api.ConnectRTMContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call rtm.connect")
	}
	if info == nil || info.User == nil {
		return nil, goerr.New("rtm.connect returned no identity")
	}

	snapshot := &model.Snapshot{Self: info.User.ID}
	if info.Team != nil {
		snapshot.Team = &model.Team{ID: info.Team.ID, Name: info.Team.Name, Domain: info.Team.Domain}
	}

	// team.info needs team:read; rtm.connect already names the team
	if team, err := c.api.GetTeamInfoContext(ctx); err != nil {
		logging.From(ctx).Warn("failed to get team info, using rtm.connect team", "error", err.Error())
	} else {
		snapshot.Team = toTeam(team)
	}
	if snapshot.Team == nil {
		return nil, goerr.New("no team information available")
	}

	if snapshot.Users, err = c.listUsers(ctx); err != nil {
		return nil, err
	}
	if snapshot.Channels, err = c.listChannels(ctx, snapshot.Self); err != nil {
		return nil, err
	}
	if c.userGroups {
		if snapshot.UserGroups, err = c.listUserGroups(ctx); err != nil {
			return nil, err
		}
	}

	logging.From(ctx).Info("bootstrapped snapshot",
		"team_id", snapshot.Team.ID,
		"self", snapshot.Self,
		"users", len(snapshot.Users),
		"channels", len(snapshot.Channels),
		"user_groups", len(snapshot.UserGroups),
	)

	return &model.Bootstrap{URL: url, Snapshot: snapshot}, nil
}

func (c *Client) listUsers(ctx context.Context) ([]*model.User, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	result := make([]*model.User, 0, len(users))
	for i := range users {
		result = append(result, toUser(&users[i]))
	}
	return result, nil
}

func (c *Client) listChannels(ctx context.Context, self string) ([]*model.Channel, error) {
	var channels []*model.Channel
	var cursor string

	for {
		params := &slack.GetConversationsParameters{
			Types:  c.convTypes,
			Limit:  defaultPageSize,
			Cursor: cursor,
		}

		convs, nextCursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get conversations", goerr.V("cursor", cursor))
		}

		for i := range convs {
			ch := toChannel(&convs[i])
			if c.members && (ch.IsMember || ch.IsIM) {
				members, err := c.listMembers(ctx, ch.ID)
				if err != nil {
					return nil, err
				}
				ch.Members = members
			} else if ch.IsMember && self != "" {
				ch.Members = []string{self}
			}
			channels = append(channels, ch)
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return channels, nil
}

func (c *Client) listMembers(ctx context.Context, channelID string) ([]string, error) {
	var members []string
	var cursor string

	for {
		ids, nextCursor, err := c.api.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     defaultPageSize,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get conversation members", goerr.V("channel_id", channelID))
		}
		members = append(members, ids...)

		if nextCursor == "" {
			return members, nil
		}
		cursor = nextCursor
	}
}

func (c *Client) listUserGroups(ctx context.Context) ([]*model.UserGroup, error) {
	groups, err := c.api.GetUserGroupsContext(ctx, slack.GetUserGroupsOptionIncludeUsers(true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list user groups")
	}

	result := make([]*model.UserGroup, 0, len(groups))
	for i := range groups {
		result = append(result, toUserGroup(&groups[i]))
	}
	return result, nil
}
