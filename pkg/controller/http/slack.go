package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/0xpablo/slackkit/pkg/domain/model"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/0xpablo/slackkit/pkg/utils/async"
	"github.com/0xpablo/slackkit/pkg/utils/errutil"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/0xpablo/slackkit/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// maxClockSkew bounds how old a signed request may be
const maxClockSkew = 5 * time.Minute

// verifySlackSignature verifies the Slack request signature
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}
	if signature == "" {
		return goerr.New("missing signature")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}
	if skew := now.Sub(time.Unix(ts, 0)); skew > maxClockSkew || skew < -maxClockSkew {
		return goerr.New("timestamp out of range", goerr.V("timestamp", timestamp), goerr.V("now", now.Unix()))
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := fmt.Fprintf(mac, "v0:%s:%s", timestamp, body); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return goerr.New("signature mismatch")
	}
	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request
// signatures and restores the body for the next handler
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			if err := r.Body.Close(); err != nil {
				logging.From(ctx).Error("failed to close request body", "error", err)
			}

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body, time.Now()); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// event handles Events API requests. Callback events are applied to the
// replica before responding so that their order is kept.
func (s *Server) event(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	// the inner event is decoded by the replica; slackevents.ParseEvent
	// would reject inner types it has no struct for
	var outer struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch outer.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		var cb slackevents.EventsAPICallbackEvent
		if err := json.Unmarshal(body, &cb); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal callback"), http.StatusBadRequest)
			return
		}
		if cb.InnerEvent == nil {
			errutil.HandleHTTP(ctx, w, goerr.New("callback has no inner event"), http.StatusBadRequest)
			return
		}

		logger := logging.From(ctx).With("event_id", cb.EventID, "team_id", cb.TeamID)
		if err := s.replica.Ingest(ctx, *cb.InnerEvent); err != nil {
			if !errors.Is(err, usecase.ErrNotConnected) {
				errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
				return
			}
			logger.Debug("dropping callback event, no live session")
		}
		w.WriteHeader(http.StatusOK)

	default:
		logging.From(ctx).Warn("unknown slack event type", "type", outer.Type)
		w.WriteHeader(http.StatusOK)
	}
}

// slashCommand accepts slash commands and outgoing webhooks. Slack expects
// a response within three seconds, so the handler runs in the background.
func (s *Server) slashCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse command"), http.StatusBadRequest)
		return
	}

	req := &model.WebhookRequest{
		Token:       cmd.Token,
		TeamID:      cmd.TeamID,
		TeamDomain:  cmd.TeamDomain,
		ChannelID:   cmd.ChannelID,
		ChannelName: cmd.ChannelName,
		UserID:      cmd.UserID,
		UserName:    cmd.UserName,
		Command:     cmd.Command,
		Text:        cmd.Text,
		ResponseURL: cmd.ResponseURL,
		Timestamp:   r.PostForm.Get("timestamp"),
		TriggerWord: r.PostForm.Get("trigger_word"),
	}
	if !req.IsCommand() && req.TriggerWord == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("request is neither a command nor an outgoing webhook"), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		logging.From(ctx).Info("processing slack webhook",
			"command", req.Command,
			"trigger_word", req.TriggerWord,
			"channel_id", req.ChannelID,
			"user_id", req.UserID,
		)
		if err := s.command(ctx, req); err != nil {
			return goerr.Wrap(err, "failed to handle slack webhook", goerr.V("command", req.Command))
		}
		return nil
	})
}
