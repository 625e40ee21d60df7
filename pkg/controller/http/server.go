package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/0xpablo/slackkit/pkg/domain/interfaces"
	"github.com/0xpablo/slackkit/pkg/domain/types"
	"github.com/0xpablo/slackkit/pkg/repository/memory"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/0xpablo/slackkit/pkg/utils/errutil"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/0xpablo/slackkit/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
)

// Replica is the part of usecase.Connection the server reads from and
// feeds Events API callbacks into
type Replica interface {
	State() types.ConnState
	Session() (usecase.SessionInfo, bool)
	View(fn func(store *memory.Store))
	Ingest(ctx context.Context, raw []byte) error
}

type Server struct {
	router        *chi.Mux
	replica       Replica
	metrics       http.Handler
	signingSecret string
	command       interfaces.WebhookHandler
}

type Options func(*Server)

// WithMetrics serves handler on /metrics
func WithMetrics(handler http.Handler) Options {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithSlackWebhook enables /hooks/slack/*. Every request must carry a valid
// signature for signingSecret. command receives slash commands and outgoing
// webhooks; it may be nil, in which case only the Events API endpoint is
// served.
func WithSlackWebhook(signingSecret string, command interfaces.WebhookHandler) Options {
	return func(s *Server) {
		s.signingSecret = signingSecret
		s.command = command
	}
}

func New(replica Replica, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:  r,
		replica: replica,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.state)
		r.Get("/channels/{id}", s.channel)
		r.Get("/users/{id}", s.user)
	})

	if s.signingSecret != "" {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.signingSecret))
			r.Post("/event", s.event)
			if s.command != nil {
				r.Post("/command", s.slashCommand)
			}
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}
