package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xpablo/slackkit/pkg/cli/config"
	server "github.com/0xpablo/slackkit/pkg/controller/http"
	"github.com/0xpablo/slackkit/pkg/service/metrics"
	"github.com/0xpablo/slackkit/pkg/service/rtm"
	"github.com/0xpablo/slackkit/pkg/usecase"
	"github.com/0xpablo/slackkit/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdConnect() *cli.Command {
	var (
		fileCfg      config.File
		slackCfg     config.Slack
		replicaCfg   config.Replica
		reconnectCfg config.Reconnect
		serverCfg    config.Server
	)

	flags := []cli.Flag{}
	flags = append(flags, fileCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, replicaCfg.Flags()...)
	flags = append(flags, reconnectCfg.Flags()...)
	flags = append(flags, serverCfg.Flags()...)

	return &cli.Command{
		Name:    "connect",
		Aliases: []string{"c"},
		Usage:   "Connect to Slack RTM and keep a live replica of the workspace",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			fc, err := fileCfg.Load()
			if err != nil {
				return err
			}
			replicaCfg.Apply(c, fc)
			reconnectCfg.Apply(c, fc)
			serverCfg.Apply(c, fc)

			logging.Default().Info("Starting connect",
				"slack", slackCfg,
				"replica", replicaCfg,
				"reconnect", reconnectCfg,
				"server", serverCfg,
			)

			client, err := slackCfg.Configure()
			if err != nil {
				return err
			}
			connOpts, err := replicaCfg.Configure()
			if err != nil {
				return err
			}
			limiter, err := reconnectCfg.Limiter()
			if err != nil {
				return err
			}

			registry := metrics.New()
			sup := newSupervisor(client, limiter, reconnectCfg.MaxAttempts())
			connOpts = append(connOpts,
				usecase.WithMetrics(registry),
				usecase.WithObserver(sup),
			)
			conn := usecase.NewConnection(rtm.NewWebSocket(), connOpts...)
			sup.attach(conn)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return sup.run(ctx)
			})

			if addr := serverCfg.Addr(); addr != "" {
				serverOpts := []server.Options{server.WithMetrics(registry.Handler())}
				if secret := serverCfg.SigningSecret(); secret != "" {
					serverOpts = append(serverOpts, server.WithSlackWebhook(secret, statusCommand(conn, slack.PostWebhookContext)))
				}
				eg.Go(func() error {
					return serve(ctx, addr, server.New(conn, serverOpts...))
				})
			}

			return eg.Wait()
		},
	}
}

// serve runs the HTTP server until ctx is canceled
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.From(ctx).Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- goerr.Wrap(err, "failed to serve HTTP", goerr.V("addr", addr))
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shutdown server gracefully")
	}
	return nil
}
