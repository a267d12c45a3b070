package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/schemagen/internal/processor"
	"github.com/conduit-lang/schemagen/internal/store"
	"github.com/conduit-lang/schemagen/internal/web/api"
	"github.com/conduit-lang/schemagen/internal/web/auth"
	"github.com/conduit-lang/schemagen/internal/web/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schema documents over HTTP",
		Long: `Serve the documents of the declared classes over HTTP.

Requests to /v1 require a bearer token with the schemas:read scope when
server.jwt_secret is set. When store.driver is set, stored versions can be
fetched with ?version=N.`,
		Example: `  schemagen serve
  schemagen serve --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.host:server.port)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, addr string) error {
	cfg := opts.cfg
	logger := opts.logger

	registry, err := opts.loadRegistry()
	if err != nil {
		return err
	}

	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithTimeout(cfg.Server.RequestTimeout),
	}

	var docs store.Store
	if cfg.HasStore() {
		docs, err = store.Open(ctx, cfg.StoreConfig())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		apiOpts = append(apiOpts, api.WithStore(docs))
	}
	if cfg.Server.JWTSecret != "" {
		apiOpts = append(apiOpts, api.WithAuth(auth.NewAuthService(cfg.Server.JWTSecret, 0)))
	} else {
		logger.Warn("server.jwt_secret is not set, the API is unauthenticated")
	}

	handler := api.New(registry, processor.New(registry, processor.WithLogger(logger)), apiOpts...).Handler()

	srvConfig := server.DefaultConfig(handler)
	srvConfig.Address = cfg.ServerAddr()
	if addr != "" {
		srvConfig.Address = addr
	}
	srvConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	srvConfig.Logger = logger

	srv, err := server.New(srvConfig)
	if err != nil {
		if docs != nil {
			docs.Close()
		}
		return err
	}
	if docs != nil {
		srv.OnShutdown(func(context.Context) error { return docs.Close() })
	}

	logger.Info("serving schemas",
		zap.Int("classes", registry.Count()),
		zap.Bool("store", docs != nil),
		zap.Bool("auth", cfg.Server.JWTSecret != ""),
	)
	return srv.Run(ctx)
}
