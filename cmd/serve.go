package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/rosterlens/internal/adapters/http/api"
	"github.com/okian/rosterlens/internal/adapters/http/swagger"
	"github.com/okian/rosterlens/internal/adapters/mcpserver"
	"github.com/okian/rosterlens/internal/adapters/mq/queue"
	"github.com/okian/rosterlens/internal/adapters/mq/worker"
	"github.com/okian/rosterlens/internal/config"
	"github.com/okian/rosterlens/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots over HTTP and MCP with background refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, cfg *config.Config, log logger.Logger) error {
				if addr != "" {
					cfg.Addr = addr
				}
				return serve(ctx, cfg, log)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides ROSTERLENS_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error(ctx, "snapshot store close failed", logger.Error(err))
		}
	}()

	refreshQueue := queue.NewInMemoryQueue(queue.WithCapacity(cfg.RefreshQueueSize))
	pool := worker.NewPool(cfg.RefreshWorkers, refreshQueue, svc,
		worker.WithLogger(log),
		worker.WithJobTimeout(3*cfg.FetchTimeout()),
	)
	pool.Start(ctx)

	leagues := append([]string{""}, cfg.PrewarmLeagues...)
	go func() {
		if err := svc.Prewarm(ctx, leagues); err != nil {
			log.Warn(ctx, "prewarm incomplete", logger.Error(err))
		}
	}()
	if cfg.RefreshEvery > 0 {
		go worker.NewScheduler(refreshQueue, leagues, cfg.RefreshEvery, log).Run(ctx)
	}

	tools := mcpserver.NewServer(svc, mcpserver.WithVersion(version), mcpserver.WithLogger(log.Named("mcp")))

	mux := http.NewServeMux()
	api.NewServer(svc,
		api.WithRefreshQueue(refreshQueue),
		api.WithMCP(mcpserver.NewHandler(tools)),
		api.WithLogger(log.Named("http")),
	).Register(mux)
	swagger.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "refresh pool shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}
