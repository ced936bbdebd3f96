// Command rosterlens serves fused fantasy football rankings, tiers and trade
// values over HTTP and MCP, and answers one-off queries from the shell.
//
// Usage:
//
//	rosterlens serve
//	rosterlens snapshot --league 1048xxxx
//	rosterlens tiers --position RB --scope weekly --week 3
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/rosterlens/internal/config"
	"github.com/okian/rosterlens/pkg/logger"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rosterlens",
		Short:         "Ranking fusion and tiering engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(snapshotCmd())
	root.AddCommand(tiersCmd())
	return root
}

// run loads configuration, initializes logging and calls fn under a context
// cancelled on SIGINT or SIGTERM.
func run(fn func(ctx context.Context, cfg *config.Config, log logger.Logger) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr so query commands keep stdout for JSON.
	if err := logger.Init(logger.WithOutput(os.Stderr), logger.WithJSON(cfg.LogJSON)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return fn(ctx, cfg, log)
}
