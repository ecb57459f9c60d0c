package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/betterfly/betterfly/cmd/betterfly/cli"
	"github.com/betterfly/betterfly/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(openContainer)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "betterfly:", err)
		os.Exit(1)
	}
}

func openContainer(ctx context.Context) (*app.Container, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.OpenContainer(ctx, cfg, app.NewLogger(cfg))
}
