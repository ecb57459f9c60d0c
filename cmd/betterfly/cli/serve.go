package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/betterfly/betterfly/internal/app"
)

// NewServeCommand creates the serve command.
func NewServeCommand(open Opener) *cobra.Command {
	var noSeed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), open, func(c *app.Container) error {
				if !noSeed {
					if err := c.Bootstrap(cmd.Context()); err != nil {
						return err
					}
				}
				return serve(cmd.Context(), c)
			})
		},
	}
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip the configured admin and demo seeds")
	return cmd
}

func serve(ctx context.Context, c *app.Container) error {
	server := &http.Server{
		Addr:         c.Config.AppAddr,
		Handler:      app.NewRouter(c.RouterParams()),
		ReadTimeout:  c.Config.AppReadTimeout,
		WriteTimeout: c.Config.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("starting http server", slog.String("addr", c.Config.AppAddr), slog.String("store", c.Config.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	c.Logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		c.Logger.Error("graceful shutdown", slog.Any("error", err))
		return err
	}
	return nil
}
