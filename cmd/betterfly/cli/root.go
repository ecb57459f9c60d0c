// Package cli builds the betterfly command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/betterfly/betterfly/internal/app"
)

var errConfirm = errors.New("refusing to run without --yes")

// Opener builds a wired container. Commands close it when done.
type Opener func(ctx context.Context) (*app.Container, error)

// NewRootCommand creates the root command for the betterfly binary.
func NewRootCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "betterfly",
		Short:         "Betterfly meditation backend",
		Long:          "Serves the Betterfly API and runs admin and reminder maintenance tasks.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewServeCommand(open))
	cmd.AddCommand(NewAdminCommand(open))
	cmd.AddCommand(NewRemindersCommand(open))
	return cmd
}

// withContainer opens a container, runs fn and closes it.
func withContainer(ctx context.Context, open Opener, fn func(*app.Container) error) error {
	c, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			c.Logger.Warn("close container", slog.Any("error", closeErr))
		}
	}()
	return fn(c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
