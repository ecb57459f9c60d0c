package cli

import (
	"github.com/spf13/cobra"

	"github.com/betterfly/betterfly/internal/app"
)

// NewAdminCommand creates the admin command group.
func NewAdminCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Maintenance tools for the stored data",
	}
	cmd.AddCommand(newAdminSeedCommand(open))
	cmd.AddCommand(newAdminStatsCommand(open))
	cmd.AddCommand(newAdminClearUsersCommand(open))
	cmd.AddCommand(newAdminClearAllCommand(open))
	return cmd
}

func newAdminSeedCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the admin account, the demo user and the demo lessons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), open, func(c *app.Container) error {
				ctx := cmd.Context()
				result := map[string]any{}
				if c.Config.SeedAdminEmail != "" {
					_, created, err := c.UserAdmin.EnsureAdmin(ctx, c.Config.SeedAdminEmail, c.Config.SeedAdminPassword)
					if err != nil {
						return err
					}
					result["adminCreated"] = created
				}
				demo, err := c.UserAdmin.SeedDemo(ctx)
				if err != nil {
					return err
				}
				if err := c.Lessons.SeedDemoLessons(ctx); err != nil {
					return err
				}
				result["demoUser"] = demo.Email
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newAdminStatsCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print user and lesson counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), open, func(c *app.Container) error {
				stats, err := c.UserAdmin.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func newAdminClearUsersCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-users",
		Short: "Delete every non-admin user and end the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), open, func(c *app.Container) error {
				removed, err := c.UserAdmin.ClearUsers(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"removed": removed})
			})
		},
	}
}

func newAdminClearAllCommand(open Opener) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Delete every stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errConfirm
			}
			return withContainer(cmd.Context(), open, func(c *app.Container) error {
				if err := c.UserAdmin.ClearAll(cmd.Context()); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]bool{"cleared": true})
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")
	return cmd
}
