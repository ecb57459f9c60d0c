package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/betterfly/betterfly/internal/app"
	"github.com/betterfly/betterfly/internal/reminders"
)

const triggerStreakSweep = "streak-sweep"

// NewRemindersCommand creates the reminders command group.
func NewRemindersCommand(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Inspect and trigger reminders",
	}
	cmd.AddCommand(newRemindersStatusCommand(open))
	cmd.AddCommand(newRemindersTriggerCommand(open))
	return cmd
}

type reminderStatus struct {
	DailyActive bool                   `json:"dailyActive"`
	Daily       *reminders.DailyTime   `json:"daily,omitempty"`
	EmailActive bool                   `json:"emailActive"`
	Email       *reminders.EmailConfig `json:"email,omitempty"`
}

func newRemindersStatusCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the stored reminder configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd.Context(), open, func(c *app.Container) error {
				ctx := cmd.Context()
				out := reminderStatus{
					DailyActive: c.Reminders.IsDailyActive(ctx),
					EmailActive: c.Reminders.IsEmailActive(ctx),
				}
				daily, ok, err := c.Reminders.DailyTime(ctx)
				if err != nil {
					return err
				}
				if ok {
					out.Daily = &daily
				}
				email, ok, err := c.Reminders.EmailConfig(ctx)
				if err != nil {
					return err
				}
				if ok {
					out.Email = &email
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newRemindersTriggerCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:       "trigger <daily|email|streak-sweep>",
		Short:     "Deliver a reminder now or queue a streak sweep",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{reminders.KindDaily, reminders.KindEmail, triggerStreakSweep},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			return withContainer(cmd.Context(), open, func(c *app.Container) error {
				ctx := cmd.Context()
				switch target {
				case reminders.KindDaily, reminders.KindEmail:
					if err := c.Reminders.SendNow(ctx, target); err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]string{"sent": target})
				case triggerStreakSweep:
					info, err := c.JobsClient.EnqueueStreakSweep(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]string{"queued": info.ID})
				default:
					return fmt.Errorf("unknown trigger %q", target)
				}
			})
		},
	}
}
