package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipstudio/internal/workflow"
)

func newCaptionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "caption <text>",
		Short: "Set the publish caption for the selected clip",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caption := strings.TrimSpace(strings.Join(args, " "))
			if caption == "" {
				return fmt.Errorf("caption is empty")
			}
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				if err := env.machine.SetCaption(cmdCtx, caption); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Caption set (%d characters)\n", len(caption))
				return nil
			})
		},
	}
}

// scheduleLayouts are the accepted schedule time formats, tried in order.
// Layouts without a zone are interpreted in local time.
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func parseScheduleTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range scheduleLayouts {
		if at, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid schedule time %q: use RFC3339 or 2006-01-02 15:04", value)
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var platforms []string

	cmd := &cobra.Command{
		Use:   "schedule <time>",
		Short: "Set the publish time for the selected clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseScheduleTime(args[0])
			if err != nil {
				return err
			}
			if at.Before(time.Now()) {
				return fmt.Errorf("schedule time %s is in the past", at.Format(time.RFC3339))
			}

			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				if err := env.machine.SetSchedule(cmdCtx, at); err != nil {
					return err
				}
				if cmd.Flags().Changed("platforms") {
					if err := env.machine.SetPlatforms(cmdCtx, platforms); err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scheduled for %s\n", at.Format(time.RFC1123))
				if notice := workflow.ScheduleNotice(at); notice != "" {
					fmt.Fprintln(out, renderStatusLine("Notice", statusWarn, notice, shouldColorize(out)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "Target platforms (comma separated)")
	return cmd
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Schedule the selected clip for publishing",
		Long: "Finishes the wizard by scheduling the selected clip. Publishing requires a " +
			"SAFE verdict from the safety scan and a complete readiness checklist: scanned " +
			"video, caption, and schedule time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				clip, err := env.machine.Publish(cmdCtx)
				if err != nil {
					return err
				}
				if env.machine.Stage() != workflow.StageDone {
					snap := env.machine.Snapshot()
					if snap.ErrorMsg != "" {
						return fmt.Errorf("publish failed: %s; re-run to retry", snap.ErrorMsg)
					}
					return fmt.Errorf("publish failed; re-run to retry")
				}

				out := cmd.OutOrStdout()
				when := "the scheduled time"
				if clip.ScheduleAt != nil {
					when = clip.ScheduleAt.Local().Format(time.RFC1123)
				}
				fmt.Fprintf(out, "Clip %s is %s for %s\n", clip.ID, clip.Status, when)
				return nil
			})
		},
	}
}

func newRequestReviewCommand(ctx *commandContext) *cobra.Command {
	var evidence string

	cmd := &cobra.Command{
		Use:   "request-review",
		Short: "Submit a NEEDS_REVIEW clip for manual review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				if err := env.machine.RequestReview(cmdCtx, evidence); err != nil {
					return err
				}
				snap := env.machine.Snapshot()
				fmt.Fprintf(cmd.OutOrStdout(),
					"Review requested for clip %s; the verdict stays NEEDS_REVIEW until a reviewer acts\n",
					snap.SelectedClipID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&evidence, "evidence", "", "URL supporting the review request")
	return cmd
}
