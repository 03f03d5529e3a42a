package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clipstudio/internal/jobs"
	"clipstudio/internal/media"
	"clipstudio/internal/session"
	"clipstudio/internal/workflow"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Cut clip suggestions from the uploaded video",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				var result workflow.StageResult
				var err error
				switch env.machine.Stage() {
				case workflow.StageUpload:
					result, err = env.machine.Advance(cmdCtx)
				case workflow.StageSuggestions:
					result, err = env.machine.Retry(cmdCtx)
				default:
					return fmt.Errorf("clip suggestions are not available in %s", env.machine.Stage())
				}
				if err != nil {
					return err
				}
				return reportJobStage(cmd, ctx, cmdCtx, env, result, wait)
			})
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the cut job resolves")
	return cmd
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Request a fresh set of clip suggestions",
		Long: "Starts a new cut job for the current video, superseding the previous one. " +
			"The number of regenerations per video is limited; once the quota runs out, " +
			"adjust the clip manually in fine-tune instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				result, err := env.machine.Regenerate(cmdCtx)
				if err != nil {
					return err
				}
				left := env.machine.Snapshot().RegenerateLeft
				fmt.Fprintf(cmd.OutOrStdout(), "Regenerating suggestions (%d left)\n", left)
				return reportJobStage(cmd, ctx, cmdCtx, env, result, wait)
			})
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the cut job resolves")
	return cmd
}

func newSafetyCommand(ctx *commandContext) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "safety",
		Short: "Run the safety scan on the selected clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				var result workflow.StageResult
				var err error
				switch env.machine.Stage() {
				case workflow.StageFineTune:
					result, err = env.machine.Advance(cmdCtx)
				case workflow.StageSafetyCheck:
					result, err = env.machine.Retry(cmdCtx)
				default:
					return fmt.Errorf("the safety scan is not available in %s", env.machine.Stage())
				}
				if err != nil {
					return err
				}
				return reportJobStage(cmd, ctx, cmdCtx, env, result, wait)
			})
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the safety job resolves")
	return cmd
}

// reportJobStage renders the outcome of a stage that tracks a backend job,
// optionally blocking until the job resolves.
func reportJobStage(cmd *cobra.Command, ctx *commandContext, cmdCtx context.Context, env *wizardEnv, result workflow.StageResult, wait bool) error {
	if wait && result.State == jobs.StageAnalyzing {
		var err error
		result, err = env.machine.Wait(cmdCtx)
		if err != nil {
			return err
		}
	}

	if result.Failed() {
		message := result.Message
		if message == "" {
			message = "job failed"
		}
		return errors.New(message + "; re-run the command to retry")
	}

	if ctx.jsonOutput() {
		return writeJSON(cmd, statusPayload{
			Stage:   string(env.machine.Stage()),
			Result:  result,
			Session: env.machine.Snapshot(),
		})
	}

	out := cmd.OutOrStdout()
	if result.State == jobs.StageAnalyzing {
		fmt.Fprintf(out, "Job running (%d%%); re-run with --wait or check 'clipstudio status'\n", result.Progress)
		return nil
	}

	snap := env.machine.Snapshot()
	switch result.Stage {
	case workflow.StageSuggestions:
		if len(snap.Clips) > 0 {
			fmt.Fprintln(out, renderClipTable(snap.Clips, snap.SelectedClipID))
			fmt.Fprintln(out, "Run 'clipstudio select <clip-id>' to pick a clip and enter fine-tune.")
		}
	case workflow.StageSafetyCheck:
		printVerdict(cmd, snap)
	}
	return nil
}

func printVerdict(cmd *cobra.Command, snap session.Session) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	if snap.Report == nil {
		fmt.Fprintln(out, renderStatusLine("Safety", statusInfo, "not scanned", colorize))
		return
	}

	switch snap.Report.Verdict {
	case media.SafetySafe:
		fmt.Fprintln(out, renderStatusLine("Safety", statusOK,
			fmt.Sprintf("SAFE (%.0f%% confidence)", snap.Report.Confidence*100), colorize))
		fmt.Fprintln(out, "Set a caption and schedule, then run 'clipstudio publish'.")
	case media.SafetyBlocked:
		message := "BLOCKED"
		if snap.Report.PolicyCategory != "" {
			message += ": " + snap.Report.PolicyCategory
		}
		fmt.Fprintln(out, renderStatusLine("Safety", statusError, message, colorize))
		fmt.Fprintln(out, "Publishing is disabled; run 'clipstudio back' and adjust the clip.")
	case media.SafetyNeedsReview:
		message := "NEEDS_REVIEW"
		if snap.Report.PolicyCategory != "" {
			message += ": " + snap.Report.PolicyCategory
		}
		fmt.Fprintln(out, renderStatusLine("Safety", statusWarn, message, colorize))
		fmt.Fprintln(out, "Run 'clipstudio request-review' to submit the clip for manual review.")
	}
}
