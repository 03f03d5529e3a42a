package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"clipstudio/internal/media"
	"clipstudio/internal/session"
	"clipstudio/internal/workflow"
)

type statusPayload struct {
	Stage   string               `json:"stage"`
	Result  workflow.StageResult `json:"result"`
	Session session.Session      `json:"session"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the wizard stage, session, and tracked jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				snap := env.machine.Snapshot()
				result := env.machine.Result()
				if ctx.jsonOutput() {
					return writeJSON(cmd, statusPayload{
						Stage:   string(env.machine.Stage()),
						Result:  result,
						Session: snap,
					})
				}
				printStatus(cmd, env.machine.Stage(), result, snap)
				return nil
			})
		},
	}
}

func printStatus(cmd *cobra.Command, stage workflow.Stage, result workflow.StageResult, snap session.Session) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Session", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Stage", statusInfo, string(stage), colorize))
	fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, fmt.Sprintf("%d%%", result.Progress), colorize))

	if snap.Video == nil {
		fmt.Fprintln(out, renderStatusLine("Video", statusWarn, "none; run 'clipstudio upload <file>'", colorize))
	} else {
		kind := statusOK
		if !snap.Video.Ready() {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Video", kind,
			fmt.Sprintf("%s (%s, %s)", snap.Video.Filename, snap.Video.Status, media.FormatMS(snap.Video.DurationMS)), colorize))
	}

	if snap.ErrorMsg != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusError, snap.ErrorMsg, colorize))
	}

	if stage == workflow.StageFineTune || stage == workflow.StageSafetyCheck || stage == workflow.StageDone {
		printReadiness(cmd, snap, colorize)
	}

	if len(snap.Clips) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderClipTable(snap.Clips, snap.SelectedClipID))
	}

	if len(snap.Jobs) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderJobTable(snap.Jobs))
	}
}

func printReadiness(cmd *cobra.Command, snap session.Session, colorize bool) {
	out := cmd.OutOrStdout()
	checklist := snap.Checklist()

	verdict := snap.Verdict()
	switch verdict {
	case media.SafetySafe:
		fmt.Fprintln(out, renderStatusLine("Safety", statusOK, string(verdict), colorize))
	case media.SafetyBlocked:
		fmt.Fprintln(out, renderStatusLine("Safety", statusError, string(verdict), colorize))
	case media.SafetyNeedsReview:
		fmt.Fprintln(out, renderStatusLine("Safety", statusWarn, string(verdict), colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Safety", statusInfo, "not scanned", colorize))
	}

	fmt.Fprintln(out, renderStatusLine("Video scan", checkKind(checklist.Video), yesNo(checklist.Video), colorize))
	fmt.Fprintln(out, renderStatusLine("Caption", checkKind(checklist.Caption), yesNo(checklist.Caption), colorize))
	fmt.Fprintln(out, renderStatusLine("Schedule", checkKind(checklist.Schedule), yesNo(checklist.Schedule), colorize))
	if snap.Publish.ScheduleAt != nil {
		if notice := workflow.ScheduleNotice(*snap.Publish.ScheduleAt); notice != "" {
			fmt.Fprintln(out, renderStatusLine("Schedule time", statusWarn, notice, colorize))
		}
	}
	fmt.Fprintln(out, renderStatusLine("Publish ready", checkKind(snap.CanPublish()), yesNo(snap.CanPublish()), colorize))
}

func checkKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusWarn
}

func renderClipTable(clips []media.Clip, selectedID string) string {
	rows := make([][]string, 0, len(clips))
	for _, clip := range clips {
		marker := ""
		if clip.ID == selectedID {
			marker = "*"
		}
		rows = append(rows, []string{
			marker,
			clip.ID,
			fmt.Sprintf("%s-%s", media.FormatMS(clip.StartMS), media.FormatMS(clip.EndMS)),
			media.FormatMS(clip.DurationMS()),
			fmt.Sprintf("%.2f", clip.Score),
			string(clip.Status),
			string(clip.SafetyStatus),
		})
	}
	return renderTable([]tableColumn{
		{},
		{title: "Clip"},
		{title: "Window"},
		{title: "Length", numeric: true},
		{title: "Score", numeric: true},
		{title: "Status"},
		{title: "Safety"},
	}, rows)
}

func renderJobTable(jobs map[string]session.TrackedJob) string {
	kinds := make([]string, 0, len(jobs))
	for kind := range jobs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	rows := make([][]string, 0, len(kinds))
	for _, kind := range kinds {
		job := jobs[kind]
		state := "tracking"
		if job.Done {
			state = "done"
		}
		rows = append(rows, []string{strings.ToUpper(kind), job.JobID, job.Target, state})
	}
	return renderTable([]tableColumn{
		{title: "Job"},
		{title: "ID"},
		{title: "Target"},
		{title: "State"},
	}, rows)
}
