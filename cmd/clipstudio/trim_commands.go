package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"clipstudio/internal/media"
	"clipstudio/internal/workflow"
)

func newSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <clip-id>",
		Short: "Pick which suggested clip to edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				if err := env.machine.Select(cmdCtx, args[0]); err != nil {
					return err
				}
				snap := env.machine.Snapshot()
				clip, _ := snap.SelectedClip()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Selected clip %s (%s-%s)\n",
					clip.ID, media.FormatMS(clip.StartMS), media.FormatMS(clip.EndMS))
				if env.machine.Stage() == workflow.StageSuggestions {
					if _, err := env.machine.Advance(cmdCtx); err != nil {
						return err
					}
					fmt.Fprintln(out, "Entered fine-tune; adjust with 'clipstudio trim', then run 'clipstudio safety'")
				}
				return nil
			})
		},
	}
}

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var (
		start   string
		end     string
		quality string
	)

	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Adjust the selected clip's trim window or quality",
		Long: "Applies an edit to the selected clip. Each edit is recorded in the session " +
			"history and can be undone with 'clipstudio undo'. Offsets accept m:ss or plain " +
			"seconds; --quality accepts 'original' or 'compressed'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var startP, endP *int64
			var qualityP *bool

			if cmd.Flags().Changed("start") {
				ms, err := media.ParseMS(start)
				if err != nil {
					return fmt.Errorf("parse --start: %w", err)
				}
				startP = &ms
			}
			if cmd.Flags().Changed("end") {
				ms, err := media.ParseMS(end)
				if err != nil {
					return fmt.Errorf("parse --end: %w", err)
				}
				endP = &ms
			}
			if cmd.Flags().Changed("quality") {
				switch quality {
				case "original":
					v := true
					qualityP = &v
				case "compressed":
					v := false
					qualityP = &v
				default:
					return fmt.Errorf("invalid --quality %q: use original or compressed", quality)
				}
			}
			if startP == nil && endP == nil && qualityP == nil {
				return fmt.Errorf("nothing to change: pass --start, --end, or --quality")
			}

			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				live, err := env.machine.ApplyTrim(startP, endP, qualityP)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeWindow(live))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "New start offset (m:ss or seconds)")
	cmd.Flags().StringVar(&end, "end", "", "New end offset (m:ss or seconds)")
	cmd.Flags().StringVar(&quality, "quality", "", "Output quality: original or compressed")
	return cmd
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last trim edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				description, ok := env.machine.Undo()
				out := cmd.OutOrStdout()
				if !ok {
					fmt.Fprintln(out, "Nothing to undo")
					return nil
				}
				fmt.Fprintf(out, "Undid: %s\n", description)
				if log := env.machine.TrimLog(); log != nil {
					fmt.Fprintln(out, describeWindow(log.Live()))
				}
				return nil
			})
		},
	}
}

func newRedoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Reapply the last undone trim edit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				description, ok := env.machine.Redo()
				out := cmd.OutOrStdout()
				if !ok {
					fmt.Fprintln(out, "Nothing to redo")
					return nil
				}
				fmt.Fprintf(out, "Redid: %s\n", description)
				if log := env.machine.TrimLog(); log != nil {
					fmt.Fprintln(out, describeWindow(log.Live()))
				}
				return nil
			})
		},
	}
}

func newTrimResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trim-reset",
		Short: "Restore the clip to its suggested trim window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				if err := env.machine.ResetTrim(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Restored the suggested trim window (undo to go back)")
				if log := env.machine.TrimLog(); log != nil {
					fmt.Fprintln(out, describeWindow(log.Live()))
				}
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the edit history for the selected clip",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				log := env.machine.TrimLog()
				if log == nil {
					return fmt.Errorf("no edit history: fine-tune has not started")
				}

				entries := log.Entries()
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"clip_id": log.ClipID(),
						"index":   log.Index(),
						"entries": entries,
					})
				}

				rows := make([][]string, 0, len(entries)+1)
				baseline := log.Baseline()
				marker := ""
				if log.Index() < 0 {
					marker = "*"
				}
				rows = append(rows, []string{
					marker, "0", "Suggested window",
					fmt.Sprintf("%s-%s", media.FormatMS(baseline.StartMS), media.FormatMS(baseline.EndMS)),
					media.FormatMS(baseline.Window().DurationMS()),
					"",
				})
				for i, entry := range entries {
					marker := ""
					if i == log.Index() {
						marker = "*"
					}
					rows = append(rows, []string{
						marker,
						fmt.Sprintf("%d", i+1),
						entry.Description,
						fmt.Sprintf("%s-%s", media.FormatMS(entry.StartMS), media.FormatMS(entry.EndMS)),
						media.FormatMS(entry.Window().DurationMS()),
						entry.At.Local().Format("15:04:05"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]tableColumn{
					{},
					{title: "#", numeric: true},
					{title: "Edit"},
					{title: "Window"},
					{title: "Length", numeric: true},
					{title: "At"},
				}, rows))
				return nil
			})
		},
	}
}

func newBackCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Return to the previous wizard stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				stage, err := env.machine.Back()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Returned to %s\n", stage)
				return nil
			})
		},
	}
}

func describeWindow(snapshot interface {
	Window() media.TrimWindow
}) string {
	window := snapshot.Window()
	return fmt.Sprintf("Window %s-%s (%s)",
		media.FormatMS(window.StartMS), media.FormatMS(window.EndMS), media.FormatMS(window.DurationMS()))
}
