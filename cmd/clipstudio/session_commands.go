package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"clipstudio/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the persisted wizard session",
	}

	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionResetCommand(ctx))

	return sessionCmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the persisted session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				snap := env.machine.Snapshot()
				if ctx.jsonOutput() {
					return writeJSON(cmd, snap)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, renderStatusLine("Session", statusInfo, snap.ID, colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, env.store.Path(), colorize))
				fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, snap.UpdatedAt.Local().Format("2006-01-02 15:04:05"), colorize))
				printStatus(cmd, env.machine.Stage(), env.machine.Result(), snap)
				return nil
			})
		},
	}
}

func newSessionResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the persisted session and start over",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lock := session.NewLock(cfg)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() {
				_ = lock.Release()
			}()

			store, err := session.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared; the next command starts a fresh wizard")
			return nil
		},
	}
}
