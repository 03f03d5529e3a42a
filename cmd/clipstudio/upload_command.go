package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"clipstudio/internal/backend"
	"clipstudio/internal/media"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var (
		duration string
		width    int
		height   int
		noAudio  bool
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Register a video upload and mark it ready for editing",
		Long: "Registers the file with the backend, prints the signed upload URL for the " +
			"out-of-band transfer, and records the video as ready with the supplied metadata. " +
			"Starting a new video resets any session in progress.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			durationMS, err := media.ParseMS(duration)
			if err != nil {
				return fmt.Errorf("parse --duration: %w", err)
			}

			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("stat video file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", args[0])
			}

			filename := filepath.Base(args[0])
			mimeType := mime.TypeByExtension(filepath.Ext(filename))
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}

			return ctx.withMachine(cmd, func(cmdCtx context.Context, env *wizardEnv) error {
				ticket, err := env.machine.RegisterUpload(cmdCtx, filename, info.Size(), mimeType)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Registered %s as video %s\n", filename, ticket.VideoID)
				fmt.Fprintf(out, "Upload URL: %s\n", ticket.UploadURL)

				video, err := env.machine.CompleteUpload(cmdCtx, backend.VideoMetadata{
					DurationMS: durationMS,
					Width:      width,
					Height:     height,
					HasAudio:   !noAudio,
				})
				if err != nil {
					return err
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, video)
				}
				fmt.Fprintf(out, "Video %s is %s (%s); run 'clipstudio suggest' to cut clips\n",
					video.ID, video.Status, media.FormatMS(video.DurationMS))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&duration, "duration", "", "Video duration as m:ss or seconds (required)")
	cmd.Flags().IntVar(&width, "width", 1080, "Video width in pixels")
	cmd.Flags().IntVar(&height, "height", 1920, "Video height in pixels")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Mark the video as having no audio track")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}
