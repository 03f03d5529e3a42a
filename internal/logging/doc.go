// Package logging builds the slog loggers used across clipstudio and defines
// the shared attribute vocabulary (component, stage, job/clip ids) so CLI
// output and structured logs stay greppable.
package logging
