// Package services defines the shared error taxonomy for the clip wizard.
//
// Stage code wraps failures with one of the exported sentinel markers so the
// workflow machine can classify them: validation errors are rejected locally
// and surfaced synchronously, job/fetch failures become retryable stage-local
// failed states, and only auth errors escape the wizard entirely.
package services
