package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks locally rejected input: bad trim windows, missing
	// required fields. Never sent to the backend.
	ErrValidation = errors.New("validation error")
	// ErrJobCreation marks a network or HTTP failure while starting a job.
	ErrJobCreation = errors.New("job creation error")
	// ErrFetch marks a network or HTTP failure while fetching job status or
	// produced artifacts.
	ErrFetch = errors.New("fetch error")
	// ErrJobFailed marks a job the backend itself reported as failed; the
	// wrapped message carries the backend's error verbatim.
	ErrJobFailed = errors.New("job failed")
	// ErrAuth marks an unrecoverable credential failure. The only marker that
	// propagates out of the wizard.
	ErrAuth = errors.New("auth error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFetch
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must end the wizard session rather than
// become a stage-local retryable failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsValidation reports whether an error is a locally rejected input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
