package workflow

import (
	"strings"

	"clipstudio/internal/jobs"
	"clipstudio/internal/media"
)

// Stage is one step of the editing wizard.
type Stage string

const (
	StageUpload      Stage = "upload"
	StageSuggestions Stage = "suggestions"
	StageFineTune    Stage = "fine-tune"
	StageSafetyCheck Stage = "safety-check"
	StageDone        Stage = "done"
)

var stageOrder = []Stage{StageUpload, StageSuggestions, StageFineTune, StageSafetyCheck, StageDone}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	for _, stage := range stageOrder {
		if stage == normalized {
			return stage, true
		}
	}
	return "", false
}

func (s Stage) index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the following stage, if any.
func (s Stage) Next() (Stage, bool) {
	i := s.index()
	if i < 0 || i >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[i+1], true
}

// Prev returns the preceding stage, if any.
func (s Stage) Prev() (Stage, bool) {
	i := s.index()
	if i <= 0 {
		return "", false
	}
	return stageOrder[i-1], true
}

// JobKind returns the job kind a stage tracks, if it tracks one.
func (s Stage) JobKind() (media.JobType, bool) {
	switch s {
	case StageSuggestions:
		return media.JobCut, true
	case StageSafetyCheck:
		return media.JobSafety, true
	default:
		return "", false
	}
}

// StageResult is the observable outcome of a stage action. Failures are
// stage-local: re-entering the stage retries the action.
type StageResult struct {
	Stage    Stage
	State    jobs.StageState
	Progress int
	Message  string
}

// Failed reports whether the stage action failed.
func (r StageResult) Failed() bool {
	return r.State == jobs.StageFailed
}
