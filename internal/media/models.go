package media

import (
	"strings"
	"time"
)

// VideoStatus represents the upload lifecycle of a source video.
type VideoStatus string

const (
	VideoUploading VideoStatus = "UPLOADING"
	VideoReady     VideoStatus = "READY"
	VideoFailed    VideoStatus = "FAILED"
)

// Video is a source recording registered with the backend. The upload
// transport itself is external; a video only enters the wizard once its
// status reaches READY.
type Video struct {
	ID         string      `json:"id"`
	Filename   string      `json:"filename"`
	Status     VideoStatus `json:"status"`
	DurationMS int64       `json:"duration_ms"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	HasAudio   bool        `json:"has_audio"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Ready reports whether the video can enter the wizard.
func (v Video) Ready() bool {
	return v.Status == VideoReady
}

// JobType identifies the backend work a job performs.
type JobType string

const (
	JobCut    JobType = "CUT"
	JobSafety JobType = "SAFETY"
)

var jobTypes = map[JobType]struct{}{
	JobCut:    {},
	JobSafety: {},
}

// ParseJobType converts a string into a known JobType.
func ParseJobType(value string) (JobType, bool) {
	normalized := JobType(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := jobTypes[normalized]
	return normalized, ok
}

// JobState represents the backend lifecycle of a job.
type JobState string

const (
	JobWaiting   JobState = "WAITING"
	JobRunning   JobState = "RUNNING"
	JobSucceeded JobState = "SUCCEEDED"
	JobFailed    JobState = "FAILED"
)

var jobStates = map[JobState]struct{}{
	JobWaiting:   {},
	JobRunning:   {},
	JobSucceeded: {},
	JobFailed:    {},
}

// ParseJobState converts a string into a known JobState.
func ParseJobState(value string) (JobState, bool) {
	normalized := JobState(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := jobStates[normalized]
	return normalized, ok
}

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is a long-running backend task (cutting a video, scanning a clip).
// State transitions are driven exclusively by push events or explicit
// refetch; the client never mutates a job.
type Job struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"job_type"`
	VideoID     string     `json:"video_id,omitempty"`
	ClipID      string     `json:"clip_id,omitempty"`
	State       JobState   `json:"state"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Target returns the id of the entity the job operates on.
func (j Job) Target() string {
	if j.ClipID != "" {
		return j.ClipID
	}
	return j.VideoID
}

// ClipStatus represents the publishing lifecycle of a clip.
type ClipStatus string

const (
	ClipDraft     ClipStatus = "DRAFT"
	ClipScheduled ClipStatus = "SCHEDULED"
	ClipLive      ClipStatus = "LIVE"
	ClipBlocked   ClipStatus = "BLOCKED"
)

// SafetyStatus is the safety classification verdict for a clip.
type SafetyStatus string

const (
	SafetySafe        SafetyStatus = "SAFE"
	SafetyNeedsReview SafetyStatus = "NEEDS_REVIEW"
	SafetyBlocked     SafetyStatus = "BLOCKED"
)

var safetyStatuses = map[SafetyStatus]struct{}{
	SafetySafe:        {},
	SafetyNeedsReview: {},
	SafetyBlocked:     {},
}

// ParseSafetyStatus converts a string into a known SafetyStatus.
func ParseSafetyStatus(value string) (SafetyStatus, bool) {
	normalized := SafetyStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := safetyStatuses[normalized]
	return normalized, ok
}

// Clip is an extracted segment of a video. Trim fields are mutated locally
// only through the edit history; the safety status is mutated only once a
// safety job resolves.
type Clip struct {
	ID              string       `json:"id"`
	VideoID         string       `json:"video_id"`
	StartMS         int64        `json:"start_ms"`
	EndMS           int64        `json:"end_ms"`
	Score           float64      `json:"score"`
	Status          ClipStatus   `json:"status"`
	SafetyStatus    SafetyStatus `json:"safety_status"`
	ScheduleAt      *time.Time   `json:"schedule_at,omitempty"`
	FileURL         string       `json:"file_url,omitempty"`
	ThumbURL        string       `json:"thumb_url,omitempty"`
	QualityOriginal bool         `json:"quality_original"`
	CreatedAt       time.Time    `json:"created_at"`
}

// DurationMS returns the length of the trim window.
func (c Clip) DurationMS() int64 {
	return c.EndMS - c.StartMS
}

// Window returns the clip's trim window.
func (c Clip) Window() TrimWindow {
	return TrimWindow{StartMS: c.StartMS, EndMS: c.EndMS}
}

// SafetyReport is the latest safety classification for a clip. A clip has
// at most one authoritative report at a time; latest wins.
type SafetyReport struct {
	ID             string         `json:"id"`
	ClipID         string         `json:"clip_id"`
	Verdict        SafetyStatus   `json:"verdict"`
	Confidence     float64        `json:"confidence"`
	PolicyCategory string         `json:"policy_category,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
