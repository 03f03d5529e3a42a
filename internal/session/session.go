package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipstudio/internal/history"
	"clipstudio/internal/media"
)

// ErrClipNotFound is returned when a clip id is not part of the session.
var ErrClipNotFound = errors.New("clip not in session")

// Checklist holds the readiness gates a clip must clear before publish.
type Checklist struct {
	Video    bool `json:"video"`
	Caption  bool `json:"caption"`
	Schedule bool `json:"schedule"`
}

// Complete reports whether every gate passed.
func (c Checklist) Complete() bool {
	return c.Video && c.Caption && c.Schedule
}

// TrackedJob is the persisted reference to a backend job so tracking can
// resume across invocations.
type TrackedJob struct {
	JobID  string `json:"job_id"`
	Target string `json:"target"`
	Done   bool   `json:"done"`
}

// PublishSettings holds the user-chosen publish parameters for the
// selected clip.
type PublishSettings struct {
	Caption    string     `json:"caption"`
	ScheduleAt *time.Time `json:"schedule_at,omitempty"`
	Platforms  []string   `json:"platforms,omitempty"`
}

// Session is the single-flight editing state shared by the wizard stages:
// the current video, its suggested clips, the selection, processing
// progress, and publish settings. It is the only cross-stage mutable state
// and is fully reset, never patched, when a new video is chosen.
//
// Session is not safe for concurrent use; the workflow machine serializes
// access to it.
type Session struct {
	ID             string                `json:"id"`
	Stage          string                `json:"stage,omitempty"`
	Video          *media.Video          `json:"video,omitempty"`
	Jobs           map[string]TrackedJob `json:"jobs,omitempty"`
	Clips          []media.Clip          `json:"clips,omitempty"`
	SelectedClipID string                `json:"selected_clip_id,omitempty"`
	Progress       int                   `json:"progress"`
	ErrorMsg       string                `json:"error_msg,omitempty"`
	RegenerateLeft int                   `json:"regenerate_left"`
	Publish        PublishSettings       `json:"publish"`
	Trim           *history.State        `json:"trim,omitempty"`
	Report         *media.SafetyReport   `json:"report,omitempty"`
	Quota          int                   `json:"quota"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// New creates an empty session with the configured regenerate quota.
func New(regenerateQuota int) *Session {
	return &Session{
		ID:             uuid.NewString(),
		RegenerateLeft: regenerateQuota,
		Quota:          regenerateQuota,
		UpdatedAt:      time.Now().UTC(),
	}
}

// SetVideo resets the whole session around a new video. Everything scoped
// to the previous video is discarded so no stale state leaks forward.
func (s *Session) SetVideo(video media.Video) {
	s.Video = &video
	s.Jobs = nil
	s.Clips = nil
	s.SelectedClipID = ""
	s.Progress = 0
	s.ErrorMsg = ""
	s.RegenerateLeft = s.Quota
	s.Publish = PublishSettings{}
	s.Trim = nil
	s.Report = nil
	s.touch()
}

// SetClips replaces the suggestion list. The first clip is auto-selected
// when nothing is selected yet or the previous selection disappeared.
func (s *Session) SetClips(clips []media.Clip) {
	s.Clips = clips
	if _, ok := s.clip(s.SelectedClipID); !ok {
		s.SelectedClipID = ""
		s.Trim = nil
		s.Report = nil
		if len(clips) > 0 {
			s.SelectedClipID = clips[0].ID
		}
	}
	s.touch()
}

// SelectClip marks a suggestion as the clip being edited.
func (s *Session) SelectClip(clipID string) error {
	if _, ok := s.clip(clipID); !ok {
		return ErrClipNotFound
	}
	if clipID != s.SelectedClipID {
		s.SelectedClipID = clipID
		s.Trim = nil
		s.Report = nil
	}
	s.touch()
	return nil
}

// SelectedClip returns the clip currently being edited.
func (s *Session) SelectedClip() (media.Clip, bool) {
	return s.clip(s.SelectedClipID)
}

func (s *Session) clip(clipID string) (media.Clip, bool) {
	if clipID == "" {
		return media.Clip{}, false
	}
	for _, clip := range s.Clips {
		if clip.ID == clipID {
			return clip, true
		}
	}
	return media.Clip{}, false
}

// UpdateClip overwrites the stored copy of a clip, keeping the session in
// step with edits persisted to the backend.
func (s *Session) UpdateClip(clip media.Clip) error {
	for i := range s.Clips {
		if s.Clips[i].ID == clip.ID {
			s.Clips[i] = clip
			s.touch()
			return nil
		}
	}
	return ErrClipNotFound
}

// SetJob records the tracked backend job for a kind, superseding any prior
// reference of that kind.
func (s *Session) SetJob(kind, jobID, target string) {
	if s.Jobs == nil {
		s.Jobs = make(map[string]TrackedJob)
	}
	s.Jobs[kind] = TrackedJob{JobID: jobID, Target: target}
	s.touch()
}

// FinishJob marks the tracked job for a kind as resolved. Job ids that no
// longer match the tracked reference are ignored.
func (s *Session) FinishJob(kind, jobID string) {
	job, ok := s.Jobs[kind]
	if !ok || job.JobID != jobID {
		return
	}
	job.Done = true
	s.Jobs[kind] = job
	s.touch()
}

// Job returns the tracked job reference for a kind.
func (s *Session) Job(kind string) (TrackedJob, bool) {
	job, ok := s.Jobs[kind]
	return job, ok
}

// SetProgress records processing progress for the active stage.
func (s *Session) SetProgress(progress int) {
	s.Progress = progress
	s.touch()
}

// SetError records a stage-local error message; empty clears it.
func (s *Session) SetError(message string) {
	s.ErrorMsg = message
	s.touch()
}

// SetReport stores the safety report for the selected clip.
func (s *Session) SetReport(report *media.SafetyReport) {
	s.Report = report
	s.touch()
}

// ConsumeRegenerate decrements the regenerate quota. It reports false,
// without side effects, when the quota is exhausted.
func (s *Session) ConsumeRegenerate() bool {
	if s.RegenerateLeft <= 0 {
		return false
	}
	s.RegenerateLeft--
	s.touch()
	return true
}

// SetCaption stores the publish caption.
func (s *Session) SetCaption(caption string) {
	s.Publish.Caption = strings.TrimSpace(caption)
	s.touch()
}

// SetScheduleAt stores the publish schedule time.
func (s *Session) SetScheduleAt(at time.Time) {
	s.Publish.ScheduleAt = &at
	s.touch()
}

// SetPlatforms stores the publish platform toggles.
func (s *Session) SetPlatforms(platforms []string) {
	s.Publish.Platforms = platforms
	s.touch()
}

// Checklist derives the readiness gates from the current session: a safety
// scan ran for the selected clip, the caption is set, and a schedule time
// is chosen.
func (s *Session) Checklist() Checklist {
	return Checklist{
		Video:    s.Report != nil && s.Report.ClipID == s.SelectedClipID,
		Caption:  strings.TrimSpace(s.Publish.Caption) != "",
		Schedule: s.Publish.ScheduleAt != nil,
	}
}

// Verdict returns the safety verdict for the selected clip, or empty when
// no report exists yet.
func (s *Session) Verdict() media.SafetyStatus {
	if s.Report == nil || s.Report.ClipID != s.SelectedClipID {
		return ""
	}
	return s.Report.Verdict
}

// CanPublish reports whether the selected clip clears the publish gate:
// verdict SAFE and the full readiness checklist.
func (s *Session) CanPublish() bool {
	return s.Verdict() == media.SafetySafe && s.Checklist().Complete()
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}
