package backend

import (
	"encoding/json"
	"time"

	"clipstudio/internal/media"
)

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *string         `json:"error"`
}

// errorBody is the shape backends return alongside non-2xx statuses.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// jobRef is the creation response for cut and safety jobs.
type jobRef struct {
	JobID string `json:"jobId"`
}

// ClipUpdate carries the mutable clip fields for PATCH /clips/{id}.
// Nil fields are omitted from the request. Status, Caption, and ScheduleAt
// are set together when a clip is scheduled for publish.
type ClipUpdate struct {
	StartMS         *int64            `json:"start_ms,omitempty"`
	EndMS           *int64            `json:"end_ms,omitempty"`
	QualityOriginal *bool             `json:"quality_original,omitempty"`
	Status          *media.ClipStatus `json:"status,omitempty"`
	Caption         *string           `json:"caption,omitempty"`
	ScheduleAt      *time.Time        `json:"schedule_at,omitempty"`
}

// UploadTicket is the signed-URL handle for a new video upload. The PUT
// transfer itself happens outside this client.
type UploadTicket struct {
	VideoID   string `json:"videoId"`
	UploadURL string `json:"uploadUrl"`
}

// VideoMetadata is reported back once the out-of-band upload finishes.
type VideoMetadata struct {
	DurationMS int64 `json:"duration_ms"`
	Width      int   `json:"width"`
	Height     int   `json:"height"`
	HasAudio   bool  `json:"has_audio"`
}

// EventType names a push-channel event.
type EventType string

const (
	EventJobDone      EventType = "job.done"
	EventSafetyResult EventType = "safety.result"
	EventClipUpdated  EventType = "clip.updated"
	EventPublishState EventType = "publish.state"
)

// JobDoneEvent reports a job reaching a terminal state.
type JobDoneEvent struct {
	JobID   string         `json:"jobId"`
	Type    media.JobType  `json:"type"`
	State   media.JobState `json:"state"`
	VideoID string         `json:"videoId,omitempty"`
	ClipID  string         `json:"clipId,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SafetyResultEvent reports a safety verdict for a clip.
type SafetyResultEvent struct {
	ClipID     string             `json:"clipId"`
	Verdict    media.SafetyStatus `json:"verdict"`
	Confidence float64            `json:"confidence"`
	Timestamp  time.Time          `json:"timestamp"`
}

// ClipUpdatedEvent reports server-side clip mutations.
type ClipUpdatedEvent struct {
	ClipID        string    `json:"clipId"`
	FieldsChanged []string  `json:"fieldsChanged"`
	Timestamp     time.Time `json:"timestamp"`
}

// PublishStateEvent reports progress of a publish to a platform.
type PublishStateEvent struct {
	ClipID    string    `json:"clipId"`
	Platform  string    `json:"platform"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is one decoded push-channel frame. Exactly one payload field is
// non-nil, matching Type.
type Event struct {
	Type         EventType
	JobDone      *JobDoneEvent
	SafetyResult *SafetyResultEvent
	ClipUpdated  *ClipUpdatedEvent
	PublishState *PublishStateEvent
}

// frame is the wire shape of a push-channel message.
type frame struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}
