package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"clipstudio/internal/backend"
	"clipstudio/internal/config"
	"clipstudio/internal/history"
	"clipstudio/internal/jobs"
	"clipstudio/internal/logging"
	"clipstudio/internal/media"
	"clipstudio/internal/notifications"
	"clipstudio/internal/services"
	"clipstudio/internal/session"
)

// API is the backend surface the machine needs beyond job tracking.
// *backend.Client satisfies it.
type API interface {
	UpdateClip(ctx context.Context, clipID string, update backend.ClipUpdate) (media.Clip, error)
	RequestReview(ctx context.Context, clipID, evidenceURL string) error
	GetVideo(ctx context.Context, videoID string) (media.Video, error)
	CreateUploadURL(ctx context.Context, filename string, size int64, mimeType string) (backend.UploadTicket, error)
	CompleteVideo(ctx context.Context, videoID string, status media.VideoStatus, meta backend.VideoMetadata) (media.Video, error)
}

// trimPersister writes debounced trim edits through the clip update call.
type trimPersister struct {
	api API
}

func (p trimPersister) PersistTrim(ctx context.Context, clipID string, snapshot history.Snapshot) error {
	start, end, quality := snapshot.StartMS, snapshot.EndMS, snapshot.QualityOriginal
	_, err := p.api.UpdateClip(ctx, clipID, backend.ClipUpdate{
		StartMS:         &start,
		EndMS:           &end,
		QualityOriginal: &quality,
	})
	return err
}

// Option customizes machine construction.
type Option func(*Machine)

// WithNotifier attaches a notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(m *Machine) { m.notifier = notifier }
}

// WithStore attaches session persistence.
func WithStore(store *session.Store) Option {
	return func(m *Machine) { m.store = store }
}

// WithClock overrides the debounce clock, for tests.
func WithClock(clock history.Clock) Option {
	return func(m *Machine) { m.clock = clock }
}

// Machine owns the wizard: the editing session, the job bridge, and the
// trim history for the selected clip. All mutations are serialized through
// its mutex; stage handlers run to completion before the next is applied.
type Machine struct {
	cfg      *config.Config
	api      API
	bridge   *jobs.Bridge
	notifier notifications.Service
	store    *session.Store
	clock    history.Clock
	logger   *slog.Logger

	scheduler *history.Scheduler

	mu    sync.Mutex
	stage Stage
	sess  *session.Session
	hist  *history.Log
}

// NewMachine builds a wizard machine starting at the Upload stage with a
// fresh session.
func NewMachine(cfg *config.Config, api API, bridge *jobs.Bridge, logger *slog.Logger, opts ...Option) *Machine {
	m := &Machine{
		cfg:      cfg,
		api:      api,
		bridge:   bridge,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewComponentLogger(logger, "workflow"),
		stage:    StageUpload,
		sess:     session.New(cfg.Workflow.RegenerateQuota),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.scheduler = history.NewScheduler(
		trimPersister{api: api},
		time.Duration(cfg.Workflow.DebounceMS)*time.Millisecond,
		m.clock,
		logger,
	)
	return m
}

// Stage returns the current wizard stage.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stage
}

// Snapshot returns a copy of the current session for display.
func (m *Machine) Snapshot() session.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := *m.sess
	snapshot.Stage = string(m.stage)
	return snapshot
}

// Result reports the observable state of the current stage.
func (m *Machine) Result() StageResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultLocked()
}

func (m *Machine) resultLocked() StageResult {
	result := StageResult{Stage: m.stage, State: jobs.StageIdle}
	if kind, ok := m.stage.JobKind(); ok {
		state := m.bridge.State(kind)
		result.State = state.State
		result.Progress = state.Progress
		result.Message = state.Message
	}
	if m.sess.ErrorMsg != "" {
		result.State = jobs.StageFailed
		result.Message = m.sess.ErrorMsg
	}
	if m.stage == StageDone {
		result.State = jobs.StageCompleted
		result.Progress = 100
	}
	return result
}

// Restore loads the persisted session, if any, and resumes tracking its
// unresolved jobs.
func (m *Machine) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	sess, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = sess
	if stage, ok := ParseStage(sess.Stage); ok {
		m.stage = stage
	}
	for kind, job := range sess.Jobs {
		parsed, ok := media.ParseJobType(kind)
		if !ok || job.Done {
			continue
		}
		m.bridge.Track(parsed, job.JobID, job.Target)
	}
	if m.stage == StageFineTune || m.stage == StageSafetyCheck {
		if clip, ok := m.sess.SelectedClip(); ok {
			if sess.Trim != nil && sess.Trim.ClipID == clip.ID {
				// The persisted history keeps undo and redo working across
				// invocations; its baseline is the originally suggested window.
				m.hist = history.RestoreLog(*sess.Trim, m.cfg.Workflow.MinTrimMS, m.cfg.Workflow.MaxTrimMS,
					history.WithScheduler(m.scheduler))
			} else {
				m.hist = history.NewLog(clip, m.cfg.Workflow.MinTrimMS, m.cfg.Workflow.MaxTrimMS,
					history.WithScheduler(m.scheduler))
			}
		}
	}
	m.logger.Info("session restored",
		logging.Args(
			logging.String(logging.FieldSessionID, sess.ID),
			logging.String(logging.FieldStage, string(m.stage)),
		)...)
	return nil
}

// Close flushes pending trim writes and persists the session.
func (m *Machine) Close(ctx context.Context) error {
	if err := m.scheduler.Flush(ctx); err != nil {
		m.logger.Warn("flush trim writes", logging.Args(logging.Error(err))...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistLocked(ctx)
}

func (m *Machine) persistLocked(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	m.sess.Stage = string(m.stage)
	m.sess.Trim = nil
	if m.hist != nil {
		state := m.hist.State()
		m.sess.Trim = &state
	}
	return m.store.Save(ctx, m.sess)
}

func guardErr(stage Stage, message string) error {
	return services.Wrap(services.ErrValidation, string(stage), "advance", message, nil)
}

// RegisterUpload starts a new editing pass: it registers the video with the
// backend and fully resets the session around it. The PUT transfer to the
// returned signed URL happens outside the machine.
func (m *Machine) RegisterUpload(ctx context.Context, filename string, size int64, mimeType string) (backend.UploadTicket, error) {
	ticket, err := m.api.CreateUploadURL(ctx, filename, size, mimeType)
	if err != nil {
		return backend.UploadTicket{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.SetVideo(media.Video{
		ID:       ticket.VideoID,
		Filename: filename,
		Status:   media.VideoUploading,
	})
	m.stage = StageUpload
	m.hist = nil
	if err := m.persistLocked(ctx); err != nil {
		return backend.UploadTicket{}, err
	}
	m.logger.Info("upload registered",
		logging.Args(
			logging.String(logging.FieldVideoID, ticket.VideoID),
			logging.String("filename", filename),
		)...)
	return ticket, nil
}

// CompleteUpload reports the upload outcome with extracted metadata and
// marks the session video READY.
func (m *Machine) CompleteUpload(ctx context.Context, meta backend.VideoMetadata) (media.Video, error) {
	m.mu.Lock()
	if m.sess.Video == nil {
		m.mu.Unlock()
		return media.Video{}, guardErr(StageUpload, "no upload in progress")
	}
	videoID := m.sess.Video.ID
	m.mu.Unlock()

	video, err := m.api.CompleteVideo(ctx, videoID, media.VideoReady, meta)
	if err != nil {
		return media.Video{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.Video = &video
	if err := m.persistLocked(ctx); err != nil {
		return media.Video{}, err
	}
	m.notify(func(svc notifications.Service) error {
		return svc.NotifyUploadComplete(ctx, video.Filename)
	})
	return video, nil
}

// Advance moves the wizard one stage forward after checking the stage's
// gating conditions. Guard failures return a validation error and leave the
// stage unchanged; entry-action failures land in the new stage with a
// failed result, retried by Retry.
func (m *Machine) Advance(ctx context.Context) (StageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stage {
	case StageUpload:
		if m.sess.Video == nil || !m.sess.Video.Ready() {
			return m.resultLocked(), guardErr(m.stage, "video upload has not completed")
		}
		m.stage = StageSuggestions
		return m.enterSuggestionsLocked(ctx)

	case StageSuggestions:
		if len(m.sess.Clips) == 0 {
			return m.resultLocked(), guardErr(m.stage, "no clip suggestions loaded yet")
		}
		if _, ok := m.sess.SelectedClip(); !ok {
			return m.resultLocked(), guardErr(m.stage, "no clip selected")
		}
		m.stage = StageFineTune
		return m.enterFineTuneLocked(ctx)

	case StageFineTune:
		clip, ok := m.sess.SelectedClip()
		if !ok {
			return m.resultLocked(), guardErr(m.stage, "no clip selected")
		}
		window := clip.Window()
		if m.hist != nil {
			window = m.hist.Live().Window()
		}
		if err := media.ValidateTrim(window, m.cfg.Workflow.MinTrimMS, m.cfg.Workflow.MaxTrimMS); err != nil {
			return m.resultLocked(), guardErr(m.stage, err.Error())
		}
		// The safety scan must see the final trim, not a pending debounce.
		if err := m.scheduler.Flush(ctx); err != nil {
			m.sess.SetError(err.Error())
			_ = m.persistLocked(ctx)
			return m.resultLocked(), nil
		}
		m.stage = StageSafetyCheck
		return m.enterSafetyCheckLocked(ctx)

	case StageSafetyCheck:
		return m.publishLocked(ctx)

	default:
		return m.resultLocked(), guardErr(m.stage, "wizard already finished")
	}
}

// Back moves the wizard one stage backward. Fetched data is kept; going
// back never discards clips, reports, or edit history.
func (m *Machine) Back() (Stage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.stage.Prev()
	if !ok {
		return m.stage, guardErr(m.stage, "already at the first stage")
	}
	m.stage = prev
	m.sess.SetError("")
	return m.stage, nil
}

// Retry clears the stage-local error and re-runs the current stage's entry
// action.
func (m *Machine) Retry(ctx context.Context) (StageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.SetError("")
	switch m.stage {
	case StageSuggestions:
		return m.enterSuggestionsLocked(ctx)
	case StageSafetyCheck:
		return m.enterSafetyCheckLocked(ctx)
	default:
		return m.resultLocked(), nil
	}
}

func (m *Machine) enterSuggestionsLocked(ctx context.Context) (StageResult, error) {
	state := m.bridge.State(media.JobCut)
	if state.State == jobs.StageAnalyzing || state.State == jobs.StageCompleted {
		if state.Target == m.sess.Video.ID {
			return m.resultLocked(), m.persistLocked(ctx)
		}
	}
	return m.startJobLocked(ctx, media.JobCut, m.sess.Video.ID)
}

func (m *Machine) enterFineTuneLocked(ctx context.Context) (StageResult, error) {
	clip, _ := m.sess.SelectedClip()
	if m.hist == nil || m.hist.ClipID() != clip.ID {
		m.hist = history.NewLog(clip, m.cfg.Workflow.MinTrimMS, m.cfg.Workflow.MaxTrimMS,
			history.WithScheduler(m.scheduler))
	}
	return m.resultLocked(), m.persistLocked(ctx)
}

func (m *Machine) enterSafetyCheckLocked(ctx context.Context) (StageResult, error) {
	clip, _ := m.sess.SelectedClip()
	state := m.bridge.State(media.JobSafety)
	if state.State == jobs.StageAnalyzing || state.State == jobs.StageCompleted {
		if state.Target == clip.ID {
			return m.resultLocked(), m.persistLocked(ctx)
		}
	}
	return m.startJobLocked(ctx, media.JobSafety, clip.ID)
}

// startJobLocked creates a backend job and records it in the session. Job
// creation failures are stage-local; only auth errors propagate.
func (m *Machine) startJobLocked(ctx context.Context, kind media.JobType, target string) (StageResult, error) {
	jobID, err := m.bridge.Start(ctx, kind, target)
	if err != nil {
		if services.IsFatal(err) {
			return m.resultLocked(), err
		}
		m.sess.SetError(err.Error())
		_ = m.persistLocked(ctx)
		m.notify(func(svc notifications.Service) error {
			return svc.NotifyError(ctx, err, string(m.stage))
		})
		return m.resultLocked(), nil
	}
	m.sess.SetError("")
	m.sess.SetJob(string(kind), jobID, target)
	m.sess.SetProgress(m.bridge.State(kind).Progress)
	return m.resultLocked(), m.persistLocked(ctx)
}

// Regenerate consumes one regenerate credit and re-starts the cut job.
// When the quota is exhausted it refuses without side effects; manual trim
// in fine-tune remains available.
func (m *Machine) Regenerate(ctx context.Context) (StageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != StageSuggestions {
		return m.resultLocked(), guardErr(m.stage, "regenerate is only available in suggestions")
	}
	if !m.sess.ConsumeRegenerate() {
		return m.resultLocked(), guardErr(m.stage, "regenerate quota exhausted; adjust the clip manually in fine-tune")
	}
	return m.startJobLocked(ctx, media.JobCut, m.sess.Video.ID)
}

// Select marks a suggestion as the clip being edited.
func (m *Machine) Select(ctx context.Context, clipID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.sess.SelectClip(clipID); err != nil {
		return services.Wrap(services.ErrValidation, string(m.stage), "select clip", clipID, err)
	}
	if m.hist != nil && m.hist.ClipID() != clipID {
		m.hist = nil
	}
	return m.persistLocked(ctx)
}

// Wait blocks until the current stage's tracked job resolves, applying the
// outcome to the session. Stages without a tracked job return immediately.
func (m *Machine) Wait(ctx context.Context) (StageResult, error) {
	m.mu.Lock()
	kind, ok := m.stage.JobKind()
	if !ok {
		result := m.resultLocked()
		m.mu.Unlock()
		return result, nil
	}
	m.mu.Unlock()

	watchdog := time.Duration(m.cfg.Workflow.JobWatchdogSecs) * time.Second
	timeout := time.Duration(m.cfg.Workflow.JobTimeoutSecs) * time.Second
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	update, err := m.bridge.Await(ctx, kind, watchdog)
	if err != nil {
		return m.Result(), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyUpdateLocked(ctx, update)
	if err := m.persistLocked(ctx); err != nil {
		return m.resultLocked(), err
	}
	return m.resultLocked(), nil
}

// HandleUpdate applies one bridge transition to the session. Wait uses it
// internally; an event pump can feed it directly.
func (m *Machine) HandleUpdate(ctx context.Context, update jobs.Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyUpdateLocked(ctx, update)
	_ = m.persistLocked(ctx)
}

func (m *Machine) applyUpdateLocked(ctx context.Context, update jobs.Update) {
	switch update.State {
	case jobs.StageFailed:
		m.sess.FinishJob(string(update.Kind), update.JobID)
		m.sess.SetError(update.Message)
		m.notify(func(svc notifications.Service) error {
			return svc.NotifyError(ctx, fmt.Errorf("%s", update.Message), string(m.stage))
		})
	case jobs.StageCompleted:
		m.sess.FinishJob(string(update.Kind), update.JobID)
		m.sess.SetError("")
		m.sess.SetProgress(update.Progress)
		switch update.Kind {
		case media.JobCut:
			m.sess.SetClips(update.Clips)
			m.notify(func(svc notifications.Service) error {
				return svc.NotifyClipsReady(ctx, len(update.Clips))
			})
		case media.JobSafety:
			m.sess.SetReport(update.Report)
			if update.Report != nil {
				if clip, ok := m.sess.SelectedClip(); ok {
					clip.SafetyStatus = update.Report.Verdict
					_ = m.sess.UpdateClip(clip)
				}
				m.notify(func(svc notifications.Service) error {
					return svc.NotifySafetyVerdict(ctx, update.Report.Verdict)
				})
			}
		}
	case jobs.StageAnalyzing:
		m.sess.SetProgress(update.Progress)
	}
}

// ApplyTrim records a trim or quality edit through the history log. Nil
// fields keep their live value.
func (m *Machine) ApplyTrim(start, end *int64, quality *bool) (history.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stage != StageFineTune || m.hist == nil {
		return history.Snapshot{}, guardErr(m.stage, "trim edits are only available in fine-tune")
	}

	target := m.hist.Live()
	parts := make([]string, 0, 2)
	if start != nil {
		target.StartMS = *start
	}
	if end != nil {
		target.EndMS = *end
	}
	if start != nil || end != nil {
		parts = append(parts, fmt.Sprintf("Trim %s-%s", media.FormatMS(target.StartMS), media.FormatMS(target.EndMS)))
	}
	if quality != nil {
		target.QualityOriginal = *quality
		if *quality {
			parts = append(parts, "Quality original")
		} else {
			parts = append(parts, "Quality compressed")
		}
	}

	if err := m.hist.Apply(target, strings.Join(parts, ", ")); err != nil {
		return m.hist.Live(), err
	}
	m.syncClipFromHistoryLocked()
	return m.hist.Live(), nil
}

// Undo reverts the most recent edit. It reports false at the baseline.
func (m *Machine) Undo() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hist == nil {
		return "", false
	}
	description, ok := m.hist.Undo()
	if ok {
		m.syncClipFromHistoryLocked()
	}
	return description, ok
}

// Redo re-applies the most recently undone edit.
func (m *Machine) Redo() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hist == nil {
		return "", false
	}
	description, ok := m.hist.Redo()
	if ok {
		m.syncClipFromHistoryLocked()
	}
	return description, ok
}

// ResetTrim restores the clip's baseline window as a new, undoable edit.
func (m *Machine) ResetTrim() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hist == nil {
		return guardErr(m.stage, "trim edits are only available in fine-tune")
	}
	m.hist.Reset()
	m.syncClipFromHistoryLocked()
	return nil
}

// TrimLog exposes the edit history for the selected clip, or nil before
// fine-tune is entered.
func (m *Machine) TrimLog() *history.Log {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist
}

func (m *Machine) syncClipFromHistoryLocked() {
	clip, ok := m.sess.SelectedClip()
	if !ok {
		return
	}
	live := m.hist.Live()
	clip.StartMS = live.StartMS
	clip.EndMS = live.EndMS
	clip.QualityOriginal = live.QualityOriginal
	_ = m.sess.UpdateClip(clip)
}

// SetCaption stores the publish caption.
func (m *Machine) SetCaption(ctx context.Context, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.SetCaption(caption)
	return m.persistLocked(ctx)
}

// SetSchedule stores the publish schedule time.
func (m *Machine) SetSchedule(ctx context.Context, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.SetScheduleAt(at)
	return m.persistLocked(ctx)
}

// SetPlatforms stores the publish platform toggles.
func (m *Machine) SetPlatforms(ctx context.Context, platforms []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess.SetPlatforms(platforms)
	return m.persistLocked(ctx)
}

// ScheduleNotice returns a non-blocking warning for schedule times that
// fall in the overnight dead zone, or empty when the time looks fine.
func ScheduleNotice(at time.Time) string {
	hour := at.Local().Hour()
	if hour >= 2 && hour < 6 {
		return "scheduled during off-peak hours; engagement is usually lower between 02:00 and 06:00"
	}
	return ""
}

// RequestReview submits the NEEDS_REVIEW sub-flow for the selected clip.
// The verdict stays NEEDS_REVIEW until a reviewer acts.
func (m *Machine) RequestReview(ctx context.Context, evidenceURL string) error {
	m.mu.Lock()
	if m.stage != StageSafetyCheck {
		m.mu.Unlock()
		return guardErr(m.stage, "review requests are only available in safety-check")
	}
	if m.sess.Verdict() != media.SafetyNeedsReview {
		verdict := m.sess.Verdict()
		m.mu.Unlock()
		return guardErr(StageSafetyCheck, fmt.Sprintf("review requests require a NEEDS_REVIEW verdict, have %q", verdict))
	}
	clip, _ := m.sess.SelectedClip()
	m.mu.Unlock()

	return m.api.RequestReview(ctx, clip.ID, evidenceURL)
}

// Publish schedules the selected clip and finishes the wizard. It is gated
// on a SAFE verdict and the full readiness checklist; a BLOCKED verdict
// only permits returning to fine-tune.
func (m *Machine) Publish(ctx context.Context) (media.Clip, error) {
	if err := m.scheduler.Flush(ctx); err != nil {
		return media.Clip{}, services.Wrap(services.ErrFetch, string(StageSafetyCheck), "flush trim edits", "", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.publishLocked(ctx)
	if err != nil {
		return media.Clip{}, err
	}
	clip, _ := m.sess.SelectedClip()
	return clip, nil
}

func (m *Machine) publishLocked(ctx context.Context) (StageResult, error) {
	if m.stage != StageSafetyCheck {
		return m.resultLocked(), guardErr(m.stage, "publish is only available in safety-check")
	}
	switch m.sess.Verdict() {
	case media.SafetySafe:
	case media.SafetyBlocked:
		return m.resultLocked(), guardErr(m.stage, "clip is BLOCKED; publish is disabled, go back to fine-tune and adjust the clip")
	case media.SafetyNeedsReview:
		return m.resultLocked(), guardErr(m.stage, "clip needs manual review; use request-review")
	default:
		return m.resultLocked(), guardErr(m.stage, "safety check has not completed")
	}
	if checklist := m.sess.Checklist(); !checklist.Complete() {
		missing := make([]string, 0, 3)
		if !checklist.Video {
			missing = append(missing, "video scan")
		}
		if !checklist.Caption {
			missing = append(missing, "caption")
		}
		if !checklist.Schedule {
			missing = append(missing, "schedule time")
		}
		return m.resultLocked(), guardErr(m.stage, "readiness checklist incomplete: "+strings.Join(missing, ", "))
	}

	clip, _ := m.sess.SelectedClip()
	status := media.ClipScheduled
	caption := m.sess.Publish.Caption
	updated, err := m.api.UpdateClip(ctx, clip.ID, backend.ClipUpdate{
		Status:     &status,
		Caption:    &caption,
		ScheduleAt: m.sess.Publish.ScheduleAt,
	})
	if err != nil {
		if services.IsFatal(err) {
			return m.resultLocked(), err
		}
		m.sess.SetError(err.Error())
		_ = m.persistLocked(ctx)
		return m.resultLocked(), nil
	}

	_ = m.sess.UpdateClip(updated)
	m.sess.SetError("")
	m.stage = StageDone
	if err := m.persistLocked(ctx); err != nil {
		return m.resultLocked(), err
	}
	m.notify(func(svc notifications.Service) error {
		if m.sess.Publish.ScheduleAt == nil {
			return nil
		}
		return svc.NotifyPublishScheduled(ctx, *m.sess.Publish.ScheduleAt)
	})
	m.logger.Info("clip scheduled",
		logging.Args(
			logging.String(logging.FieldClipID, clip.ID),
			logging.String(logging.FieldSessionID, m.sess.ID),
		)...)
	return m.resultLocked(), nil
}

func (m *Machine) notify(send func(notifications.Service) error) {
	if m.notifier == nil {
		return
	}
	if err := send(m.notifier); err != nil {
		m.logger.Warn("notification failed", logging.Args(logging.Error(err))...)
	}
}
