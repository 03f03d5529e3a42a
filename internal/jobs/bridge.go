package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipstudio/internal/backend"
	"clipstudio/internal/logging"
	"clipstudio/internal/media"
	"clipstudio/internal/services"
)

// StageState is the observable processing state for one job kind.
type StageState string

const (
	StageIdle      StageState = "idle"
	StageAnalyzing StageState = "analyzing"
	StageCompleted StageState = "completed"
	StageFailed    StageState = "failed"
)

// Progress percentages reported for non-terminal job states.
const (
	progressWaiting   = 10
	progressRunning   = 50
	progressCompleted = 100
)

// Update is one observable transition of a tracked job kind. Clips is set on
// CUT completion, Report on SAFETY completion.
type Update struct {
	Kind     media.JobType
	JobID    string
	Target   string
	State    StageState
	Progress int
	Message  string
	Clips    []media.Clip
	Report   *media.SafetyReport
}

// API is the backend surface the bridge needs: job creation, job status, and
// artifact fetches. *backend.Client satisfies it.
type API interface {
	CreateCutJob(ctx context.Context, videoID string, maxClips int) (string, error)
	CreateSafetyJob(ctx context.Context, clipID string) (string, error)
	GetJob(ctx context.Context, jobID string) (media.Job, error)
	ListClips(ctx context.Context, videoID string, status media.ClipStatus) ([]media.Clip, error)
	GetSafetyReport(ctx context.Context, clipID string) (*media.SafetyReport, error)
}

// EventSource delivers decoded push events; *backend.Hub satisfies it.
type EventSource interface {
	Subscribe(ctx context.Context, types ...backend.EventType) (<-chan backend.Event, func(), error)
}

type trackedJob struct {
	jobID    string
	kind     media.JobType
	target   string
	state    StageState
	progress int
	message  string
	update   Update
}

// Bridge tracks one authoritative job per kind and publishes stage updates.
type Bridge struct {
	api      API
	logger   *slog.Logger
	maxClips int

	mu      sync.Mutex
	tracked map[media.JobType]*trackedJob
	subs    map[media.JobType]map[string]chan Update
}

// NewBridge constructs a Bridge. maxClips is forwarded to cut-job creation.
func NewBridge(api API, maxClips int, logger *slog.Logger) *Bridge {
	return &Bridge{
		api:      api,
		logger:   logging.NewComponentLogger(logger, "job-bridge"),
		maxClips: maxClips,
		tracked:  make(map[media.JobType]*trackedJob),
		subs:     make(map[media.JobType]map[string]chan Update),
	}
}

// Start issues a job creation request and makes the returned job the tracked
// job for its kind. Any previously tracked job of the same kind is
// superseded: its late events will be rejected, and the backend job itself
// is not cancelled.
func (b *Bridge) Start(ctx context.Context, kind media.JobType, target string) (string, error) {
	var (
		jobID string
		err   error
	)
	switch kind {
	case media.JobCut:
		jobID, err = b.api.CreateCutJob(ctx, target, b.maxClips)
	case media.JobSafety:
		jobID, err = b.api.CreateSafetyJob(ctx, target)
	default:
		return "", services.Wrap(services.ErrValidation, "jobs", "start", fmt.Sprintf("unknown job kind %q", kind), nil)
	}
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	if prior := b.tracked[kind]; prior != nil && prior.jobID != jobID {
		b.logger.Info("tracked job superseded",
			logging.Args(
				logging.String(logging.FieldJobType, string(kind)),
				logging.String("superseded_job_id", prior.jobID),
				logging.String(logging.FieldJobID, jobID),
			)...)
	}
	tracked := &trackedJob{
		jobID:    jobID,
		kind:     kind,
		target:   target,
		state:    StageAnalyzing,
		progress: progressWaiting,
	}
	b.tracked[kind] = tracked
	update := tracked.snapshot()
	b.mu.Unlock()

	b.publish(update)
	return jobID, nil
}

// Track adopts an existing backend job as the tracked job for its kind
// without creating a new one. Used when a persisted session resumes; the
// adopted job starts in analyzing and is resolved by events or Refetch.
func (b *Bridge) Track(kind media.JobType, jobID, target string) {
	b.mu.Lock()
	tracked := &trackedJob{
		jobID:    jobID,
		kind:     kind,
		target:   target,
		state:    StageAnalyzing,
		progress: progressWaiting,
	}
	b.tracked[kind] = tracked
	update := tracked.snapshot()
	b.mu.Unlock()

	b.publish(update)
}

// State returns the current stage snapshot for a kind.
func (b *Bridge) State(kind media.JobType) Update {
	b.mu.Lock()
	defer b.mu.Unlock()
	tracked := b.tracked[kind]
	if tracked == nil {
		return Update{Kind: kind, State: StageIdle}
	}
	return tracked.snapshot()
}

// Subscribe returns a channel of stage updates for a kind plus an
// unsubscribe handle.
func (b *Bridge) Subscribe(kind media.JobType) (<-chan Update, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[kind] == nil {
		b.subs[kind] = make(map[string]chan Update)
	}
	id := uuid.NewString()
	ch := make(chan Update, 16)
	b.subs[kind][id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[kind], id)
	}
}

// HandleEvent applies one push event. Events whose job id does not match the
// currently tracked job of that kind are ignored.
func (b *Bridge) HandleEvent(ctx context.Context, event backend.Event) {
	if event.Type != backend.EventJobDone || event.JobDone == nil {
		return
	}
	done := event.JobDone
	b.applyTerminal(ctx, done.Type, done.JobID, done.State, done.Error)
}

// Refetch pulls current job state over REST and feeds it through the same
// transition logic as push events. It is the fallback when no event arrives.
func (b *Bridge) Refetch(ctx context.Context, kind media.JobType) error {
	b.mu.Lock()
	tracked := b.tracked[kind]
	if tracked == nil || tracked.state != StageAnalyzing {
		b.mu.Unlock()
		return nil
	}
	jobID := tracked.jobID
	b.mu.Unlock()

	job, err := b.api.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	if job.State.Terminal() {
		b.applyTerminal(ctx, kind, job.ID, job.State, job.ErrorMsg)
		return nil
	}

	progress := progressWaiting
	if job.State == media.JobRunning {
		progress = progressRunning
	}
	b.mu.Lock()
	tracked = b.tracked[kind]
	if tracked == nil || tracked.jobID != jobID || tracked.state != StageAnalyzing {
		b.mu.Unlock()
		return nil
	}
	changed := tracked.progress != progress
	tracked.progress = progress
	update := tracked.snapshot()
	b.mu.Unlock()
	if changed {
		b.publish(update)
	}
	return nil
}

// Await blocks until the tracked job of a kind leaves analyzing, polling via
// Refetch every watchdog interval in case the push channel stays silent.
func (b *Bridge) Await(ctx context.Context, kind media.JobType, watchdog time.Duration) (Update, error) {
	if watchdog <= 0 {
		watchdog = 30 * time.Second
	}
	updates, unsubscribe := b.Subscribe(kind)
	defer unsubscribe()

	if current := b.State(kind); current.State != StageAnalyzing {
		return current, nil
	}

	ticker := time.NewTicker(watchdog)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return b.State(kind), ctx.Err()
		case update := <-updates:
			if update.State != StageAnalyzing {
				return update, nil
			}
		case <-ticker.C:
			if err := b.Refetch(ctx, kind); err != nil && services.IsFatal(err) {
				return b.State(kind), err
			}
		}
	}
}

// Listen pumps push events into the bridge until ctx is cancelled.
func (b *Bridge) Listen(ctx context.Context, source EventSource) error {
	events, unsubscribe, err := source.Subscribe(ctx, backend.EventJobDone)
	if err != nil {
		return err
	}
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				b.HandleEvent(ctx, event)
			}
		}
	}()
	return nil
}

// applyTerminal is the single transition path shared by push and pull
// delivery. The artifact fetch happens outside the lock; the tracked job is
// re-checked before committing so a supersession during the fetch still wins.
func (b *Bridge) applyTerminal(ctx context.Context, kind media.JobType, jobID string, state media.JobState, errorMsg string) {
	b.mu.Lock()
	tracked := b.tracked[kind]
	if tracked == nil || tracked.jobID != jobID {
		trackedID := ""
		if tracked != nil {
			trackedID = tracked.jobID
		}
		b.mu.Unlock()
		b.logger.Debug("ignoring event for stale job",
			logging.Args(
				logging.String(logging.FieldJobType, string(kind)),
				logging.String(logging.FieldJobID, jobID),
				logging.String("tracked_job_id", trackedID),
			)...)
		return
	}
	if tracked.state == StageCompleted || tracked.state == StageFailed {
		b.mu.Unlock()
		return
	}
	target := tracked.target
	b.mu.Unlock()

	switch state {
	case media.JobFailed:
		message := errorMsg
		if message == "" {
			message = "job failed"
		}
		b.commit(kind, jobID, Update{
			Kind: kind, JobID: jobID, Target: target,
			State: StageFailed, Message: message,
		})
	case media.JobSucceeded:
		update, err := b.fetchArtifact(ctx, kind, jobID, target)
		if err != nil {
			// The job succeeded; delivering its result did not.
			b.commit(kind, jobID, Update{
				Kind: kind, JobID: jobID, Target: target,
				State: StageFailed, Message: err.Error(),
			})
			return
		}
		b.commit(kind, jobID, update)
	}
}

func (b *Bridge) fetchArtifact(ctx context.Context, kind media.JobType, jobID, target string) (Update, error) {
	update := Update{
		Kind: kind, JobID: jobID, Target: target,
		State: StageCompleted, Progress: progressCompleted,
	}
	switch kind {
	case media.JobCut:
		clips, err := b.api.ListClips(ctx, target, media.ClipDraft)
		if err != nil {
			return Update{}, err
		}
		update.Clips = clips
		update.Message = fmt.Sprintf("%d clips ready", len(clips))
	case media.JobSafety:
		report, err := b.api.GetSafetyReport(ctx, target)
		if err != nil {
			return Update{}, err
		}
		if report == nil {
			return Update{}, errors.New("safety job succeeded but no report is available")
		}
		update.Report = report
		update.Message = string(report.Verdict)
	}
	return update, nil
}

func (b *Bridge) commit(kind media.JobType, jobID string, update Update) {
	b.mu.Lock()
	tracked := b.tracked[kind]
	if tracked == nil || tracked.jobID != jobID {
		b.mu.Unlock()
		return
	}
	if tracked.state == StageCompleted || tracked.state == StageFailed {
		b.mu.Unlock()
		return
	}
	tracked.state = update.State
	tracked.message = update.Message
	if update.State == StageCompleted {
		tracked.progress = progressCompleted
	}
	tracked.update = update
	b.mu.Unlock()

	b.publish(update)
	b.logger.Info("stage resolved",
		logging.Args(
			logging.String(logging.FieldJobType, string(kind)),
			logging.String(logging.FieldJobID, jobID),
			logging.String("state", string(update.State)),
		)...)
}

func (b *Bridge) publish(update Update) {
	b.mu.Lock()
	targets := make([]chan Update, 0, len(b.subs[update.Kind]))
	for _, ch := range b.subs[update.Kind] {
		targets = append(targets, ch)
	}
	b.mu.Unlock()
	for _, ch := range targets {
		select {
		case ch <- update:
		default:
		}
	}
}

func (t *trackedJob) snapshot() Update {
	if t.update.State == StageCompleted || t.update.State == StageFailed {
		return t.update
	}
	return Update{
		Kind:     t.kind,
		JobID:    t.jobID,
		Target:   t.target,
		State:    t.state,
		Progress: t.progress,
		Message:  t.message,
	}
}
