package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"clipstudio/internal/backend"
	"clipstudio/internal/jobs"
	"clipstudio/internal/media"
)

type stubAPI struct {
	mu          sync.Mutex
	jobSeq      int
	jobsByID    map[string]media.Job
	clips       []media.Clip
	report      *media.SafetyReport
	createErr   error
	listErr     error
	reportErr   error
	listCalls   int
	reportCalls int
}

func newStubAPI() *stubAPI {
	return &stubAPI{jobsByID: make(map[string]media.Job)}
}

func (s *stubAPI) CreateCutJob(_ context.Context, videoID string, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.jobSeq++
	id := fmt.Sprintf("J%d", s.jobSeq)
	s.jobsByID[id] = media.Job{ID: id, Type: media.JobCut, VideoID: videoID, State: media.JobWaiting}
	return id, nil
}

func (s *stubAPI) CreateSafetyJob(_ context.Context, clipID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.jobSeq++
	id := fmt.Sprintf("J%d", s.jobSeq)
	s.jobsByID[id] = media.Job{ID: id, Type: media.JobSafety, ClipID: clipID, State: media.JobWaiting}
	return id, nil
}

func (s *stubAPI) GetJob(_ context.Context, jobID string) (media.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobsByID[jobID]
	if !ok {
		return media.Job{}, errors.New("job not found")
	}
	return job, nil
}

func (s *stubAPI) ListClips(context.Context, string, media.ClipStatus) ([]media.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.clips, nil
}

func (s *stubAPI) GetSafetyReport(context.Context, string) (*media.SafetyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportCalls++
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	return s.report, nil
}

func (s *stubAPI) setJobState(jobID string, state media.JobState, errorMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobsByID[jobID]
	job.State = state
	job.ErrorMsg = errorMsg
	s.jobsByID[jobID] = job
}

func jobDone(jobID string, kind media.JobType, state media.JobState, errorMsg string) backend.Event {
	return backend.Event{
		Type: backend.EventJobDone,
		JobDone: &backend.JobDoneEvent{
			JobID: jobID,
			Type:  kind,
			State: state,
			Error: errorMsg,
		},
	}
}

func TestStartTracksJobAndReportsAnalyzing(t *testing.T) {
	api := newStubAPI()
	bridge := jobs.NewBridge(api, 5, nil)

	jobID, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if jobID != "J1" {
		t.Fatalf("jobID = %q", jobID)
	}
	state := bridge.State(media.JobCut)
	if state.State != jobs.StageAnalyzing {
		t.Fatalf("state = %q, want analyzing", state.State)
	}
	if state.Progress != 10 {
		t.Fatalf("progress = %d, want 10", state.Progress)
	}
}

func TestSucceededEventFetchesArtifactOnce(t *testing.T) {
	api := newStubAPI()
	api.clips = []media.Clip{{ID: "clip-1", VideoID: "vid-1", StartMS: 0, EndMS: 30_000, Status: media.ClipDraft}}
	bridge := jobs.NewBridge(api, 5, nil)

	jobID, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	bridge.HandleEvent(context.Background(), jobDone(jobID, media.JobCut, media.JobSucceeded, ""))

	state := bridge.State(media.JobCut)
	if state.State != jobs.StageCompleted {
		t.Fatalf("state = %q, want completed", state.State)
	}
	if len(state.Clips) != 1 || state.Clips[0].ID != "clip-1" {
		t.Fatalf("unexpected clips: %+v", state.Clips)
	}

	// Duplicate terminal event is a no-op, including the follow-up fetch.
	bridge.HandleEvent(context.Background(), jobDone(jobID, media.JobCut, media.JobSucceeded, ""))
	if api.listCalls != 1 {
		t.Fatalf("artifact fetched %d times, want 1", api.listCalls)
	}
}

func TestStaleEventIsRejected(t *testing.T) {
	api := newStubAPI()
	api.clips = []media.Clip{{ID: "clip-2", VideoID: "vid-1", Status: media.ClipDraft}}
	bridge := jobs.NewBridge(api, 5, nil)

	first, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	second, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("regenerate Start failed: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct job ids")
	}

	// The superseded job's late success must be ignored.
	bridge.HandleEvent(context.Background(), jobDone(first, media.JobCut, media.JobSucceeded, ""))
	if state := bridge.State(media.JobCut); state.State != jobs.StageAnalyzing {
		t.Fatalf("stale event advanced state to %q", state.State)
	}
	if api.listCalls != 0 {
		t.Fatal("stale event triggered an artifact fetch")
	}

	bridge.HandleEvent(context.Background(), jobDone(second, media.JobCut, media.JobSucceeded, ""))
	state := bridge.State(media.JobCut)
	if state.State != jobs.StageCompleted {
		t.Fatalf("state = %q, want completed", state.State)
	}
	if state.JobID != second {
		t.Fatalf("completion attributed to %q, want %q", state.JobID, second)
	}
}

func TestFailedJobCarriesBackendMessage(t *testing.T) {
	api := newStubAPI()
	bridge := jobs.NewBridge(api, 5, nil)

	jobID, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	bridge.HandleEvent(context.Background(), jobDone(jobID, media.JobCut, media.JobFailed, "scene detection crashed"))

	state := bridge.State(media.JobCut)
	if state.State != jobs.StageFailed {
		t.Fatalf("state = %q, want failed", state.State)
	}
	if state.Message != "scene detection crashed" {
		t.Fatalf("message = %q", state.Message)
	}
}

func TestArtifactFetchFailureIsDistinctFromJobFailure(t *testing.T) {
	api := newStubAPI()
	api.listErr = errors.New("clip listing unavailable")
	bridge := jobs.NewBridge(api, 5, nil)

	jobID, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	bridge.HandleEvent(context.Background(), jobDone(jobID, media.JobCut, media.JobSucceeded, ""))

	state := bridge.State(media.JobCut)
	if state.State != jobs.StageFailed {
		t.Fatalf("state = %q, want failed", state.State)
	}
	if state.Message == "" || state.Message == "job failed" {
		t.Fatalf("expected fetch error message, got %q", state.Message)
	}
}

func TestPushAndPullAreEquivalent(t *testing.T) {
	report := &media.SafetyReport{ID: "rep-1", ClipID: "clip-1", Verdict: media.SafetySafe, Confidence: 0.97}

	viaPush := func(bridge *jobs.Bridge, jobID string, api *stubAPI) {
		bridge.HandleEvent(context.Background(), jobDone(jobID, media.JobSafety, media.JobSucceeded, ""))
	}
	viaPull := func(bridge *jobs.Bridge, jobID string, api *stubAPI) {
		api.setJobState(jobID, media.JobSucceeded, "")
		if err := bridge.Refetch(context.Background(), media.JobSafety); err != nil {
			t.Fatalf("Refetch failed: %v", err)
		}
	}

	for name, deliver := range map[string]func(*jobs.Bridge, string, *stubAPI){"push": viaPush, "pull": viaPull} {
		t.Run(name, func(t *testing.T) {
			api := newStubAPI()
			api.report = report
			bridge := jobs.NewBridge(api, 5, nil)
			jobID, err := bridge.Start(context.Background(), media.JobSafety, "clip-1")
			if err != nil {
				t.Fatalf("Start failed: %v", err)
			}

			deliver(bridge, jobID, api)

			state := bridge.State(media.JobSafety)
			if state.State != jobs.StageCompleted {
				t.Fatalf("state = %q, want completed", state.State)
			}
			if state.Report == nil || state.Report.Verdict != media.SafetySafe {
				t.Fatalf("unexpected report: %+v", state.Report)
			}
		})
	}
}

func TestRefetchUpdatesProgressForRunningJob(t *testing.T) {
	api := newStubAPI()
	bridge := jobs.NewBridge(api, 5, nil)

	jobID, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	api.setJobState(jobID, media.JobRunning, "")
	if err := bridge.Refetch(context.Background(), media.JobCut); err != nil {
		t.Fatalf("Refetch failed: %v", err)
	}
	state := bridge.State(media.JobCut)
	if state.State != jobs.StageAnalyzing || state.Progress != 50 {
		t.Fatalf("state = %q progress = %d, want analyzing/50", state.State, state.Progress)
	}
}

func TestSubscribeDeliversTransitions(t *testing.T) {
	api := newStubAPI()
	api.clips = []media.Clip{{ID: "clip-1", Status: media.ClipDraft}}
	bridge := jobs.NewBridge(api, 5, nil)

	updates, unsubscribe := bridge.Subscribe(media.JobCut)
	defer unsubscribe()

	jobID, err := bridge.Start(context.Background(), media.JobCut, "vid-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first := <-updates
	if first.State != jobs.StageAnalyzing {
		t.Fatalf("first update state = %q", first.State)
	}

	bridge.HandleEvent(context.Background(), jobDone(jobID, media.JobCut, media.JobSucceeded, ""))
	second := <-updates
	if second.State != jobs.StageCompleted {
		t.Fatalf("second update state = %q", second.State)
	}

	unsubscribe()
	bridge.HandleEvent(context.Background(), jobDone(jobID, media.JobCut, media.JobSucceeded, ""))
	select {
	case update, ok := <-updates:
		if ok {
			t.Fatalf("received update after unsubscribe: %+v", update)
		}
	default:
	}
}

func TestIdleStateBeforeAnyStart(t *testing.T) {
	bridge := jobs.NewBridge(newStubAPI(), 5, nil)
	if state := bridge.State(media.JobSafety); state.State != jobs.StageIdle {
		t.Fatalf("state = %q, want idle", state.State)
	}
}
