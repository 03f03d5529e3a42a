package backend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clipstudio/internal/backend"
	"clipstudio/internal/config"
	"clipstudio/internal/logging"
	"clipstudio/internal/media"
	"clipstudio/internal/services"
	"clipstudio/internal/testsupport"
)

func newTestClient(t *testing.T, token string) (*backend.Client, *testsupport.MockBackend, *config.Config) {
	t.Helper()
	mock := testsupport.NewMockBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBackendURL(mock.URL(), mock.WebSocketURL()))
	client := backend.NewClient(cfg, backend.NewStaticTokenSource(token), logging.NewNop())
	return client, mock, cfg
}

func TestClientDecodesEnvelope(t *testing.T) {
	client, mock, _ := newTestClient(t, testsupport.TestToken)
	mock.SeedVideo(media.Video{ID: "vid-1", Filename: "match.mp4", Status: media.VideoReady, DurationMS: 180_000})

	video, err := client.GetVideo(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if video.Filename != "match.mp4" || !video.Ready() {
		t.Fatalf("unexpected video %+v", video)
	}
}

func TestClientRejectedCredentialsAreFatal(t *testing.T) {
	client, mock, _ := newTestClient(t, "wrong-token")
	mock.SeedVideo(media.Video{ID: "vid-1", Status: media.VideoReady})

	_, err := client.GetVideo(context.Background(), "vid-1")
	if err == nil {
		t.Fatal("expected error for rejected credentials")
	}
	if !services.IsFatal(err) {
		t.Fatalf("expected fatal auth error, got %v", err)
	}

	// The 401 invalidates the static token; the next call fails before any
	// request is made.
	_, err = client.GetVideo(context.Background(), "vid-1")
	if !errors.Is(err, backend.ErrNoToken) {
		t.Fatalf("expected ErrNoToken after invalidation, got %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatalf("expected fatal error after invalidation, got %v", err)
	}
}

func TestCreateCutJobFailureIsRetryable(t *testing.T) {
	client, mock, _ := newTestClient(t, testsupport.TestToken)
	mock.SeedVideo(media.Video{ID: "vid-1", Status: media.VideoReady})
	mock.FailJobCreation(true)

	_, err := client.CreateCutJob(context.Background(), "vid-1", 5)
	if !errors.Is(err, services.ErrJobCreation) {
		t.Fatalf("expected job creation error, got %v", err)
	}
	if services.IsFatal(err) {
		t.Fatalf("job creation failures must stay retryable: %v", err)
	}
}

func TestGetSafetyReportAbsentReturnsNil(t *testing.T) {
	client, mock, _ := newTestClient(t, testsupport.TestToken)
	mock.SeedClips("vid-1", media.Clip{ID: "clip-1", VideoID: "vid-1"})

	report, err := client.GetSafetyReport(context.Background(), "clip-1")
	if err != nil {
		t.Fatalf("GetSafetyReport: %v", err)
	}
	if report != nil {
		t.Fatalf("expected nil report before any scan, got %+v", report)
	}

	mock.SeedSafetyReport(media.SafetyReport{ID: "rep-1", ClipID: "clip-1", Verdict: media.SafetySafe, Confidence: 0.97})
	report, err = client.GetSafetyReport(context.Background(), "clip-1")
	if err != nil {
		t.Fatalf("GetSafetyReport after seed: %v", err)
	}
	if report == nil || report.Verdict != media.SafetySafe {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestUpdateClipCarriesPublishFields(t *testing.T) {
	client, mock, _ := newTestClient(t, testsupport.TestToken)
	mock.SeedClips("vid-1", media.Clip{ID: "clip-1", VideoID: "vid-1", StartMS: 5_000, EndMS: 45_000, Status: media.ClipDraft})

	status := media.ClipScheduled
	caption := "big save"
	at := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	clip, err := client.UpdateClip(context.Background(), "clip-1", backend.ClipUpdate{
		Status:     &status,
		Caption:    &caption,
		ScheduleAt: &at,
	})
	if err != nil {
		t.Fatalf("UpdateClip: %v", err)
	}
	if clip.Status != media.ClipScheduled {
		t.Fatalf("status not applied: %+v", clip)
	}
	if clip.ScheduleAt == nil || !clip.ScheduleAt.Equal(at) {
		t.Fatalf("schedule time not applied: %+v", clip.ScheduleAt)
	}
	if clip.StartMS != 5_000 || clip.EndMS != 45_000 {
		t.Fatalf("trim window must not change on publish: %+v", clip)
	}
}

func TestListClipsFiltersByStatus(t *testing.T) {
	client, mock, _ := newTestClient(t, testsupport.TestToken)
	mock.SeedClips("vid-1",
		media.Clip{ID: "clip-1", VideoID: "vid-1", Status: media.ClipDraft},
		media.Clip{ID: "clip-2", VideoID: "vid-1", Status: media.ClipScheduled},
	)

	clips, err := client.ListClips(context.Background(), "vid-1", media.ClipDraft)
	if err != nil {
		t.Fatalf("ListClips: %v", err)
	}
	if len(clips) != 1 || clips[0].ID != "clip-1" {
		t.Fatalf("unexpected clips %+v", clips)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	client, _, _ := newTestClient(t, testsupport.TestToken)

	ticket, err := client.CreateUploadURL(context.Background(), "match.mp4", 1<<20, "video/mp4")
	if err != nil {
		t.Fatalf("CreateUploadURL: %v", err)
	}
	if ticket.VideoID == "" || ticket.UploadURL == "" {
		t.Fatalf("incomplete ticket %+v", ticket)
	}

	video, err := client.CompleteVideo(context.Background(), ticket.VideoID, media.VideoReady, backend.VideoMetadata{
		DurationMS: 180_000,
		Width:      1080,
		Height:     1920,
		HasAudio:   true,
	})
	if err != nil {
		t.Fatalf("CompleteVideo: %v", err)
	}
	if !video.Ready() || video.DurationMS != 180_000 {
		t.Fatalf("unexpected video %+v", video)
	}
}
