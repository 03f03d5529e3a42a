package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"clipstudio/internal/config"
	"clipstudio/internal/media"
	"clipstudio/internal/notifications"
)

type captured struct {
	title    string
	message  string
	tags     string
	priority string
}

func captureServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var received []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), received...)
	}
}

func notifyingConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Errors = true
	cfg.Notifications.Workflow = true
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyClipsReady(context.Background(), 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, received := captureServer(t)
	svc := notifications.NewService(notifyingConfig(server.URL))
	ctx := context.Background()

	if err := svc.NotifyUploadComplete(ctx, "match.mp4"); err != nil {
		t.Fatalf("NotifyUploadComplete failed: %v", err)
	}
	if err := svc.NotifyClipsReady(ctx, 5); err != nil {
		t.Fatalf("NotifyClipsReady failed: %v", err)
	}
	if err := svc.NotifySafetyVerdict(ctx, media.SafetyBlocked); err != nil {
		t.Fatalf("NotifySafetyVerdict failed: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), "suggestions"); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}

	got := received()
	if len(got) != 4 {
		t.Fatalf("received %d notifications, want 4", len(got))
	}
	if got[0].message != "Video ready: match.mp4" || got[0].title != "ClipStudio - Upload Complete" {
		t.Fatalf("upload notification = %+v", got[0])
	}
	if got[1].message != "5 clip suggestions ready for review" {
		t.Fatalf("clips notification = %+v", got[1])
	}
	if got[2].message != "Safety verdict: BLOCKED" || got[2].priority != "high" {
		t.Fatalf("safety notification = %+v", got[2])
	}
	if got[3].message != "Error with suggestions: boom" || got[3].priority != "high" {
		t.Fatalf("error notification = %+v", got[3])
	}
}

func TestNtfyServiceHonorsCategoryToggles(t *testing.T) {
	server, received := captureServer(t)
	cfg := notifyingConfig(server.URL)
	cfg.Notifications.Errors = false
	cfg.Notifications.Workflow = false
	svc := notifications.NewService(cfg)
	ctx := context.Background()

	if err := svc.NotifyClipsReady(ctx, 2); err != nil {
		t.Fatalf("NotifyClipsReady failed: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), ""); err != nil {
		t.Fatalf("NotifyError failed: %v", err)
	}
	// Test notifications always go through.
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}

	got := received()
	if len(got) != 1 {
		t.Fatalf("received %d notifications, want only the test one", len(got))
	}
	if got[0].title != "ClipStudio - Test" {
		t.Fatalf("notification = %+v", got[0])
	}
}

func TestNtfyServiceSurfacesHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	svc := notifications.NewService(notifyingConfig(server.URL))
	err := svc.NotifyPublishScheduled(context.Background(), time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
