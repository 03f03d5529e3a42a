package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipstudio/internal/config"
	"clipstudio/internal/media"
)

const userAgent = "ClipStudio-Go/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyUploadComplete(ctx context.Context, filename string) error
	NotifyClipsReady(ctx context.Context, count int) error
	NotifySafetyVerdict(ctx context.Context, verdict media.SafetyStatus) error
	NotifyPublishScheduled(ctx context.Context, at time.Time) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		errors:   cfg.Notifications.Errors,
		workflow: cfg.Notifications.Workflow,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	errors   bool
	workflow bool
}

func (n *ntfyService) NotifyUploadComplete(ctx context.Context, filename string) error {
	if !n.workflow {
		return nil
	}
	filename = strings.TrimSpace(filename)
	data := payload{
		title:   "ClipStudio - Upload Complete",
		message: fmt.Sprintf("Video ready: %s", filename),
		tags:    []string{"clipstudio", "upload", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyClipsReady(ctx context.Context, count int) error {
	if !n.workflow {
		return nil
	}
	data := payload{
		title:   "ClipStudio - Clips Ready",
		message: fmt.Sprintf("%d clip suggestions ready for review", count),
		tags:    []string{"clipstudio", "suggestions", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySafetyVerdict(ctx context.Context, verdict media.SafetyStatus) error {
	if !n.workflow {
		return nil
	}
	data := payload{
		title:   "ClipStudio - Safety Check",
		message: fmt.Sprintf("Safety verdict: %s", verdict),
		tags:    []string{"clipstudio", "safety", "completed"},
	}
	if verdict != media.SafetySafe {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublishScheduled(ctx context.Context, at time.Time) error {
	if !n.workflow {
		return nil
	}
	data := payload{
		title:    "ClipStudio - Publish Scheduled",
		message:  fmt.Sprintf("Clip scheduled for %s", at.Format(time.RFC1123)),
		tags:     []string{"clipstudio", "publish", "scheduled"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "ClipStudio - Error",
		message:  builder.String(),
		tags:     []string{"clipstudio", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "ClipStudio - Test",
		message:  "Notification system test",
		tags:     []string{"clipstudio", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyUploadComplete(context.Context, string) error { return nil }

func (noopService) NotifyClipsReady(context.Context, int) error { return nil }

func (noopService) NotifySafetyVerdict(context.Context, media.SafetyStatus) error { return nil }

func (noopService) NotifyPublishScheduled(context.Context, time.Time) error { return nil }

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
