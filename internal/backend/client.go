package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"clipstudio/internal/config"
	"clipstudio/internal/logging"
	"clipstudio/internal/media"
	"clipstudio/internal/services"
)

// Client provides typed access to the studio backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// NewClient builds a Client from configuration. A nil logger is replaced
// with a no-op logger.
func NewClient(cfg *config.Config, tokens TokenSource, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.Backend.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.Backend.BaseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logging.NewComponentLogger(logger, "backend-client"),
	}
}

// StatusError carries the HTTP status of a failed backend call.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Code)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var status *StatusError
	return errors.As(err, &status) && status.Code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return services.Wrap(services.ErrAuth, "backend", method+" "+path, "resolve credentials", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
		return services.Wrap(services.ErrAuth, "backend", method+" "+path, "credentials rejected", &StatusError{Code: resp.StatusCode})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil && *env.Error != "" {
		return &StatusError{Code: resp.StatusCode, Message: *env.Error}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	status := &StatusError{Code: resp.StatusCode}
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		if body.Message != "" {
			status.Message = body.Message
		} else if body.Error != "" {
			status.Message = body.Error
		}
	}
	return status
}

// CreateCutJob asks the backend to cut a video into clip suggestions and
// returns the new job id.
func (c *Client) CreateCutJob(ctx context.Context, videoID string, maxClips int) (string, error) {
	var ref jobRef
	payload := map[string]int{"maxClips": maxClips}
	if err := c.do(ctx, http.MethodPost, "/videos/"+url.PathEscape(videoID)+"/cut-jobs", payload, &ref); err != nil {
		if services.IsFatal(err) {
			return "", err
		}
		return "", services.Wrap(services.ErrJobCreation, "suggestions", "create cut job", "", err)
	}
	c.logger.Debug("cut job created",
		logging.Args(logging.String(logging.FieldVideoID, videoID), logging.String(logging.FieldJobID, ref.JobID))...)
	return ref.JobID, nil
}

// CreateSafetyJob asks the backend to scan a clip and returns the new job id.
func (c *Client) CreateSafetyJob(ctx context.Context, clipID string) (string, error) {
	var ref jobRef
	if err := c.do(ctx, http.MethodPost, "/clips/"+url.PathEscape(clipID)+"/safety-jobs", struct{}{}, &ref); err != nil {
		if services.IsFatal(err) {
			return "", err
		}
		return "", services.Wrap(services.ErrJobCreation, "safety-check", "create safety job", "", err)
	}
	c.logger.Debug("safety job created",
		logging.Args(logging.String(logging.FieldClipID, clipID), logging.String(logging.FieldJobID, ref.JobID))...)
	return ref.JobID, nil
}

// GetJob fetches current job state; the pull half of job tracking.
func (c *Client) GetJob(ctx context.Context, jobID string) (media.Job, error) {
	var job media.Job
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, &job); err != nil {
		if services.IsFatal(err) {
			return media.Job{}, err
		}
		return media.Job{}, services.Wrap(services.ErrFetch, "jobs", "get job", jobID, err)
	}
	return job, nil
}

// ListClips returns the clips cut from a video, optionally filtered by
// lifecycle status.
func (c *Client) ListClips(ctx context.Context, videoID string, status media.ClipStatus) ([]media.Clip, error) {
	path := "/videos/" + url.PathEscape(videoID) + "/clips"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var clips []media.Clip
	if err := c.do(ctx, http.MethodGet, path, nil, &clips); err != nil {
		if services.IsFatal(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrFetch, "suggestions", "list clips", videoID, err)
	}
	return clips, nil
}

// UpdateClip persists trim or quality changes and returns the updated clip.
func (c *Client) UpdateClip(ctx context.Context, clipID string, update ClipUpdate) (media.Clip, error) {
	var clip media.Clip
	if err := c.do(ctx, http.MethodPatch, "/clips/"+url.PathEscape(clipID), update, &clip); err != nil {
		if services.IsFatal(err) {
			return media.Clip{}, err
		}
		return media.Clip{}, services.Wrap(services.ErrFetch, "fine-tune", "update clip", clipID, err)
	}
	return clip, nil
}

// GetSafetyReport returns the latest safety report for a clip, or nil when
// none exists yet.
func (c *Client) GetSafetyReport(ctx context.Context, clipID string) (*media.SafetyReport, error) {
	var report media.SafetyReport
	err := c.do(ctx, http.MethodGet, "/clips/"+url.PathEscape(clipID)+"/safety", nil, &report)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		if services.IsFatal(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrFetch, "safety-check", "get safety report", clipID, err)
	}
	return &report, nil
}

// RequestReview submits a manual review request for a clip whose verdict is
// NEEDS_REVIEW. The verdict itself is unchanged until a reviewer acts.
func (c *Client) RequestReview(ctx context.Context, clipID, evidenceURL string) error {
	payload := map[string]string{}
	if evidenceURL != "" {
		payload["evidence_url"] = evidenceURL
	}
	if err := c.do(ctx, http.MethodPost, "/clips/"+url.PathEscape(clipID)+"/request-review", payload, nil); err != nil {
		if services.IsFatal(err) {
			return err
		}
		return services.Wrap(services.ErrFetch, "safety-check", "request review", clipID, err)
	}
	return nil
}

// GetVideo fetches a video record.
func (c *Client) GetVideo(ctx context.Context, videoID string) (media.Video, error) {
	var video media.Video
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID), nil, &video); err != nil {
		if services.IsFatal(err) {
			return media.Video{}, err
		}
		return media.Video{}, services.Wrap(services.ErrFetch, "upload", "get video", videoID, err)
	}
	return video, nil
}

// CreateUploadURL registers a new video and returns the signed-URL ticket
// for the out-of-band PUT transfer.
func (c *Client) CreateUploadURL(ctx context.Context, filename string, size int64, mimeType string) (UploadTicket, error) {
	payload := map[string]any{
		"filename":  filename,
		"size":      size,
		"mime_type": mimeType,
	}
	var ticket UploadTicket
	if err := c.do(ctx, http.MethodPost, "/videos/upload-url", payload, &ticket); err != nil {
		if services.IsFatal(err) {
			return UploadTicket{}, err
		}
		return UploadTicket{}, services.Wrap(services.ErrFetch, "upload", "create upload url", filename, err)
	}
	return ticket, nil
}

// CompleteVideo reports the outcome of an upload along with extracted
// metadata, transitioning the video to READY or FAILED.
func (c *Client) CompleteVideo(ctx context.Context, videoID string, status media.VideoStatus, meta VideoMetadata) (media.Video, error) {
	payload := map[string]any{
		"status":      status,
		"duration_ms": meta.DurationMS,
		"width":       meta.Width,
		"height":      meta.Height,
		"has_audio":   meta.HasAudio,
	}
	var video media.Video
	if err := c.do(ctx, http.MethodPatch, "/videos/"+url.PathEscape(videoID), payload, &video); err != nil {
		if services.IsFatal(err) {
			return media.Video{}, err
		}
		return media.Video{}, services.Wrap(services.ErrFetch, "upload", "complete video", videoID, err)
	}
	return video, nil
}
