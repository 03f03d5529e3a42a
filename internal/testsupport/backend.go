package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"clipstudio/internal/media"
)

// MockBackend is an in-process stand-in for the studio backend: the REST
// endpoints the client consumes plus a WebSocket push channel. State is
// seeded and inspected directly by tests.
type MockBackend struct {
	t      testing.TB
	server *httptest.Server

	mu          sync.Mutex
	jobSeq      int
	jobs        map[string]media.Job
	videos      map[string]media.Video
	clipsByVid  map[string][]media.Clip
	reports     map[string]*media.SafetyReport
	clipUpdates map[string]int
	reviews     []string
	failCreates bool
	conns       map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

// NewMockBackend starts the mock server. It is shut down with the test.
func NewMockBackend(t testing.TB) *MockBackend {
	t.Helper()
	m := &MockBackend{
		t:           t,
		jobs:        make(map[string]media.Job),
		videos:      make(map[string]media.Video),
		clipsByVid:  make(map[string][]media.Clip),
		reports:     make(map[string]*media.SafetyReport),
		clipUpdates: make(map[string]int),
		conns:       make(map[*websocket.Conn]struct{}),
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}

	router := chi.NewRouter()
	router.Get("/events", m.handleEvents)
	router.Group(func(r chi.Router) {
		r.Use(m.requireBearer)
		r.Post("/videos/upload-url", m.handleUploadURL)
		r.Get("/videos/{id}", m.handleGetVideo)
		r.Patch("/videos/{id}", m.handleCompleteVideo)
		r.Post("/videos/{id}/cut-jobs", m.handleCreateCutJob)
		r.Get("/videos/{id}/clips", m.handleListClips)
		r.Get("/jobs/{id}", m.handleGetJob)
		r.Patch("/clips/{id}", m.handleUpdateClip)
		r.Post("/clips/{id}/safety-jobs", m.handleCreateSafetyJob)
		r.Get("/clips/{id}/safety", m.handleGetSafety)
		r.Post("/clips/{id}/request-review", m.handleRequestReview)
	})

	m.server = httptest.NewServer(router)
	t.Cleanup(m.Close)
	return m
}

// URL returns the REST base URL.
func (m *MockBackend) URL() string {
	return m.server.URL
}

// WebSocketURL returns the push channel endpoint.
func (m *MockBackend) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(m.server.URL, "http") + "/events"
}

// Close shuts the server and all push connections down.
func (m *MockBackend) Close() {
	m.mu.Lock()
	for conn := range m.conns {
		conn.Close()
	}
	m.conns = make(map[*websocket.Conn]struct{})
	m.mu.Unlock()
	m.server.Close()
}

// SeedVideo registers a video record.
func (m *MockBackend) SeedVideo(video media.Video) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[video.ID] = video
}

// SeedClips sets the clip list returned for a video.
func (m *MockBackend) SeedClips(videoID string, clips ...media.Clip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clipsByVid[videoID] = append([]media.Clip(nil), clips...)
}

// SeedSafetyReport sets the report returned for a clip.
func (m *MockBackend) SeedSafetyReport(report media.SafetyReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ClipID] = &report
}

// SetJobState mutates a previously created job, for the pull path.
func (m *MockBackend) SetJobState(jobID string, state media.JobState, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		m.t.Fatalf("unknown job %q", jobID)
	}
	job.State = state
	job.ErrorMsg = errorMsg
	m.jobs[jobID] = job
}

// FailJobCreation makes subsequent job creation calls return 500.
func (m *MockBackend) FailJobCreation(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreates = fail
}

// Jobs returns a snapshot of all jobs created so far, in creation order of id.
func (m *MockBackend) Jobs() []media.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := make([]media.Job, 0, len(m.jobs))
	for i := 1; i <= m.jobSeq; i++ {
		if job, ok := m.jobs[fmt.Sprintf("job-%d", i)]; ok {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// ClipUpdateCount reports how many PATCH calls a clip has received.
func (m *MockBackend) ClipUpdateCount(clipID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clipUpdates[clipID]
}

// ReviewRequests returns clip ids that requested manual review.
func (m *MockBackend) ReviewRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reviews...)
}

// PushEvent broadcasts a push frame to every connected subscriber.
func (m *MockBackend) PushEvent(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		m.t.Fatalf("marshal push payload: %v", err)
	}
	frame, err := json.Marshal(map[string]json.RawMessage{
		"event": json.RawMessage(fmt.Sprintf("%q", event)),
		"data":  data,
	})
	if err != nil {
		m.t.Fatalf("marshal push frame: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.conns {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			m.t.Logf("push write failed: %v", err)
		}
	}
}

func (m *MockBackend) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+TestToken {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockBackend) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.conns[conn] = struct{}{}
	m.mu.Unlock()
}

func (m *MockBackend) handleCreateCutJob(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	if m.failCreates {
		m.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "job queue unavailable")
		return
	}
	m.jobSeq++
	job := media.Job{
		ID:          fmt.Sprintf("job-%d", m.jobSeq),
		Type:        media.JobCut,
		VideoID:     chi.URLParam(r, "id"),
		State:       media.JobWaiting,
		MaxAttempts: 3,
		CreatedAt:   time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()
	writeData(w, map[string]string{"jobId": job.ID})
}

func (m *MockBackend) handleCreateSafetyJob(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	if m.failCreates {
		m.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "job queue unavailable")
		return
	}
	m.jobSeq++
	job := media.Job{
		ID:          fmt.Sprintf("job-%d", m.jobSeq),
		Type:        media.JobSafety,
		ClipID:      chi.URLParam(r, "id"),
		State:       media.JobWaiting,
		MaxAttempts: 3,
		CreatedAt:   time.Now().UTC(),
	}
	m.jobs[job.ID] = job
	m.mu.Unlock()
	writeData(w, map[string]string{"jobId": job.ID})
}

func (m *MockBackend) handleGetJob(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	job, ok := m.jobs[chi.URLParam(r, "id")]
	m.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeData(w, job)
}

func (m *MockBackend) handleListClips(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	clips := append([]media.Clip(nil), m.clipsByVid[chi.URLParam(r, "id")]...)
	m.mu.Unlock()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := clips[:0]
		for _, clip := range clips {
			if string(clip.Status) == status {
				filtered = append(filtered, clip)
			}
		}
		clips = filtered
	}
	writeData(w, clips)
}

func (m *MockBackend) handleUpdateClip(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "id")
	var update struct {
		StartMS         *int64            `json:"start_ms"`
		EndMS           *int64            `json:"end_ms"`
		QualityOriginal *bool             `json:"quality_original"`
		Status          *media.ClipStatus `json:"status"`
		ScheduleAt      *time.Time        `json:"schedule_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clipUpdates[clipID]++
	for videoID, clips := range m.clipsByVid {
		for i, clip := range clips {
			if clip.ID != clipID {
				continue
			}
			if update.StartMS != nil {
				clip.StartMS = *update.StartMS
			}
			if update.EndMS != nil {
				clip.EndMS = *update.EndMS
			}
			if update.QualityOriginal != nil {
				clip.QualityOriginal = *update.QualityOriginal
			}
			if update.Status != nil {
				clip.Status = *update.Status
			}
			if update.ScheduleAt != nil {
				clip.ScheduleAt = update.ScheduleAt
			}
			m.clipsByVid[videoID][i] = clip
			writeData(w, clip)
			return
		}
	}
	writeError(w, http.StatusNotFound, "clip not found")
}

func (m *MockBackend) handleGetSafety(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	report := m.reports[chi.URLParam(r, "id")]
	m.mu.Unlock()
	if report == nil {
		writeError(w, http.StatusNotFound, "no safety report")
		return
	}
	writeData(w, report)
}

func (m *MockBackend) handleRequestReview(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.reviews = append(m.reviews, chi.URLParam(r, "id"))
	m.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (m *MockBackend) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	video, ok := m.videos[chi.URLParam(r, "id")]
	m.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	writeData(w, video)
}

func (m *MockBackend) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}
	m.mu.Lock()
	videoID := fmt.Sprintf("video-%d", len(m.videos)+1)
	m.videos[videoID] = media.Video{
		ID:        videoID,
		Filename:  req.Filename,
		Status:    media.VideoUploading,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Unlock()
	writeData(w, map[string]string{
		"videoId":   videoID,
		"uploadUrl": m.server.URL + "/uploads/" + videoID,
	})
}

func (m *MockBackend) handleCompleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "id")
	var req struct {
		Status     media.VideoStatus `json:"status"`
		DurationMS int64             `json:"duration_ms"`
		Width      int               `json:"width"`
		Height     int               `json:"height"`
		HasAudio   bool              `json:"has_audio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.videos[videoID]
	if !ok {
		writeError(w, http.StatusNotFound, "video not found")
		return
	}
	video.Status = req.Status
	video.DurationMS = req.DurationMS
	video.Width = req.Width
	video.Height = req.Height
	video.HasAudio = req.HasAudio
	m.videos[videoID] = video
	writeData(w, video)
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "error": nil})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"message": message})
}
