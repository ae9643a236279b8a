package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer() *Server {
	return NewServer("localhost:0", nil)
}

func TestServerCreateJob(t *testing.T) {
	s := newTestServer()

	body := bytes.NewBufferString(`{"keyCount": 4096, "seed": 7}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	w := httptest.NewRecorder()

	s.handleJobs(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if job.ID == "" {
		t.Error("job ID should not be empty")
	}
	if job.Config.KeyCount != 4096 {
		t.Errorf("KeyCount = %d, want 4096", job.Config.KeyCount)
	}
}

func TestServerCreateJobDefaultsKeyCount(t *testing.T) {
	s := newTestServer()

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	w := httptest.NewRecorder()

	s.handleJobs(w, req)

	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if job.Config.KeyCount != 1_000_000 {
		t.Errorf("default KeyCount = %d, want 1000000", job.Config.KeyCount)
	}
}

func TestServerCreateJobInvalidJSON(t *testing.T) {
	s := newTestServer()

	body := bytes.NewBufferString(`not json`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", body)
	w := httptest.NewRecorder()

	s.handleJobs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestServerListJobs(t *testing.T) {
	s := newTestServer()
	s.jobManager.CreateJob(JobConfig{KeyCount: 512})
	s.jobManager.CreateJob(JobConfig{KeyCount: 1024})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	w := httptest.NewRecorder()
	s.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var jobs []Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("len(jobs) = %d, want 2", len(jobs))
	}
}

func TestServerGetJobStatus(t *testing.T) {
	s := newTestServer()
	job := s.jobManager.CreateJob(JobConfig{KeyCount: 512})
	s.jobManager.UpdateJob(job.ID, func(j *Job) {
		j.State = StateCompleted
		j.SubgroupWidth = 32
		j.KeysPerSecond = 5e7
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/status", nil)
	w := httptest.NewRecorder()
	s.handleGetJobStatus(w, req, job.ID)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["id"] != job.ID {
		t.Errorf("id = %v, want %s", resp["id"], job.ID)
	}
	if resp["state"] != string(StateCompleted) {
		t.Errorf("state = %v, want %s", resp["state"], StateCompleted)
	}
}

func TestServerGetJobStatusNotFound(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing/status", nil)
	w := httptest.NewRecorder()
	s.handleGetJobStatus(w, req, "missing")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestServerJobsWithIDRouting(t *testing.T) {
	s := newTestServer()
	job := s.jobManager.CreateJob(JobConfig{KeyCount: 512})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID, nil)
	w := httptest.NewRecorder()
	s.handleJobsWithID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestServerJobsWithIDMissingID(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/", nil)
	w := httptest.NewRecorder()
	s.handleJobsWithID(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestServerJobDetailPage(t *testing.T) {
	s := newTestServer()
	job := s.jobManager.CreateJob(JobConfig{KeyCount: 512, Seed: 9})

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil)
	w := httptest.NewRecorder()
	s.handleJobDetail(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), job.ID) {
		t.Error("response body should contain the job ID")
	}
}

func TestServerJobDetailPageNotFound(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/jobs/missing", nil)
	w := httptest.NewRecorder()
	s.handleJobDetail(w, req)

	if !strings.Contains(w.Body.String(), "not found") {
		t.Error("response body should mention the job was not found")
	}
}

func TestServerIndexPage(t *testing.T) {
	s := newTestServer()
	s.jobManager.CreateJob(JobConfig{KeyCount: 512})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.handleIndex(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestServerCreatePageGet(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/create", nil)
	w := httptest.NewRecorder()
	s.handleCreatePage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestServerCreatePagePostValidation(t *testing.T) {
	s := newTestServer()

	form := strings.NewReader("keyCount=0&seed=1")
	req := httptest.NewRequest(http.MethodPost, "/create", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.handleCreatePagePost(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (validation errors re-render the form)", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "positive") {
		t.Error("response should explain the key count validation failure")
	}
}

func TestServerCreatePagePostSuccessRedirects(t *testing.T) {
	s := newTestServer()

	form := strings.NewReader("keyCount=1024&seed=1")
	req := httptest.NewRequest(http.MethodPost, "/create", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	s.handleCreatePagePost(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if !strings.HasPrefix(w.Header().Get("Location"), "/jobs/") {
		t.Errorf("Location = %q, want prefix /jobs/", w.Header().Get("Location"))
	}
}

func TestEventBroadcasterSubscribeAndBroadcast(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch)

	eb.Broadcast(ProgressEvent{JobID: "job-1", State: StateRunning, Timestamp: time.Now()})

	select {
	case ev := <-ch:
		if ev.State != StateRunning {
			t.Errorf("State = %s, want %s", ev.State, StateRunning)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestEventBroadcasterReplaysLastEventOnSubscribe(t *testing.T) {
	eb := NewEventBroadcaster()
	eb.Broadcast(ProgressEvent{JobID: "job-1", State: StateCompleted, Timestamp: time.Now()})

	ch := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch)

	select {
	case ev := <-ch:
		if ev.State != StateCompleted {
			t.Errorf("State = %s, want %s", ev.State, StateCompleted)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for replayed event")
	}
}

func TestServerJobStreamNotFound(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing/stream", nil)
	w := httptest.NewRecorder()
	s.handleJobStream(w, req, "missing")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
