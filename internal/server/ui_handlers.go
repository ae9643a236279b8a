package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cwbudde/gpuradixsort/internal/ui"
)

// handleIndex handles GET /.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	jobs := s.jobManager.ListJobs()

	items := make([]ui.JobListItem, len(jobs))
	for i, job := range jobs {
		items[i] = ui.JobListItem{
			ID:            job.ID,
			State:         string(job.State),
			KeyCount:      job.Config.KeyCount,
			SubgroupWidth: job.SubgroupWidth,
			KeysPerSecond: job.KeysPerSecond,
			StartTime:     job.StartTime,
			EndTime:       job.EndTime,
			Error:         job.Error,
		}
	}

	if err := ui.JobList(items).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleJobDetail handles GET /jobs/:id.
func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Path[len("/jobs/"):]

	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ui.JobNotFound(jobID).Render(r.Context(), w); err != nil {
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	var elapsed float64
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime).Seconds()
	} else {
		elapsed = time.Since(job.StartTime).Seconds()
	}

	detail := ui.JobDetail{
		ID:            job.ID,
		State:         string(job.State),
		KeyCount:      job.Config.KeyCount,
		Seed:          job.Config.Seed,
		SubgroupWidth: job.SubgroupWidth,
		KeysPerSecond: job.KeysPerSecond,
		StartTime:     job.StartTime,
		EndTime:       job.EndTime,
		ElapsedSec:    elapsed,
		Error:         job.Error,
	}

	if err := ui.JobDetailPage(detail).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// handleCreatePage handles GET and POST /create.
func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleCreatePageGet(w, r)
	case http.MethodPost:
		s.handleCreatePagePost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreatePageGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.CreateJobPage("").Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func (s *Server) handleCreatePagePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		ui.CreateJobPage("Failed to parse form data").Render(r.Context(), w)
		return
	}

	keyCountStr := r.FormValue("keyCount")
	seedStr := r.FormValue("seed")

	keyCount, err := strconv.Atoi(keyCountStr)
	if err != nil || keyCount < 1 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		ui.CreateJobPage("Key count must be a positive integer").Render(r.Context(), w)
		return
	}

	seed, err := strconv.ParseInt(seedStr, 10, 64)
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		ui.CreateJobPage("Invalid seed value").Render(r.Context(), w)
		return
	}

	config := JobConfig{KeyCount: keyCount, Seed: seed}
	job := s.jobManager.CreateJob(config)

	// Use context.Background() so the job outlives this HTTP request.
	go runJob(context.Background(), s.jobManager, s.store, job.ID)

	http.Redirect(w, r, "/jobs/"+job.ID, http.StatusSeeOther)
}
