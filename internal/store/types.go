package store

import (
	"fmt"
	"time"
)

// SortJobConfig holds the configuration a sort job was submitted with.
// server.JobConfig is a type alias of it, so the type is declared here
// once and store does not import server.
type SortJobConfig struct {
	KeyCount int `json:"keyCount"`
	Seed     int64 `json:"seed"`
}

// SortJobRecord is the persisted outcome of one completed sort job. A
// radix sort is a single atomic device submission, so there is no
// partial-progress state worth saving: unlike an iterative optimizer,
// there is nothing to resume mid-sort.
type SortJobRecord struct {
	JobID string `json:"jobId"`

	Config SortJobConfig `json:"config"`

	SubgroupWidth int     `json:"subgroupWidth"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	KeysPerSecond  float64 `json:"keysPerSecond"`

	Timestamp time.Time `json:"timestamp"`
}

// NewSortJobRecord builds a record from the finished state of a job.
func NewSortJobRecord(jobID string, config SortJobConfig, subgroupWidth int, elapsedSeconds, keysPerSecond float64) *SortJobRecord {
	return &SortJobRecord{
		JobID:          jobID,
		Config:         config,
		SubgroupWidth:  subgroupWidth,
		ElapsedSeconds: elapsedSeconds,
		KeysPerSecond:  keysPerSecond,
		Timestamp:      time.Now(),
	}
}

// Validate checks that the record has sane data before it is persisted.
func (r *SortJobRecord) Validate() error {
	if r.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if r.Config.KeyCount <= 0 {
		return &ValidationError{Field: "Config.KeyCount", Reason: "must be positive"}
	}
	if r.ElapsedSeconds < 0 {
		return &ValidationError{Field: "ElapsedSeconds", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}
