package server

import (
	"context"
	"testing"
)

// runJob always fails on a build without a device (or without the gpu
// build tag): these tests exercise the failure path, which is the one
// exercised in plain `go test` runs. GPU-backed success is covered by
// internal/sortcl's own gpu-tagged tests.
func TestRunJobFailsWithoutDevice(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{KeyCount: 4096, Seed: 1})

	err := runJob(context.Background(), jm, nil, job.ID)
	if err == nil {
		t.Fatal("runJob should fail without an available OpenCL device")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("State = %s, want %s", updated.State, StateFailed)
	}
	if updated.Error == "" {
		t.Error("Error should be recorded on the job")
	}
}

func TestRunJobUnknownJobID(t *testing.T) {
	jm := NewJobManager()

	err := runJob(context.Background(), jm, nil, "nonexistent")
	if err == nil {
		t.Fatal("runJob should fail for an unknown job ID")
	}
}

func TestGenerateKeysDeterministicForSeed(t *testing.T) {
	a := generateKeys(256, 7)
	b := generateKeys(256, 7)

	if len(a) != 256 || len(b) != 256 {
		t.Fatalf("len(a)=%d len(b)=%d, want 256", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("generateKeys not deterministic at index %d: %f vs %f", i, a[i], b[i])
		}
		if a[i] < 0 {
			t.Fatalf("generateKeys produced a negative key at index %d: %f", i, a[i])
		}
	}
}

func TestRunJobBroadcastsStateTransitions(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(JobConfig{KeyCount: 256, Seed: 1})

	ch := jm.broadcaster.Subscribe(job.ID)
	defer jm.broadcaster.Unsubscribe(job.ID, ch)

	runJob(context.Background(), jm, nil, job.ID)

	var sawRunning, sawFailed bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			if ev.State == StateRunning {
				sawRunning = true
			}
			if ev.State == StateFailed {
				sawFailed = true
			}
		default:
		}
	}

	if !sawRunning {
		t.Error("expected a running-state broadcast")
	}
	if !sawFailed {
		t.Error("expected a failed-state broadcast")
	}
}
