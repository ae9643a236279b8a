package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cwbudde/gpuradixsort/internal/sortcl"
	"github.com/cwbudde/gpuradixsort/internal/store"
)

// runJob executes one sort job in the background: allocate device
// buffers, upload a freshly generated key set, record and submit a
// full sort, then report throughput. Unlike an iterative optimization
// job there is no progress to poll mid-run; the job goes straight from
// running to completed or failed.
func runJob(ctx context.Context, jm *JobManager, resultStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateRunning, Timestamp: time.Now()})

	slog.Info("Starting sort job", "job_id", jobID, "key_count", job.Config.KeyCount)

	select {
	case <-ctx.Done():
		markJobFailed(jm, jobID, ctx.Err())
		return ctx.Err()
	default:
	}

	rt, err := sortcl.InitOpenCL()
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to init OpenCL: %w", err))
		return err
	}
	defer rt.Close()

	sorter, err := sortcl.New(rt)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to calibrate sorter: %w", err))
		return err
	}
	defer sorter.Close()

	keys := generateKeys(job.Config.KeyCount, job.Config.Seed)

	scratch, err := sorter.CreateInternalMemBuffer(len(keys))
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to allocate scratch buffer: %w", err))
		return err
	}
	defer scratch.Release()

	kv, err := sorter.CreateKeyvalBuffers(len(keys))
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to allocate keyval buffers: %w", err))
		return err
	}
	defer kv.Release()

	bg, err := sorter.CreateBindGroup(len(keys), scratch, kv)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to create bind group: %w", err))
		return err
	}
	defer bg.Release()

	if err := sorter.UploadKeys(kv.A, keys); err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to upload keys: %w", err))
		return err
	}

	enc := sortcl.NewEncoder()
	if err := sorter.RecordSort(bg, len(keys), enc); err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to record sort: %w", err))
		return err
	}

	start := time.Now()
	if err := enc.Submit(rt); err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to submit sort: %w", err))
		return err
	}
	elapsed := time.Since(start)

	if _, err := sorter.DownloadKeys(kv.A, len(keys)); err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to read back sorted keys: %w", err))
		return err
	}

	kps := float64(len(keys)) / elapsed.Seconds()
	endTime := time.Now()

	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.SubgroupWidth = sorter.SubgroupWidth()
		j.ElapsedSeconds = elapsed.Seconds()
		j.KeysPerSecond = kps
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	if resultStore != nil {
		record := store.NewSortJobRecord(jobID, job.Config, sorter.SubgroupWidth(), elapsed.Seconds(), kps)
		if err := resultStore.SaveRecord(jobID, record); err != nil {
			slog.Warn("Failed to persist sort job record", "job_id", jobID, "error", err)
		}
	}

	slog.Info("Sort job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"subgroup_width", sorter.SubgroupWidth(),
		"keys_per_second", kps,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:         jobID,
		State:         StateCompleted,
		SubgroupWidth: sorter.SubgroupWidth(),
		KeysPerSecond: kps,
		Timestamp:     time.Now(),
	})

	return nil
}

// generateKeys produces a reproducible set of non-negative float32 keys
// from the job's seed, per the core's NON-GOALS (no negative or
// IEEE-754-biased keys).
func generateKeys(n int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	keys := make([]float32, n)
	for i := range keys {
		keys[i] = rng.Float32() * 1e6
	}
	return keys
}

func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	jm.broadcaster.Broadcast(ProgressEvent{JobID: jobID, State: StateFailed, Timestamp: time.Now()})
	slog.Error("Sort job failed", "job_id", jobID, "error", err)
}
