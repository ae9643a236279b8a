package store

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSortJobRecordJSONSerialization(t *testing.T) {
	original := &SortJobRecord{
		JobID: "test-job-123",
		Config: SortJobConfig{
			KeyCount: 1_000_000,
			Seed:     42,
		},
		SubgroupWidth:  32,
		ElapsedSeconds: 0.042,
		KeysPerSecond:  2.38e7,
		Timestamp:      time.Date(2026, 7, 31, 10, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var restored SortJobRecord
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if restored.JobID != original.JobID {
		t.Errorf("JobID = %q, want %q", restored.JobID, original.JobID)
	}
	if restored.Config.KeyCount != original.Config.KeyCount {
		t.Errorf("Config.KeyCount = %d, want %d", restored.Config.KeyCount, original.Config.KeyCount)
	}
	if restored.SubgroupWidth != original.SubgroupWidth {
		t.Errorf("SubgroupWidth = %d, want %d", restored.SubgroupWidth, original.SubgroupWidth)
	}
	if !restored.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", restored.Timestamp, original.Timestamp)
	}
}

func TestSortJobRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  *SortJobRecord
		wantErr bool
	}{
		{
			name: "valid",
			record: &SortJobRecord{
				JobID:     "job-1",
				Config:    SortJobConfig{KeyCount: 512},
				Timestamp: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "missing job id",
			record: &SortJobRecord{
				Config:    SortJobConfig{KeyCount: 512},
				Timestamp: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "non-positive key count",
			record: &SortJobRecord{
				JobID:     "job-1",
				Config:    SortJobConfig{KeyCount: 0},
				Timestamp: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "negative elapsed",
			record: &SortJobRecord{
				JobID:          "job-1",
				Config:         SortJobConfig{KeyCount: 512},
				ElapsedSeconds: -1,
				Timestamp:      time.Now(),
			},
			wantErr: true,
		},
		{
			name: "zero timestamp",
			record: &SortJobRecord{
				JobID:  "job-1",
				Config: SortJobConfig{KeyCount: 512},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
