// Package report renders run summaries for the CLI and persists session
// records as an appendable JSON history that cmd/plotstats charts.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

// RunConfig echoes the configuration a record was produced with, so
// sessions remain interpretable after defaults change.
type RunConfig struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Rate      float64 `json:"rate_fps"`
	Frames    int64   `json:"frame_budget"`
	Duration  string  `json:"duration"`
	Workers   int     `json:"workers"`
	Capacity  int     `json:"queue_capacity"`
	Policy    string  `json:"overflow_policy"`
	OutputDir string  `json:"output_dir"`
	Extension string  `json:"extension"`
}

// RunRecord is one completed run in the session history.
type RunRecord struct {
	RunID     string  `json:"run_id"`
	StartedAt string  `json:"started_at"`
	GoVersion string  `json:"go_version"`

	Config RunConfig  `json:"config"`
	System SystemInfo `json:"system_info"`

	Stats pipeline.Stats `json:"stats"`

	ProducerElapsed string  `json:"producer_elapsed"`
	TotalElapsed    string  `json:"total_elapsed"`
	GeneratedPerSec float64 `json:"generated_fps"`
	SavedPerSec     float64 `json:"saved_fps"`
}

// NewRecord assembles a RunRecord for a finished run: fresh run id,
// timestamps, host info, and the rates derived from the snapshot.
func NewRecord(startedAt time.Time, cfg RunConfig, stats pipeline.Stats) RunRecord {
	return RunRecord{
		RunID:           uuid.NewString(),
		StartedAt:       startedAt.Format(time.RFC3339),
		GoVersion:       runtime.Version(),
		Config:          cfg,
		System:          CaptureSystemInfo(),
		Stats:           stats,
		ProducerElapsed: stats.ProducerElapsed.String(),
		TotalElapsed:    stats.TotalElapsed.String(),
		GeneratedPerSec: stats.GeneratedPerSecond(),
		SavedPerSec:     stats.SavedPerSecond(),
	}
}

// AppendSession appends rec to the JSON history at path, creating the
// file on first use. A malformed existing file is an error rather than a
// silent overwrite.
func AppendSession(path string, rec RunRecord) error {
	var records []RunRecord

	data, err := os.ReadFile(path)
	switch {
	case err == nil && len(data) > 0:
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("session file %s is not a record list: %w", path, err)
		}
	case err != nil && !os.IsNotExist(err):
		return err
	}

	records = append(records, rec)
	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// LoadSessions reads the full session history at path.
func LoadSessions(path string) ([]RunRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []RunRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("session file %s is not a record list: %w", path, err)
	}
	return records, nil
}
