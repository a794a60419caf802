package report_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/LBrownI/VeryFastImageGenerator/internal/report"
	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

func sampleConfig() report.RunConfig {
	return report.RunConfig{
		Width:     1920,
		Height:    1080,
		Rate:      30,
		Frames:    300,
		Duration:  "0s",
		Workers:   7,
		Capacity:  64,
		Policy:    "block",
		OutputDir: "out",
		Extension: "png",
	}
}

func sampleStats() pipeline.Stats {
	return pipeline.Stats{
		Produced:        100,
		Enqueued:        100,
		Saved:           98,
		SaveFailed:      2,
		BytesWritten:    12345,
		ProducerElapsed: 2 * time.Second,
		TotalElapsed:    5 * time.Second,
	}
}

// TestNewRecordDerivesFields verifies the record carries a fresh id, the
// runtime version, and rates computed from the snapshot.
func TestNewRecordDerivesFields(t *testing.T) {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := report.NewRecord(started, sampleConfig(), sampleStats())

	if rec.RunID == "" {
		t.Error("expected a run id")
	}
	if other := report.NewRecord(started, sampleConfig(), sampleStats()); other.RunID == rec.RunID {
		t.Error("expected distinct run ids per record")
	}
	if rec.GoVersion != runtime.Version() {
		t.Errorf("expected go version %q, got %q", runtime.Version(), rec.GoVersion)
	}
	if rec.StartedAt != started.Format(time.RFC3339) {
		t.Errorf("unexpected start timestamp %q", rec.StartedAt)
	}
	if rec.GeneratedPerSec != 50 {
		t.Errorf("expected 50 generated/sec from 100 frames in 2s, got %g", rec.GeneratedPerSec)
	}
	if rec.SavedPerSec != 19.6 {
		t.Errorf("expected 19.6 saved/sec from 98 frames in 5s, got %g", rec.SavedPerSec)
	}
	if rec.ProducerElapsed != "2s" || rec.TotalElapsed != "5s" {
		t.Errorf("unexpected elapsed strings %q / %q", rec.ProducerElapsed, rec.TotalElapsed)
	}
}

// TestAppendSessionCreatesAndAppends verifies the history file is created
// on first use and grows by one record per append.
func TestAppendSessionCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	started := time.Now()

	first := report.NewRecord(started, sampleConfig(), sampleStats())
	if err := report.AppendSession(path, first); err != nil {
		t.Fatalf("unexpected error on first append: %v", err)
	}
	second := report.NewRecord(started, sampleConfig(), sampleStats())
	if err := report.AppendSession(path, second); err != nil {
		t.Fatalf("unexpected error on second append: %v", err)
	}

	records, err := report.LoadSessions(path)
	if err != nil {
		t.Fatalf("unexpected error loading sessions: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RunID != first.RunID || records[1].RunID != second.RunID {
		t.Error("expected records in append order")
	}
	if records[0].Config != sampleConfig() {
		t.Errorf("config did not round-trip: %+v", records[0].Config)
	}
	if records[0].Stats != sampleStats() {
		t.Errorf("stats did not round-trip: %+v", records[0].Stats)
	}
}

// TestAppendSessionRejectsMalformedHistory verifies an unreadable history
// is an error, never silently overwritten.
func TestAppendSessionRejectsMalformedHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("not a record list"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := report.NewRecord(time.Now(), sampleConfig(), sampleStats())
	if err := report.AppendSession(path, rec); err == nil {
		t.Fatal("expected an error appending to a malformed history")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "not a record list" {
		t.Error("expected the malformed file to be left untouched")
	}
}

// TestLoadSessionsMissingFile verifies a missing history is a plain error
// for the caller to classify.
func TestLoadSessionsMissingFile(t *testing.T) {
	if _, err := report.LoadSessions(filepath.Join(t.TempDir(), "absent.json")); !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}
