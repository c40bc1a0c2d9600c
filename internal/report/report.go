// Package report writes the per-day results.txt summary that downstream
// forcing checks read.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/ingestion"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

// FileName is the summary file written into each Info directory.
const FileName = "results.txt"

const timeLayout = "2006.01.02 15:04:05"

// Entry is one job/day result.
type Entry struct {
	Job     string
	Day     time.Time
	Success bool
	Note    string
	Start   time.Time
	Took    time.Duration
}

// FromOutcome builds an Entry for an ingested day.
func FromOutcome(job string, out ingestion.Outcome) Entry {
	e := Entry{
		Job:     job,
		Day:     out.Day,
		Success: out.Err == nil,
		Start:   out.Start,
		Took:    out.Took,
	}
	switch {
	case out.Skipped:
		e.Note = "skipped after repeated download failures"
	case out.Err != nil:
		e.Note = out.Err.Error()
	case out.Fetch.Attempts > 1:
		e.Note = fmt.Sprintf("succeeded on attempt %d", out.Fetch.Attempts)
	}
	return e
}

func (e Entry) String() string {
	result := "fail"
	if e.Success {
		result = "success"
	}
	note := strings.ReplaceAll(strings.TrimSpace(e.Note), "\n", " ")
	if note == "" {
		note = "NONE"
	}
	return fmt.Sprintf("* job=%s, day=%s, result=%s, note=%s\n  start=%s (took %d sec)\n",
		e.Job, model.DateString(e.Day), result, note,
		e.Start.Format(timeLayout), int(e.Took.Seconds()))
}

// Write replaces infoDir/results.txt with e, creating infoDir if needed.
func Write(infoDir string, e Entry) error {
	if err := os.MkdirAll(infoDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", infoDir, err)
	}
	path := filepath.Join(infoDir, FileName)
	if err := os.WriteFile(path, []byte(e.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
