package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/exitcode"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/fetch"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/ingestion"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

var now = time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

func TestParseFlags_ForecastDefaults(t *testing.T) {
	opts, err := parseFlags(nil, now)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.runType != model.Forecast {
		t.Errorf("runType = %s", opts.runType)
	}
	today := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !opts.start.Equal(today) || !opts.end.Equal(today) {
		t.Errorf("forecast must use today, got %s..%s", opts.start, opts.end)
	}
	if err := opts.runID.Validate(); err != nil {
		t.Errorf("generated run-id invalid: %v", err)
	}
	if opts.accept != "netcdf" {
		t.Errorf("accept = %s, want netcdf", opts.accept)
	}
}

func TestParseFlags_Backfill(t *testing.T) {
	opts, err := parseFlags([]string{
		"--run-type", "backfill_y",
		"--date", "2018.12.05",
		"--end-date", "2018.12.07",
		"--run-id", "01890c24-905b-7122-b170-b60814e6ee06",
		"--testing",
		"--accept", "netcdf4",
	}, now)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.runType != model.BackfillY || !opts.testing || opts.accept != "netcdf4" {
		t.Errorf("unexpected options %+v", opts)
	}
	if model.DateString(opts.start) != "2018.12.05" || model.DateString(opts.end) != "2018.12.07" {
		t.Errorf("range = %s..%s", opts.start, opts.end)
	}
	if opts.runID != "01890c24-905b-7122-b170-b60814e6ee06" {
		t.Errorf("runID = %s", opts.runID)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown run type", []string{"--run-type", "hindcast"}},
		{"backfill without date", []string{"--run-type", "backfill_u"}},
		{"bad date", []string{"--run-type", "backfill_u", "--date", "2012-01-25"}},
		{"reversed range", []string{"--run-type", "backfill_u", "--date", "2012.01.25", "--end-date", "2012.01.20"}},
		{"forecast with date", []string{"--date", "2012.01.25"}},
		{"bad run id", []string{"--run-id", "550e8400-e29b-41d4-a716-446655440000"}},
		{"bad accept", []string{"--accept", "grib"}},
		{"positional argument", []string{"extra"}},
		{"unknown flag", []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFlags(tt.args, now); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

type stubBackfiller struct {
	outcomes []ingestion.Outcome
	err      error
}

func (s stubBackfiller) Backfill(ctx context.Context, runType model.RunType, start, end time.Time, runID model.RunID) ([]ingestion.Outcome, error) {
	return s.outcomes, s.err
}

func TestRun_WritesResults(t *testing.T) {
	root := t.TempDir()
	day := time.Date(2012, 1, 25, 0, 0, 0, 0, time.UTC)
	exhausted := &fetch.ExhaustedError{URL: "http://hycom.test", Attempts: 3, Last: errors.New("timeout")}

	svc := stubBackfiller{
		outcomes: []ingestion.Outcome{
			{RunType: model.BackfillU, Day: day, Start: now, Took: 12 * time.Second},
			{RunType: model.BackfillU, Day: day.AddDate(0, 0, 1), Start: now, Err: exhausted},
		},
		err: exhausted,
	}
	opts := options{runType: model.BackfillU, start: day, end: day.AddDate(0, 0, 1), runID: "01890c24-905b-7122-b170-b60814e6ee06"}

	err := run(context.Background(), svc, root, opts)
	if got := exitcode.For(err); got != exitcode.NetworkError {
		t.Fatalf("exit code = %d, want %d (err %v)", got, exitcode.NetworkError, err)
	}

	first, err := os.ReadFile(filepath.Join(root, "forcing", "hycom", "backfill_u", "f2012.01.25", "Info", "results.txt"))
	if err != nil {
		t.Fatalf("results for first day missing: %v", err)
	}
	if !strings.HasPrefix(string(first), "* job=hycom, day=2012.01.25, result=success, note=NONE\n") {
		t.Errorf("unexpected results: %q", first)
	}
	if !strings.Contains(string(first), "(took 12 sec)") {
		t.Errorf("unexpected timing: %q", first)
	}

	second, err := os.ReadFile(filepath.Join(root, "forcing", "hycom", "backfill_u", "f2012.01.26", "Info", "results.txt"))
	if err != nil {
		t.Fatalf("results for second day missing: %v", err)
	}
	if !strings.Contains(string(second), "result=fail") {
		t.Errorf("unexpected results: %q", second)
	}
}

func TestRun_Success(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := stubBackfiller{outcomes: []ingestion.Outcome{{RunType: model.Forecast, Day: day}}}

	if err := run(context.Background(), svc, t.TempDir(), options{runType: model.Forecast, start: day, end: day}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}
