package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RunType selects which HYCOM product a job extracts from.
type RunType string

const (
	// Forecast extracts today's field from the FMRC best-time-series aggregation.
	Forecast RunType = "forecast"
	// BackfillU extracts past days from the GLBu0.08 hindcast.
	BackfillU RunType = "backfill_u"
	// BackfillY extracts past days from the GLBy0.08 hindcast.
	BackfillY RunType = "backfill_y"
)

// ErrUnknownRunType is wrapped by RunType.Validate.
var ErrUnknownRunType = errors.New("unknown run type")

// RunTypes lists every supported run type in display order.
var RunTypes = []RunType{Forecast, BackfillU, BackfillY}

// Validate checks that r is one of the known run types.
func (r RunType) Validate() error {
	for _, known := range RunTypes {
		if r == known {
			return nil
		}
	}
	return fmt.Errorf("%w %q, expected one of %v", ErrUnknownRunType, string(r), RunTypes)
}

// IsBackfill reports whether r extracts a requested past date.
func (r RunType) IsBackfill() bool {
	return r == BackfillU || r == BackfillY
}

func (r RunType) String() string {
	return string(r)
}

// RunID represents a UUIDv7 run identifier.
type RunID string

// NewRunID generates a fresh UUIDv7 run identifier.
func NewRunID() (RunID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate run-id: %w", err)
	}
	return RunID(id.String()), nil
}

// Validate checks that the RunID is a valid UUIDv7.
func (r RunID) Validate() error {
	if r == "" {
		return fmt.Errorf("run-id cannot be empty")
	}
	id, err := uuid.Parse(string(r))
	if err != nil {
		return fmt.Errorf("run-id must be a valid UUID: %w", err)
	}
	if id.Version() != uuid.Version(7) {
		return fmt.Errorf("run-id must be a UUIDv7, got v%d", id.Version())
	}
	return nil
}

func (r RunID) String() string {
	return string(r)
}

// DateLayout is the dotted day format used in forcing directory names and
// on the command line.
const DateLayout = "2006.01.02"

// ParseDate parses a YYYY.MM.DD string as a UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY.MM.DD: %w", s, err)
	}
	return t, nil
}

// DateString formats t as YYYY.MM.DD.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// Days returns every day from start to end inclusive, truncated to midnight
// UTC. It returns nil when end is before start.
func Days(start, end time.Time) []time.Time {
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// OutputPaths is the on-disk layout of one extracted day.
type OutputPaths struct {
	Dir      string // forcing/hycom/<run_type>/f<date>
	DataFile string // Dir/Data/hycom.nc
	InfoDir  string // Dir/Info
}

// NewOutputPaths lays out the forcing directory for runType and day under root.
func NewOutputPaths(root string, runType RunType, day time.Time) OutputPaths {
	dir := filepath.Join(root, "forcing", "hycom", runType.String(), "f"+DateString(day))
	return OutputPaths{
		Dir:      dir,
		DataFile: filepath.Join(dir, "Data", "hycom.nc"),
		InfoDir:  filepath.Join(dir, "Info"),
	}
}
