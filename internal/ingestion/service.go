package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/exitcode"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/fetch"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/metrics"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/ncfile"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/storage"
)

// FetchRequest contains input parameters for fetching one day.
type FetchRequest struct {
	RunType model.RunType
	Day     time.Time
	Dest    string
}

// FetchResult describes the file written by a Fetcher.
type FetchResult struct {
	Path      string
	URL       string
	Variables []string // variables the request asked for
	Attempts  int
	Elapsed   time.Duration
	Bytes     int64
}

// Fetcher retrieves raw data for a given request into req.Dest.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResult, error)
}

// ObjectStorage writes data streams to object storage.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data io.Reader) error
}

// Request selects the product and day to ingest.
type Request struct {
	RunType model.RunType
	Day     time.Time
}

// Outcome summarizes one ingested (or attempted) day.
type Outcome struct {
	RunType    model.RunType
	Day        time.Time
	Paths      model.OutputPaths
	Fetch      FetchResult
	Format     ncfile.Format
	ArchiveKey string // empty when archiving is disabled
	Start      time.Time
	Took       time.Duration
	Skipped    bool // not attempted because the breaker was open
	Err        error
}

// Service orchestrates ingestion steps: fetch, verify, then archive.
type Service struct {
	fetcher       Fetcher
	objectStorage ObjectStorage
	outputDir     string

	clock              clockwork.Clock
	breakerMaxFailures uint32
	breakerCooldown    time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithBreaker sets how many consecutive exhausted days open the backfill
// breaker and how long it stays open.
func WithBreaker(maxFailures uint32, cooldown time.Duration) Option {
	return func(s *Service) {
		if maxFailures > 0 {
			s.breakerMaxFailures = maxFailures
		}
		if cooldown > 0 {
			s.breakerCooldown = cooldown
		}
	}
}

// NewService wires a Service. objectStorage may be nil to disable archiving.
func NewService(fetcher Fetcher, objectStorage ObjectStorage, outputDir string, opts ...Option) *Service {
	s := &Service{
		fetcher:            fetcher,
		objectStorage:      objectStorage,
		outputDir:          outputDir,
		clock:              clockwork.NewRealClock(),
		breakerMaxFailures: 3,
		breakerCooldown:    10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest fetches one day into the forcing tree, checks the file and archives
// it. The returned Outcome is populated even when an error is returned.
func (s *Service) Ingest(ctx context.Context, req Request, runID model.RunID) (Outcome, error) {
	out := Outcome{
		RunType: req.RunType,
		Day:     req.Day,
		Start:   s.clock.Now(),
	}
	err := s.ingest(ctx, req, runID, &out)
	out.Took = s.clock.Since(out.Start)
	out.Err = err

	if err != nil {
		metrics.IngestDaysTotal.WithLabelValues("fail").Inc()
	} else {
		metrics.IngestDaysTotal.WithLabelValues("success").Inc()
	}
	return out, err
}

func (s *Service) ingest(ctx context.Context, req Request, runID model.RunID, out *Outcome) error {
	if err := runID.Validate(); err != nil {
		return err
	}
	if err := req.RunType.Validate(); err != nil {
		return err
	}

	out.Paths = model.NewOutputPaths(s.outputDir, req.RunType, req.Day)
	day := model.DateString(req.Day)

	slog.DebugContext(ctx, "ingestion started", "run_type", req.RunType, "day", day, "run_id", runID, "dest", out.Paths.DataFile)

	for _, dir := range []string{filepath.Dir(out.Paths.DataFile), out.Paths.InfoDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &exitcode.StorageFailure{Err: fmt.Errorf("prepare output: %w", err)}
		}
	}
	if err := fetch.RemoveStale(out.Paths.DataFile); err != nil {
		return &exitcode.StorageFailure{Err: fmt.Errorf("prepare output: %w", err)}
	}

	result, err := s.fetcher.Fetch(ctx, FetchRequest{RunType: req.RunType, Day: req.Day, Dest: out.Paths.DataFile})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	out.Fetch = result

	format, err := s.verify(ctx, result)
	out.Format = format
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if s.objectStorage != nil {
		key := storage.ArchiveKey{
			Source:    "hycom",
			RunType:   req.RunType,
			Day:       req.Day,
			RunID:     runID,
			Extension: "nc.zst",
		}
		if err := s.archive(ctx, result.Path, key.Key()); err != nil {
			return &exitcode.StorageFailure{Err: fmt.Errorf("store: %w", err)}
		}
		out.ArchiveKey = key.Key()
	}

	slog.InfoContext(ctx, "ingestion complete",
		"run_type", req.RunType,
		"day", day,
		"run_id", runID,
		"path", result.Path,
		"format", format.String(),
		"attempts", result.Attempts,
		"bytes", result.Bytes,
		"archive_key", out.ArchiveKey,
	)
	return nil
}

// verify checks a downloaded file. Classic files must define every requested
// variable and HDF5 files are accepted unchecked. A file that fails the check
// is removed from the forcing tree.
func (s *Service) verify(ctx context.Context, result FetchResult) (ncfile.Format, error) {
	format, err := ncfile.DetectFormat(result.Path)
	if err != nil {
		return ncfile.FormatUnknown, &exitcode.StorageFailure{Err: err}
	}

	switch format {
	case ncfile.FormatClassic:
		names, err := ncfile.Variables(result.Path)
		if err != nil {
			return format, err
		}
		for _, vn := range names {
			slog.DebugContext(ctx, "variable", "name", vn)
		}
		missing, err := ncfile.MissingVariables(result.Path, result.Variables)
		if err != nil {
			return format, err
		}
		if len(missing) > 0 {
			_ = fetch.RemoveStale(result.Path)
			return format, fmt.Errorf("%w: %s lacks %v", ncfile.ErrMissingVariable, result.Path, missing)
		}
		return format, nil
	case ncfile.FormatHDF5:
		slog.WarnContext(ctx, "netCDF-4 file accepted without variable check", "path", result.Path)
		return format, nil
	default:
		_ = fetch.RemoveStale(result.Path)
		return format, &exitcode.DataFailure{Err: fmt.Errorf("%s is not a netCDF file", result.Path)}
	}
}

func (s *Service) archive(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	body := storage.CompressedReader(f)
	defer body.Close()

	slog.DebugContext(ctx, "archiving", "path", path, "key", key)
	return s.objectStorage.Put(ctx, key, body)
}

// ErrBackfillIncomplete is wrapped by Backfill when any day failed or was skipped.
var ErrBackfillIncomplete = errors.New("backfill incomplete")

// Backfill ingests every day from start to end inclusive, one after another.
// A circuit breaker stops requesting once several consecutive days exhaust
// their download attempts; those days are reported as skipped.
func (s *Service) Backfill(ctx context.Context, runType model.RunType, start, end time.Time, runID model.RunID) ([]Outcome, error) {
	days := model.Days(start, end)
	if len(days) == 0 {
		return nil, fmt.Errorf("end date %s is before start date %s", model.DateString(end), model.DateString(start))
	}

	cb := newBreaker(runType, s.breakerMaxFailures, s.breakerCooldown)

	outcomes := make([]Outcome, 0, len(days))
	var errs []error
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		out, err := cb.Execute(func() (Outcome, error) {
			return s.Ingest(ctx, Request{RunType: runType, Day: day}, runID)
		})
		if isBreakerRejection(err) {
			out = Outcome{RunType: runType, Day: day, Start: s.clock.Now(), Skipped: true, Err: err}
			metrics.IngestDaysTotal.WithLabelValues("skipped").Inc()
			slog.WarnContext(ctx, "day skipped, too many consecutive failures", "run_type", runType, "day", model.DateString(day))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", model.DateString(day), err))
		}
		outcomes = append(outcomes, out)
	}

	if len(errs) > 0 {
		return outcomes, fmt.Errorf("%w: %d of %d days failed: %w", ErrBackfillIncomplete, len(errs), len(days), errors.Join(errs...))
	}
	return outcomes, nil
}
