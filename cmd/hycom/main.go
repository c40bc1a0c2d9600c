package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/adapters/hycom"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/config"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/exitcode"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/fetch"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/ingestion"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/logging"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/metrics"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/report"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/storage"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const jobName = "hycom"

// options are the validated command line arguments.
type options struct {
	runType   model.RunType
	start     time.Time
	end       time.Time
	runID     model.RunID
	testing   bool
	accept    hycom.Accept
	logFormat string
	verbose   bool
}

func parseFlags(args []string, now time.Time) (options, error) {
	fs := flag.NewFlagSet("hycom", flag.ContinueOnError)
	runTypeStr := fs.String("run-type", string(model.Forecast), "HYCOM product: forecast, backfill_u or backfill_y")
	dateStr := fs.String("date", "", "First day to extract (YYYY.MM.DD), backfill run types only")
	endDateStr := fs.String("end-date", "", "Last day to extract (YYYY.MM.DD), defaults to --date")
	runIDStr := fs.String("run-id", "", "Run identifier (UUIDv7), generated when empty")
	surfOnly := fs.Bool("testing", false, "Request surf_el only")
	accept := fs.String("accept", string(hycom.AcceptNetCDF), "Server output format: netcdf or netcdf4")
	logFormat := fs.String("log-format", logging.FormatJSON, "Log format: json or text")
	verbose := fs.Bool("verbose", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	opts := options{
		runType:   model.RunType(*runTypeStr),
		testing:   *surfOnly,
		accept:    hycom.Accept(*accept),
		logFormat: *logFormat,
		verbose:   *verbose,
	}
	if err := opts.runType.Validate(); err != nil {
		return options{}, err
	}
	if err := opts.accept.Validate(); err != nil {
		return options{}, err
	}

	if opts.runType.IsBackfill() {
		if *dateStr == "" {
			return options{}, fmt.Errorf("--date is required for run type %s", opts.runType)
		}
		start, err := model.ParseDate(*dateStr)
		if err != nil {
			return options{}, err
		}
		end := start
		if *endDateStr != "" {
			if end, err = model.ParseDate(*endDateStr); err != nil {
				return options{}, err
			}
		}
		if end.Before(start) {
			return options{}, fmt.Errorf("--end-date %s is before --date %s", *endDateStr, *dateStr)
		}
		opts.start, opts.end = start, end
	} else {
		if *dateStr != "" || *endDateStr != "" {
			return options{}, errors.New("--date and --end-date only apply to backfill run types, forecast always uses today")
		}
		today := now.UTC().Truncate(24 * time.Hour)
		opts.start, opts.end = today, today
	}

	if *runIDStr == "" {
		id, err := model.NewRunID()
		if err != nil {
			return options{}, err
		}
		opts.runID = id
	} else {
		opts.runID = model.RunID(*runIDStr)
		if err := opts.runID.Validate(); err != nil {
			return options{}, err
		}
	}

	return opts, nil
}

// backfiller is the part of ingestion.Service the command drives.
type backfiller interface {
	Backfill(ctx context.Context, runType model.RunType, start, end time.Time, runID model.RunID) ([]ingestion.Outcome, error)
}

// run ingests the requested days and writes a results.txt for each of them.
func run(ctx context.Context, svc backfiller, outputDir string, opts options) error {
	slog.InfoContext(ctx, "hycom extraction started",
		"run_type", opts.runType,
		"start", model.DateString(opts.start),
		"end", model.DateString(opts.end),
		"run_id", opts.runID,
		"testing", opts.testing,
	)

	outcomes, err := svc.Backfill(ctx, opts.runType, opts.start, opts.end, opts.runID)

	var reportErr error
	for _, out := range outcomes {
		infoDir := model.NewOutputPaths(outputDir, out.RunType, out.Day).InfoDir
		if werr := report.Write(infoDir, report.FromOutcome(jobName, out)); werr != nil {
			slog.ErrorContext(ctx, "failed to write results", "day", model.DateString(out.Day), "error", werr)
			reportErr = errors.Join(reportErr, werr)
		}
	}

	if err != nil {
		return err
	}
	if reportErr != nil {
		return &exitcode.StorageFailure{Err: reportErr}
	}
	return nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], time.Now())
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitcode.Success)
		}
		fmt.Fprintf(os.Stderr, "Usage: %v\n", err)
		os.Exit(exitcode.ConfigError)
	}

	logger, err := logging.New(os.Stdout, opts.logFormat, opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %v\n", err)
		os.Exit(exitcode.ConfigError)
	}
	slog.SetDefault(logger)

	// Ensure environment variables are loaded
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load env vars", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(exitcode.ConfigError)
	}

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	// Create a cancellable context (for graceful shutdown)
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher := fetch.NewFetcher(
		fetch.WithMaxAttempts(cfg.FetchMaxAttempts),
		fetch.WithAttemptTimeout(cfg.FetchTimeout),
		fetch.WithLogger(logger),
	)
	client := hycom.NewClient(cfg.HYCOMBaseURL, fetcher, hycom.Options{
		Box:     cfg.HYCOMBox,
		Testing: opts.testing,
		Accept:  opts.accept,
	})

	var archive ingestion.ObjectStorage
	if cfg.ArchiveEnabled {
		minioClient, err := storage.NewMinIOClient(ctx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			slog.Error("failed to initialize minio client", "error", err)
			os.Exit(exitcode.ConfigError)
		}
		archive = minioClient
	}

	svc := ingestion.NewService(client, archive, cfg.OutputDir,
		ingestion.WithBreaker(cfg.BreakerMaxFailures, 0))

	code := exitcode.Success
	if err := run(ctx, svc, cfg.OutputDir, opts); err != nil {
		slog.Error("application error", "error", err)
		code = exitcode.For(err)
	}

	if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		slog.Warn("failed to export metrics", "error", err)
	}

	slog.Info("shutdown complete", "exit_code", code)
	cancel()
	os.Exit(code)
}
