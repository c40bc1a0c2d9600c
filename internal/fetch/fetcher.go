// Package fetch downloads a single remote resource to a local file, retrying
// a bounded number of times on transient network failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/metrics"
)

const (
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 5 * time.Minute
)

// Attempt records one try. It is not persisted; it only feeds the retry
// decision and the final report.
type Attempt struct {
	Index   int
	Start   time.Time
	Elapsed time.Duration
	Outcome Outcome
	Err     error
}

// Result describes a successful download.
type Result struct {
	Path     string
	Elapsed  time.Duration // duration of the successful attempt only
	Attempts int
	Bytes    int64
}

// Fetcher retries immediately, without backoff. It is meant for infrequent,
// manually triggered batch downloads.
type Fetcher struct {
	client         *http.Client
	maxAttempts    int
	attemptTimeout time.Duration
	clock          clockwork.Clock
	logger         *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithMaxAttempts sets the attempt budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n >= 1 {
			f.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each attempt, including reading the body.
func WithAttemptTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.attemptTimeout = d
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(f *Fetcher) { f.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher with three attempts and a five minute
// per-attempt timeout unless overridden.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:         &http.Client{},
		maxAttempts:    DefaultMaxAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		clock:          clockwork.NewRealClock(),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxAttempts returns the configured attempt budget.
func (f *Fetcher) MaxAttempts() int {
	return f.maxAttempts
}

// Fetch downloads rawURL to dest. The destination is only created by the
// attempt that succeeds; failed attempts leave nothing behind at dest.
//
// Transient failures are retried until the budget is spent, after which an
// *ExhaustedError is returned. Cancelling ctx stops retrying at once.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string) (Result, error) {
	if err := validateURL(rawURL); err != nil {
		return Result{}, err
	}

	history := make([]Attempt, 0, f.maxAttempts)
	for i := 1; i <= f.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("fetch %s: %w", rawURL, err)
		}

		f.logger.InfoContext(ctx, "fetch attempt", "url", rawURL, "attempt", i, "max_attempts", f.maxAttempts)

		start := f.clock.Now()
		n, err := f.attempt(ctx, rawURL, dest)
		elapsed := f.clock.Since(start)

		if err == nil {
			metrics.FetchAttemptsTotal.WithLabelValues(OutcomeSuccess.String()).Inc()
			metrics.FetchAttemptDuration.WithLabelValues(OutcomeSuccess.String()).Observe(elapsed.Seconds())
			metrics.FetchBytesTotal.Add(float64(n))

			f.logger.InfoContext(ctx, "fetch succeeded", "url", rawURL, "dest", dest, "attempt", i, "bytes", n, "took", elapsed)
			return Result{Path: dest, Elapsed: elapsed, Attempts: i, Bytes: n}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("fetch %s: %w", rawURL, ctxErr)
		}

		var attemptErr *AttemptError
		if !errors.As(err, &attemptErr) {
			// Local I/O failure, retrying would not help.
			return Result{}, fmt.Errorf("fetch %s: %w", rawURL, err)
		}

		metrics.FetchAttemptsTotal.WithLabelValues(attemptErr.Outcome.String()).Inc()
		metrics.FetchAttemptDuration.WithLabelValues(attemptErr.Outcome.String()).Observe(elapsed.Seconds())

		history = append(history, Attempt{
			Index:   i,
			Start:   start,
			Elapsed: elapsed,
			Outcome: attemptErr.Outcome,
			Err:     attemptErr,
		})

		f.logger.WarnContext(ctx, "fetch attempt failed",
			"url", rawURL,
			"attempt", i,
			"reason", attemptErr.Outcome.String(),
			"status", attemptErr.StatusCode,
			"error", attemptErr,
			"took", elapsed,
		)
	}

	last := history[len(history)-1]
	return Result{}, &ExhaustedError{
		URL:      rawURL,
		Attempts: len(history),
		Last:     last.Err,
		History:  history,
	}
}

// attempt performs one GET into a temporary sibling of dest and renames it
// into place only after the whole body has been written.
func (f *Fetcher) attempt(ctx context.Context, rawURL, dest string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return 0, &AttemptError{
			Outcome:    OutcomeNetworkError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()

	if copyErr == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		copyErr = fmt.Errorf("truncated body: got %d of %d bytes: %w", n, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	if copyErr != nil {
		_ = os.Remove(tmpName)
		return 0, classify(copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("failed to close temporary file: %w", closeErr)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}
	return n, nil
}

// classify maps a transport error onto the closed set of retryable outcomes.
func classify(err error) *AttemptError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &AttemptError{Outcome: OutcomeTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &AttemptError{Outcome: OutcomeTimeout, Err: err}
	}
	return &AttemptError{Outcome: OutcomeNetworkError, Err: err}
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q in %s", ErrInvalidURL, u.Scheme, rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host in %s", ErrInvalidURL, rawURL)
	}
	return nil
}

// RemoveStale deletes a file left by a previous run. A missing file is not an
// error, so repeated calls are safe.
func RemoveStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale %s: %w", path, err)
	}
	return nil
}
