package exitcode

import (
	"context"
	"errors"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/fetch"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/grid"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/ncfile"
)

// Exit codes for the ocean CLIs.
// A scheduler can use these to decide whether a rerun makes sense.
const (
	// Success - job completed successfully
	Success = 0

	// ConfigError - missing or invalid configuration or flags
	// Don't retry: fix the config first
	ConfigError = 1

	// NetworkError - every download attempt failed
	// Rerun later, the server is probably down
	NetworkError = 2

	// StorageError - failed to write to MinIO/S3 or the local output tree
	// Retry with backoff
	StorageError = 4

	// DataError - downloaded or input file is not usable netCDF, or grid is invalid
	// Don't retry: investigate the data
	DataError = 5

	// Interrupted - stopped by SIGINT/SIGTERM before finishing
	// Rerun when convenient, nothing is known to be wrong
	Interrupted = 130
)

// Exit code 3 was the upstream API error class; HYCOM has no API layer of its
// own, server errors surface as NetworkError.

// StorageFailure marks errors from local or object storage.
type StorageFailure struct {
	Err error
}

func (e *StorageFailure) Error() string { return e.Err.Error() }
func (e *StorageFailure) Unwrap() error { return e.Err }

// DataFailure marks errors caused by unusable data.
type DataFailure struct {
	Err error
}

func (e *DataFailure) Error() string { return e.Err.Error() }
func (e *DataFailure) Unwrap() error { return e.Err }

// For maps an error returned by a command to its exit code.
func For(err error) int {
	if err == nil {
		return Success
	}

	var storageErr *StorageFailure
	var dataErr *DataFailure
	switch {
	case errors.Is(err, context.Canceled):
		return Interrupted
	case errors.Is(err, fetch.ErrInvalidURL),
		errors.Is(err, model.ErrUnknownRunType):
		return ConfigError
	case errors.Is(err, fetch.ErrFetchExhausted):
		return NetworkError
	case errors.As(err, &dataErr),
		errors.Is(err, grid.ErrInvalidInput),
		errors.Is(err, ncfile.ErrNotClassic),
		errors.Is(err, ncfile.ErrMissingVariable),
		errors.Is(err, ncfile.ErrShape):
		return DataError
	case errors.As(err, &storageErr):
		return StorageError
	default:
		return NetworkError
	}
}
