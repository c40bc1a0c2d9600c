package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

// Config holds application configuration read from the environment.
type Config struct {
	OutputDir string `envconfig:"LO_OUTPUT_DIR" validate:"required"`

	HYCOMBaseURL string    `envconfig:"HYCOM_BASE_URL" default:"http://ncss.hycom.org/thredds/ncss" validate:"required,url"`
	HYCOMBox     model.Box `envconfig:"HYCOM_BOX" default:"-131,-121,39,53"`

	FetchMaxAttempts   int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"3" validate:"min=1,max=10"`
	FetchTimeout       time.Duration `envconfig:"FETCH_TIMEOUT" default:"5m" validate:"gt=0"`
	BreakerMaxFailures uint32        `envconfig:"BREAKER_MAX_FAILURES" default:"3" validate:"min=1"`

	ArchiveEnabled bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT" validate:"required_if=ArchiveEnabled true"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY" validate:"required_if=ArchiveEnabled true"`
	MinIOSecretKey string `envconfig:"MINIO_SECRET_KEY" validate:"required_if=ArchiveEnabled true"`
	MinIOBucket    string `envconfig:"MINIO_BUCKET" validate:"required_if=ArchiveEnabled true"`
	MinIOUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`
}

type ErrMissingRequiredEnvVar struct {
	Name string
}

func (e *ErrMissingRequiredEnvVar) Error() string {
	return fmt.Sprintf("required environment variable %q is not set", e.Name)
}

type ErrInvalidEnvVar struct {
	Name string
	Err  error
}

func (e *ErrInvalidEnvVar) Error() string {
	return fmt.Sprintf("invalid environment variable %q: %v", e.Name, e.Err)
}

func (e *ErrInvalidEnvVar) Unwrap() error {
	return e.Err
}

// Load reads configuration from environment variables.
// Returns an error if required variables are missing or values are invalid.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		var parseErr *envconfig.ParseError
		if errors.As(err, &parseErr) {
			return nil, &ErrInvalidEnvVar{Name: parseErr.KeyName, Err: parseErr.Err}
		}
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := newValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			switch fe.Tag() {
			case "required", "required_if":
				return nil, &ErrMissingRequiredEnvVar{Name: fe.Field()}
			default:
				return nil, &ErrInvalidEnvVar{
					Name: fe.Field(),
					Err:  fmt.Errorf("value %v fails %q", fe.Value(), fe.ActualTag()+paramSuffix(fe.Param())),
				}
			}
		}
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// newValidator reports fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("envconfig")
	})
	return v
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}
