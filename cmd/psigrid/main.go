package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/exitcode"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/grid"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/logging"
	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/ncfile"
)

type options struct {
	in, out        string
	lonVar, latVar string
	pad            float64
	logFormat      string
	verbose        bool
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("psigrid", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.in, "in", "", "Grid netCDF file with cell-center coordinates")
	fs.StringVar(&opts.out, "out", "", "Output netCDF file for the psi mesh")
	fs.StringVar(&opts.lonVar, "lon-var", "lon_rho", "Longitude variable of the cell centers")
	fs.StringVar(&opts.latVar, "lat-var", "lat_rho", "Latitude variable of the cell centers")
	fs.Float64Var(&opts.pad, "pad", 0.05, "Plot padding as a fraction of the latitude span")
	fs.StringVar(&opts.logFormat, "log-format", logging.FormatText, "Log format: json or text")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.in == "" {
		return options{}, errors.New("--in is required")
	}
	if opts.out == "" {
		return options{}, errors.New("--out is required")
	}
	if opts.in == opts.out {
		return options{}, errors.New("--out must differ from --in")
	}
	if opts.pad < 0 {
		return options{}, fmt.Errorf("--pad must not be negative, got %v", opts.pad)
	}
	return opts, nil
}

// run reads the cell centers, derives the corner mesh and writes it out.
func run(logger *slog.Logger, opts options) (grid.Limits, error) {
	lonRho, latRho, err := ncfile.ReadGrid(opts.in, opts.lonVar, opts.latVar)
	if err != nil {
		return grid.Limits{}, fmt.Errorf("read grid: %w", err)
	}

	lonPsi, latPsi, err := grid.PsiFromRho(lonRho, latRho)
	if err != nil {
		return grid.Limits{}, fmt.Errorf("psi: %w", err)
	}

	// PsiFromRho has checked the shape, so every row has at least 2 points.
	latAxis := make([]float64, len(latRho))
	for j := range latRho {
		latAxis[j] = latRho[j][0]
	}
	if !grid.IsMonotonic(lonRho[0]) {
		logger.Warn("longitude axis is not strictly monotonic, corners may be wrong", "var", opts.lonVar)
	}
	if !grid.IsMonotonic(latAxis) {
		logger.Warn("latitude axis is not strictly monotonic, corners may be wrong", "var", opts.latVar)
	}

	limits, err := grid.PlotLimits(lonPsi, latPsi, opts.pad)
	if err != nil {
		return grid.Limits{}, fmt.Errorf("limits: %w", err)
	}

	if err := ncfile.WritePsi(opts.out, lonPsi, latPsi); err != nil {
		return grid.Limits{}, &exitcode.StorageFailure{Err: fmt.Errorf("write psi: %w", err)}
	}

	logger.Info("psi grid written",
		"in", opts.in,
		"out", opts.out,
		"eta_rho", len(lonRho),
		"xi_rho", len(lonRho[0]),
		"eta_psi", len(lonPsi),
		"xi_psi", len(lonPsi[0]),
		"plot_limits", limits.String(),
	)
	return limits, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitcode.Success)
		}
		fmt.Fprintf(os.Stderr, "Usage: %v\n", err)
		os.Exit(exitcode.ConfigError)
	}

	logger, err := logging.New(os.Stderr, opts.logFormat, opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %v\n", err)
		os.Exit(exitcode.ConfigError)
	}

	if _, err := run(logger, opts); err != nil {
		logger.Error("psigrid failed", "error", err)
		os.Exit(exitcode.For(err))
	}
}
