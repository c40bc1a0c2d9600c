package hycom

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kacper-wojtaszczyk/jackfruit/ocean-go/internal/model"
)

// Accept selects the container format the NCSS server returns.
type Accept string

const (
	// AcceptNetCDF returns NETCDF3 classic files, readable by internal/ncfile.
	AcceptNetCDF Accept = "netcdf"
	// AcceptNetCDF4 returns HDF5-based files.
	AcceptNetCDF4 Accept = "netcdf4"
)

func (a Accept) Validate() error {
	switch a {
	case AcceptNetCDF, AcceptNetCDF4:
		return nil
	default:
		return fmt.Errorf("unknown accept format %q, expected %q or %q", string(a), AcceptNetCDF, AcceptNetCDF4)
	}
}

var (
	testingVariables = []string{"surf_el"}
	fullVariables    = []string{"surf_el", "water_temp", "salinity", "water_u", "water_v"}
)

// datasetPaths maps each run type to its NCSS dataset path.
var datasetPaths = map[model.RunType]string{
	model.Forecast:  "GLBy0.08/expt_93.0/data/forecasts/FMRC_best.ncd",
	model.BackfillU: "GLBu0.08/expt_93.0",
	model.BackfillY: "GLBy0.08/expt_93.0",
}

// timeLayout is the NCSS time_start/time_end format.
const timeLayout = "2006-01-02-T15:04:05Z"

// Request is one day of one HYCOM product over a region.
type Request struct {
	RunType model.RunType
	Day     time.Time
	Box     model.Box
	Testing bool // request surf_el only
	Accept  Accept
}

// Variables returns the HYCOM variable names the request asks for.
func (r Request) Variables() []string {
	if r.Testing {
		return append([]string(nil), testingVariables...)
	}
	return append([]string(nil), fullVariables...)
}

// DatasetPath returns the NCSS dataset path for the run type.
func (r Request) DatasetPath() (string, error) {
	p, ok := datasetPaths[r.RunType]
	if !ok {
		return "", fmt.Errorf("no HYCOM dataset for run type %q", r.RunType)
	}
	return p, nil
}

// URL builds the NCSS subset query against baseURL. Longitudes are shifted
// into HYCOM's 0..360 convention.
func (r Request) URL(baseURL string) (string, error) {
	path, err := r.DatasetPath()
	if err != nil {
		return "", err
	}
	accept := r.Accept
	if accept == "" {
		accept = AcceptNetCDF
	}
	if err := accept.Validate(); err != nil {
		return "", err
	}
	if _, err := url.Parse(baseURL); err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	day := r.Day.UTC().Truncate(24 * time.Hour).Format(timeLayout)

	// Fixed parameter order; url.Values.Encode would sort the keys.
	params := [][2]string{
		{"var", strings.Join(r.Variables(), ",")},
		{"north", formatCoord(r.Box.North)},
		{"south", formatCoord(r.Box.South)},
		{"west", formatCoord(r.Box.West + 360)},
		{"east", formatCoord(r.Box.East + 360)},
		{"disableProjSubset", "on"},
		{"horizStride", "1"},
		{"time_start", day},
		{"time_end", day},
		{"timeStride", "8"},
		{"vertCoord", ""},
		{"addLatLon", "true"},
		{"accept", string(accept)},
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	b.WriteByte('/')
	b.WriteString(path)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String(), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
