// Package ncfile reads and writes the netCDF files exchanged with the ocean
// model: fetched HYCOM extractions and grid files.
package ncfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
)

var (
	ErrNotClassic      = errors.New("not a classic netCDF file")
	ErrMissingVariable = errors.New("variable not found")
	ErrShape           = errors.New("unexpected variable shape")
)

// Format is the on-disk container of a netCDF file.
type Format int

const (
	FormatUnknown Format = iota
	FormatClassic        // CDF-1 or CDF-2 (64-bit offset)
	FormatHDF5           // netCDF-4
)

func (f Format) String() string {
	switch f {
	case FormatClassic:
		return "classic"
	case FormatHDF5:
		return "hdf5"
	default:
		return "unknown"
	}
}

var (
	magicCDF1 = []byte("CDF\x01")
	magicCDF2 = []byte("CDF\x02")
	magicHDF5 = []byte("\x89HDF\r\n\x1a\n")
)

// DetectFormat inspects the leading magic bytes of path.
func DetectFormat(path string) (Format, error) {
	fh, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fh.Close()

	head := make([]byte, len(magicHDF5))
	n, err := io.ReadFull(fh, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, fmt.Errorf("failed to read %s: %w", path, err)
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, magicCDF1), bytes.HasPrefix(head, magicCDF2):
		return FormatClassic, nil
	case bytes.HasPrefix(head, magicHDF5):
		return FormatHDF5, nil
	default:
		return FormatUnknown, nil
	}
}

func open(path string) (*os.File, *cdf.File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	f, err := cdf.Open(fh)
	if err != nil {
		fh.Close()
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrNotClassic, path, err)
	}
	return fh, f, nil
}

// Variables lists the variable names defined in a classic netCDF file.
func Variables(path string) ([]string, error) {
	fh, f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return f.Header.Variables(), nil
}

// MissingVariables returns the names from want that path does not define.
func MissingVariables(path string, want []string) ([]string, error) {
	names, err := Variables(path)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(names))
	for _, n := range names {
		have[n] = struct{}{}
	}

	var missing []string
	for _, w := range want {
		if _, ok := have[w]; !ok {
			missing = append(missing, w)
		}
	}
	return missing, nil
}

// ReadGrid reads two 2-D coordinate variables, indexed [eta][xi].
func ReadGrid(path, lonVar, latVar string) ([][]float64, [][]float64, error) {
	fh, f, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer fh.Close()

	lon, err := read2D(f, lonVar)
	if err != nil {
		return nil, nil, err
	}
	lat, err := read2D(f, latVar)
	if err != nil {
		return nil, nil, err
	}
	return lon, lat, nil
}

func read2D(f *cdf.File, name string) ([][]float64, error) {
	dims := f.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingVariable, name)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%w: %s has %d dimensions, want 2", ErrShape, name, len(dims))
	}

	if dims[0] == 0 || dims[1] == 0 {
		return nil, fmt.Errorf("%w: %s is empty (%dx%d)", ErrShape, name, dims[0], dims[1])
	}

	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	var flat []float64
	switch v := buf.(type) {
	case []float64:
		flat = v
	case []float32:
		flat = make([]float64, len(v))
		for i, x := range v {
			flat[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("%w: %s is %T, want a floating point variable", ErrShape, name, buf)
	}

	ny, nx := dims[0], dims[1]
	if len(flat) != ny*nx {
		return nil, fmt.Errorf("%w: %s holds %d values, want %d", ErrShape, name, len(flat), ny*nx)
	}
	out := make([][]float64, ny)
	for j := range out {
		out[j] = flat[j*nx : (j+1)*nx : (j+1)*nx]
	}
	return out, nil
}

// WritePsi writes a corner mesh as lon_psi and lat_psi on (eta_psi, xi_psi),
// replacing any existing file at path. The file is built next to path and
// renamed into place, so a failed write leaves path untouched.
func WritePsi(path string, lonPsi, latPsi [][]float64) error {
	ny := len(lonPsi)
	if ny == 0 || len(latPsi) != ny {
		return fmt.Errorf("%w: psi arrays must be non-empty with matching rows", ErrShape)
	}
	nx := len(lonPsi[0])
	lonFlat := make([]float64, 0, ny*nx)
	latFlat := make([]float64, 0, ny*nx)
	for j := 0; j < ny; j++ {
		if len(lonPsi[j]) != nx || len(latPsi[j]) != nx {
			return fmt.Errorf("%w: ragged psi row %d", ErrShape, j)
		}
		lonFlat = append(lonFlat, lonPsi[j]...)
		latFlat = append(latFlat, latPsi[j]...)
	}

	dims := []string{"eta_psi", "xi_psi"}
	h := cdf.NewHeader(dims, []int{ny, nx})
	h.AddAttribute("", "type", "psi grid")

	h.AddVariable("lon_psi", dims, []float64{0})
	h.AddAttribute("lon_psi", "long_name", "longitude of PSI-points")
	h.AddAttribute("lon_psi", "units", "degree_east")

	h.AddVariable("lat_psi", dims, []float64{0})
	h.AddAttribute("lat_psi", "long_name", "latitude of PSI-points")
	h.AddAttribute("lat_psi", "units", "degree_north")
	h.Define()

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	f, err := cdf.Create(tmp, h)
	if err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}

	for name, data := range map[string][]float64{"lon_psi": lonFlat, "lat_psi": latFlat} {
		w := f.Writer(name, []int{0, 0}, []int{ny, nx})
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := cdf.UpdateNumRecs(tmp); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		committed = true
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	committed = true
	return nil
}
