package ncfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "psi.nc")
	lon := [][]float64{
		{-124.0, -123.5, -123.0},
		{-124.0, -123.5, -123.0},
	}
	lat := [][]float64{
		{46.0, 46.0, 46.0},
		{46.5, 46.5, 46.5},
	}
	require.NoError(t, WritePsi(path, lon, lat))
	return path
}

func TestWritePsi_RoundTrip(t *testing.T) {
	path := writeSample(t)

	lon, lat, err := ReadGrid(path, "lon_psi", "lat_psi")
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{-124.0, -123.5, -123.0}, {-124.0, -123.5, -123.0}}, lon)
	assert.Equal(t, [][]float64{{46.0, 46.0, 46.0}, {46.5, 46.5, 46.5}}, lat)
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()

	hdf := filepath.Join(dir, "hycom4.nc")
	require.NoError(t, os.WriteFile(hdf, []byte("\x89HDF\r\n\x1a\nrest"), 0o644))

	html := filepath.Join(dir, "error.html")
	require.NoError(t, os.WriteFile(html, []byte("<html>Service Unavailable</html>"), 0o644))

	tiny := filepath.Join(dir, "tiny")
	require.NoError(t, os.WriteFile(tiny, []byte("CD"), 0o644))

	cdf2 := filepath.Join(dir, "offset64.nc")
	require.NoError(t, os.WriteFile(cdf2, []byte("CDF\x02"), 0o644))

	tests := []struct {
		name string
		path string
		want Format
	}{
		{"classic", writeSample(t), FormatClassic},
		{"64-bit offset", cdf2, FormatClassic},
		{"hdf5", hdf, FormatHDF5},
		{"html error page", html, FormatUnknown},
		{"too short", tiny, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormat_MissingFile(t *testing.T) {
	_, err := DetectFormat(filepath.Join(t.TempDir(), "nope.nc"))
	assert.Error(t, err)
}

func TestVariables(t *testing.T) {
	path := writeSample(t)

	names, err := Variables(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lon_psi", "lat_psi"}, names)

	missing, err := MissingVariables(path, []string{"lat_psi", "surf_el", "salinity"})
	require.NoError(t, err)
	assert.Equal(t, []string{"surf_el", "salinity"}, missing)
}

func TestVariables_NotClassic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.nc")
	require.NoError(t, os.WriteFile(path, []byte("not netcdf at all"), 0o644))

	_, err := Variables(path)
	assert.ErrorIs(t, err, ErrNotClassic)
}

func TestReadGrid_MissingVariable(t *testing.T) {
	path := writeSample(t)

	_, _, err := ReadGrid(path, "lon_rho", "lat_rho")
	assert.ErrorIs(t, err, ErrMissingVariable)
}

// writeEmptyGrid writes lon_rho/lat_rho on a record dimension holding no records.
func writeEmptyGrid(t *testing.T, path string) {
	t.Helper()
	dims := []string{"eta_rho", "xi_rho"}
	h := cdf.NewHeader(dims, []int{0, 3})
	h.AddVariable("lon_rho", dims, []float64{0})
	h.AddVariable("lat_rho", dims, []float64{0})
	h.Define()

	ff, err := os.Create(path)
	require.NoError(t, err)
	defer ff.Close()
	_, err = cdf.Create(ff, h)
	require.NoError(t, err)
	require.NoError(t, cdf.UpdateNumRecs(ff))
}

func TestReadGrid_NoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.nc")
	writeEmptyGrid(t, path)

	_, _, err := ReadGrid(path, "lon_rho", "lat_rho")
	assert.ErrorIs(t, err, ErrShape)
}

func TestWritePsi_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "psi.nc")
	require.NoError(t, os.WriteFile(path, []byte("old contents"), 0o644))

	require.NoError(t, WritePsi(path, [][]float64{{0, 1}, {0, 1}}, [][]float64{{5, 5}, {6, 6}}))

	format, err := DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatClassic, format)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

func TestWritePsi_MissingDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "psi.nc")

	err := WritePsi(path, [][]float64{{0, 1}, {0, 1}}, [][]float64{{5, 5}, {6, 6}})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWritePsi_InvalidShape(t *testing.T) {
	dir := t.TempDir()

	err := WritePsi(filepath.Join(dir, "a.nc"), nil, nil)
	assert.ErrorIs(t, err, ErrShape)

	err = WritePsi(filepath.Join(dir, "b.nc"), [][]float64{{1, 2}, {1}}, [][]float64{{1, 2}, {1, 2}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "classic", FormatClassic.String())
	assert.Equal(t, "hdf5", FormatHDF5.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}
