// Package grid reconstructs cell-corner (psi) coordinates from cell-center
// (rho) coordinates so that cell-centered fields can be drawn with an
// area-filling plot.
package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a coordinate axis is too short to derive a
// spacing from, or when 2-D input is empty or ragged.
var ErrInvalidInput = errors.New("grid: invalid input")

// Corners returns the N+1 corner positions bounding N cell centers.
// Interior corners sit midway between neighbouring centers; the two end
// corners are pushed out by half of the adjacent spacing.
func Corners(centers []float64) ([]float64, error) {
	n := len(centers)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 centers, got %d", ErrInvalidInput, n)
	}

	corners := make([]float64, n+1)
	corners[0] = centers[0] - (centers[1]-centers[0])/2
	for i := 1; i < n; i++ {
		corners[i] = (centers[i-1] + centers[i]) / 2
	}
	corners[n] = centers[n-1] + (centers[n-1]-centers[n-2])/2

	return corners, nil
}

// Mesh forms the outer-product grid of two axes. Both returned arrays have
// len(y) rows and len(x) columns.
func Mesh(x, y []float64) ([][]float64, [][]float64) {
	mx := make([][]float64, len(y))
	my := make([][]float64, len(y))
	for j := range y {
		mx[j] = make([]float64, len(x))
		my[j] = make([]float64, len(x))
		for i := range x {
			mx[j][i] = x[i]
			my[j][i] = y[j]
		}
	}
	return mx, my
}

// PsiFromRho builds the corner mesh for a grid given its 2-D center
// coordinates, indexed [eta][xi]. The longitude axis is taken from the first
// row and the latitude axis from the first column, which is exact only for
// rectilinear grids.
func PsiFromRho(lonRho, latRho [][]float64) ([][]float64, [][]float64, error) {
	if err := checkShape(lonRho, latRho); err != nil {
		return nil, nil, err
	}

	lonAxis := append([]float64(nil), lonRho[0]...)
	latAxis := make([]float64, len(latRho))
	for j := range latRho {
		latAxis[j] = latRho[j][0]
	}

	plon, err := Corners(lonAxis)
	if err != nil {
		return nil, nil, fmt.Errorf("longitude axis: %w", err)
	}
	plat, err := Corners(latAxis)
	if err != nil {
		return nil, nil, fmt.Errorf("latitude axis: %w", err)
	}

	lonPsi, latPsi := Mesh(plon, plat)
	return lonPsi, latPsi, nil
}

func checkShape(lon, lat [][]float64) error {
	if len(lon) == 0 || len(lat) == 0 {
		return fmt.Errorf("%w: empty coordinate array", ErrInvalidInput)
	}
	if len(lon) != len(lat) {
		return fmt.Errorf("%w: lon has %d rows, lat has %d", ErrInvalidInput, len(lon), len(lat))
	}
	nx := len(lon[0])
	if nx == 0 {
		return fmt.Errorf("%w: empty coordinate rows", ErrInvalidInput)
	}
	for j := range lon {
		if len(lon[j]) != nx || len(lat[j]) != nx {
			return fmt.Errorf("%w: ragged row %d", ErrInvalidInput, j)
		}
	}
	return nil
}

// IsMonotonic reports whether xs is strictly increasing or strictly
// decreasing. Slices shorter than 2 are not considered monotonic.
func IsMonotonic(xs []float64) bool {
	if len(xs) < 2 {
		return false
	}
	up := xs[1] > xs[0]
	for i := 1; i < len(xs); i++ {
		d := xs[i] - xs[i-1]
		if d == 0 || (d > 0) != up {
			return false
		}
	}
	return true
}
