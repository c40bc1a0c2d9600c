package grid

import "fmt"

// Limits is a rectangular plotting extent in grid coordinates.
type Limits struct {
	West, East, South, North float64
}

// PlotLimits returns the extent of a psi mesh padded on every side by
// padFrac times its latitude span.
func PlotLimits(lonPsi, latPsi [][]float64, padFrac float64) (Limits, error) {
	if err := checkShape(lonPsi, latPsi); err != nil {
		return Limits{}, err
	}
	last := len(latPsi) - 1
	lastX := len(lonPsi[0]) - 1

	pad := padFrac * (latPsi[last][0] - latPsi[0][0])
	return Limits{
		West:  lonPsi[0][0] - pad,
		East:  lonPsi[0][lastX] + pad,
		South: latPsi[0][0] - pad,
		North: latPsi[last][0] + pad,
	}, nil
}

func (l Limits) String() string {
	return fmt.Sprintf("[%.4f, %.4f, %.4f, %.4f]", l.West, l.East, l.South, l.North)
}
