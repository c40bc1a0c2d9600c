package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Box is a lon/lat extraction region in degrees, longitudes in -180..180.
type Box struct {
	West, East, South, North float64
}

// ParseBox parses "west,east,south,north".
func ParseBox(s string) (Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Box{}, fmt.Errorf("box %q must have 4 comma separated values: west,east,south,north", s)
	}

	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Box{}, fmt.Errorf("box %q: invalid number %q: %w", s, p, err)
		}
		vals[i] = v
	}

	b := Box{West: vals[0], East: vals[1], South: vals[2], North: vals[3]}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Decode lets envconfig populate a Box straight from an environment variable.
func (b *Box) Decode(value string) error {
	parsed, err := ParseBox(value)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b Box) Validate() error {
	if b.West >= b.East {
		return fmt.Errorf("box west %v must be less than east %v", b.West, b.East)
	}
	if b.South >= b.North {
		return fmt.Errorf("box south %v must be less than north %v", b.South, b.North)
	}
	if b.West < -180 || b.East > 180 || b.South < -90 || b.North > 90 {
		return fmt.Errorf("box %s is outside -180..180, -90..90", b)
	}
	return nil
}

func (b Box) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West, b.East, b.South, b.North)
}
