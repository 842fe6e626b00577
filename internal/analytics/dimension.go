// Package analytics filters and aggregates observations for every
// downstream view: API, exports and reports.
package analytics

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"enrprod/internal/models"
)

// Analytics errors.
var (
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrNoDimension      = errors.New("at least one dimension is required")
	ErrInvalidYearRange = errors.New("year_min is greater than year_max")
)

// Dimension is a grouping key of an observation.
type Dimension string

// Supported dimensions.
const (
	DimRegion     Dimension = "region"
	DimYear       Dimension = "year"
	DimEnergyType Dimension = "energy_type"
)

// ParseDimension parses a dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "region":
		return DimRegion, nil
	case "year":
		return DimYear, nil
	case "energy_type", "energy-type", "energy":
		return DimEnergyType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
	}
}

// ParseDimensions parses a comma separated list of dimensions.
func ParseDimensions(s string) ([]Dimension, error) {
	var dims []Dimension

	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}

		d, err := ParseDimension(part)
		if err != nil {
			return nil, err
		}

		if !slices.Contains(dims, d) {
			dims = append(dims, d)
		}
	}

	if len(dims) == 0 {
		return nil, ErrNoDimension
	}

	return dims, nil
}

// Label returns the value of d for o as a string.
func (d Dimension) Label(o models.Observation) string {
	switch d {
	case DimRegion:
		return o.Region
	case DimYear:
		return strconv.Itoa(o.Year)
	case DimEnergyType:
		return o.EnergyType
	default:
		return ""
	}
}

// labels returns the distinct values of d in obs, years ascending
// numerically and strings ascending.
func (d Dimension) labels(obs []models.Observation) []string {
	if d == DimYear {
		years := distinctYears(obs)
		out := make([]string, len(years))

		for i, y := range years {
			out[i] = strconv.Itoa(y)
		}

		return out
	}

	seen := make(map[string]bool)
	out := []string{}

	for _, o := range obs {
		l := d.Label(o)
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}

	slices.Sort(out)

	return out
}

func distinctYears(obs []models.Observation) []int {
	seen := make(map[int]bool)
	years := []int{}

	for _, o := range obs {
		if !seen[o.Year] {
			seen[o.Year] = true
			years = append(years, o.Year)
		}
	}

	slices.Sort(years)

	return years
}
