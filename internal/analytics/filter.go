package analytics

import (
	"fmt"
	"slices"

	"enrprod/internal/models"
)

// Filter selects observations. Nil bounds and empty sets do not constrain.
type Filter struct {
	YearMin     *int     `json:"year_min,omitempty"`
	YearMax     *int     `json:"year_max,omitempty"`
	EnergyTypes []string `json:"energy_types,omitempty"`
	Regions     []string `json:"regions,omitempty"`
}

// Validate checks the year range.
func (f Filter) Validate() error {
	if f.YearMin != nil && f.YearMax != nil && *f.YearMin > *f.YearMax {
		return fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, *f.YearMin, *f.YearMax)
	}

	return nil
}

// Match reports whether o satisfies every constraint. The year range is
// inclusive.
func (f Filter) Match(o models.Observation) bool {
	if f.YearMin != nil && o.Year < *f.YearMin {
		return false
	}

	if f.YearMax != nil && o.Year > *f.YearMax {
		return false
	}

	if len(f.EnergyTypes) > 0 && !slices.Contains(f.EnergyTypes, o.EnergyType) {
		return false
	}

	if len(f.Regions) > 0 && !slices.Contains(f.Regions, o.Region) {
		return false
	}

	return true
}

// Apply returns the matching observations in table order. The result is a
// fresh slice; the table is never modified.
func (f Filter) Apply(table *models.ObservationTable) []models.Observation {
	out := []models.Observation{}

	for _, o := range table.Rows() {
		if f.Match(o) {
			out = append(out, o)
		}
	}

	return out
}

// Options lists the values a caller can filter on.
type Options struct {
	Years       []int    `json:"years"`
	EnergyTypes []string `json:"energy_types"`
	Regions     []string `json:"regions"`
	YearMin     int      `json:"year_min"`
	YearMax     int      `json:"year_max"`
}

// AvailableOptions returns the sorted distinct years, energy types and
// regions of table.
func AvailableOptions(table *models.ObservationTable) Options {
	rows := table.Rows()

	opts := Options{
		Years:       distinctYears(rows),
		EnergyTypes: DimEnergyType.labels(rows),
		Regions:     DimRegion.labels(rows),
	}

	if len(opts.Years) > 0 {
		opts.YearMin = opts.Years[0]
		opts.YearMax = opts.Years[len(opts.Years)-1]
	}

	return opts
}
