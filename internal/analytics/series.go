package analytics

import (
	"slices"

	"enrprod/internal/models"
)

// YearPoint is the production of one energy type in one year. Rate is the
// percent change from the previous year present, nil for the first year or
// when the previous total is zero.
type YearPoint struct {
	Rate       *float64 `json:"growth_pct,omitempty"`
	EnergyType string   `json:"energy_type"`
	Year       int      `json:"year"`
	Total      float64  `json:"total_mwh"`
	Cumulative float64  `json:"cumulative_mwh"`
}

// yearlyByEnergy sums obs per energy type and year, ordered by energy type
// then year.
func yearlyByEnergy(obs []models.Observation) []Group {
	return SumBy(obs, DimEnergyType, DimYear)
}

// GrowthRates returns the year-over-year percent change of each energy type.
func GrowthRates(obs []models.Observation) []YearPoint {
	groups := yearlyByEnergy(obs)
	points := make([]YearPoint, len(groups))

	for i, g := range groups {
		points[i] = YearPoint{EnergyType: g.EnergyType, Year: g.Year, Total: g.Sum}

		if i == 0 || groups[i-1].EnergyType != g.EnergyType {
			continue
		}

		if prev := groups[i-1].Sum; prev != 0 {
			rate := (g.Sum - prev) / prev * 100
			points[i].Rate = &rate
		}
	}

	return points
}

// Cumulative returns the running production total of each energy type by year.
func Cumulative(obs []models.Observation) []YearPoint {
	groups := yearlyByEnergy(obs)
	points := make([]YearPoint, len(groups))

	running := 0.0
	for i, g := range groups {
		if i == 0 || groups[i-1].EnergyType != g.EnergyType {
			running = 0
		}

		running += g.Sum
		points[i] = YearPoint{EnergyType: g.EnergyType, Year: g.Year, Total: g.Sum, Cumulative: running}
	}

	return points
}

// Change is the production difference of one energy type between two years.
type Change struct {
	EnergyType string  `json:"energy_type"`
	Start      float64 `json:"start_mwh"`
	End        float64 `json:"end_mwh"`
	Delta      float64 `json:"delta_mwh"`
}

// YearChange compares production per energy type between from and to.
// Energy types absent in one year count as zero there; unchanged types are
// omitted.
func YearChange(obs []models.Observation, from, to int) []Change {
	start := make(map[string]float64)
	end := make(map[string]float64)

	for _, o := range obs {
		if o.Year == from {
			start[o.EnergyType] += o.ProductionMWh
		}

		if o.Year == to {
			end[o.EnergyType] += o.ProductionMWh
		}
	}

	types := make([]string, 0, len(start)+len(end))
	for t := range start {
		types = append(types, t)
	}

	for t := range end {
		if _, ok := start[t]; !ok {
			types = append(types, t)
		}
	}

	slices.Sort(types)

	changes := []Change{}
	for _, t := range types {
		c := Change{EnergyType: t, Start: start[t], End: end[t]}
		c.Delta = c.End - c.Start

		if c.Delta != 0 {
			changes = append(changes, c)
		}
	}

	return changes
}

// YearBounds returns the first and last year of obs. ok is false when obs
// is empty.
func YearBounds(obs []models.Observation) (first, last int, ok bool) {
	years := distinctYears(obs)
	if len(years) == 0 {
		return 0, 0, false
	}

	return years[0], years[len(years)-1], true
}
