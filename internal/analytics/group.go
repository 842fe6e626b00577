package analytics

import (
	"cmp"
	"slices"
	"strings"

	"enrprod/internal/models"
)

// Group is the sum of production over one combination of dimension values.
// Fields of dimensions not grouped on are left zero.
type Group struct {
	Region     string  `json:"region,omitempty"`
	EnergyType string  `json:"energy_type,omitempty"`
	Year       int     `json:"year,omitempty"`
	Sum        float64 `json:"sum_mwh"`
	Mean       float64 `json:"mean_mwh"`
	Count      int     `json:"count"`
}

// Label joins the grouped dimension values of g.
func (g Group) Label(dims ...Dimension) string {
	o := models.Observation{Region: g.Region, Year: g.Year, EnergyType: g.EnergyType}

	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = d.Label(o)
	}

	return strings.Join(parts, " / ")
}

type groupKey struct {
	region     string
	energyType string
	year       int
}

func keyOf(o models.Observation, dims []Dimension) groupKey {
	var k groupKey

	for _, d := range dims {
		switch d {
		case DimRegion:
			k.region = o.Region
		case DimYear:
			k.year = o.Year
		case DimEnergyType:
			k.energyType = o.EnergyType
		}
	}

	return k
}

// SumBy sums production over the given dimensions. Groups are sorted by the
// dimensions in the order given.
func SumBy(obs []models.Observation, dims ...Dimension) []Group {
	index := make(map[groupKey]int)
	groups := []Group{}

	for _, o := range obs {
		k := keyOf(o, dims)

		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Region: k.region, Year: k.year, EnergyType: k.energyType})
		}

		groups[i].Sum += o.ProductionMWh
		groups[i].Count++
	}

	for i := range groups {
		groups[i].Mean = groups[i].Sum / float64(groups[i].Count)
	}

	slices.SortFunc(groups, func(a, b Group) int {
		for _, d := range dims {
			var c int

			switch d {
			case DimRegion:
				c = cmp.Compare(a.Region, b.Region)
			case DimYear:
				c = cmp.Compare(a.Year, b.Year)
			case DimEnergyType:
				c = cmp.Compare(a.EnergyType, b.EnergyType)
			}

			if c != 0 {
				return c
			}
		}

		return 0
	})

	return groups
}

// Total sums production over obs.
func Total(obs []models.Observation) float64 {
	total := 0.0
	for _, o := range obs {
		total += o.ProductionMWh
	}

	return total
}

// Ranked is a group label with its share of the total.
type Ranked struct {
	Label string  `json:"label"`
	Sum   float64 `json:"sum_mwh"`
	Share float64 `json:"share_pct"`
}

// TopN returns the n largest groups of dim by production, with their share
// of the total in percent. n <= 0 returns every group.
func TopN(obs []models.Observation, dim Dimension, n int) []Ranked {
	groups := SumBy(obs, dim)
	total := Total(obs)

	ranked := make([]Ranked, len(groups))
	for i, g := range groups {
		ranked[i] = Ranked{Label: g.Label(dim), Sum: g.Sum}
		if total != 0 {
			ranked[i].Share = g.Sum / total * 100
		}
	}

	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		return cmp.Compare(b.Sum, a.Sum)
	})

	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}

	return ranked
}
