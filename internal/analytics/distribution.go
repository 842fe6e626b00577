package analytics

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"enrprod/internal/models"
)

// Summary describes the spread of observation values within one group.
type Summary struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Distribution summarizes the values of obs grouped by dim, in label order.
func Distribution(obs []models.Observation, dim Dimension) []Summary {
	values := make(map[string][]float64)
	for _, o := range obs {
		l := dim.Label(o)
		values[l] = append(values[l], o.ProductionMWh)
	}

	out := make([]Summary, 0, len(values))
	for _, label := range dim.labels(obs) {
		out = append(out, Summarize(label, values[label]))
	}

	return out
}

// Summarize computes the five-number summary, mean and sample standard
// deviation of x. x is not modified.
func Summarize(label string, x []float64) Summary {
	s := Summary{Label: label, Count: len(x)}
	if len(x) == 0 {
		return s
	}

	sorted := slices.Clone(x)
	slices.Sort(sorted)

	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Mean = stat.Mean(sorted, nil)

	if len(sorted) == 1 {
		s.Q1, s.Median, s.Q3 = sorted[0], sorted[0], sorted[0]

		return s
	}

	s.Q1 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	s.Median = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	s.Q3 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	s.StdDev = stat.StdDev(sorted, nil)

	return s
}
