package analytics

import "enrprod/internal/models"

// Heatmap is a region by energy type sum matrix with its values rescaled
// to [0, 1] over the whole grid.
type Heatmap struct {
	Matrix
	Normalized [][]float64 `json:"normalized"`
	Min        float64     `json:"min"`
	Max        float64     `json:"max"`
}

// BuildHeatmap sums obs by region and energy type and min-max normalizes
// the cells. A flat grid normalizes to zero.
func BuildHeatmap(obs []models.Observation) Heatmap {
	h := Heatmap{Matrix: Pivot(obs, DimRegion, DimEnergyType)}

	first := true
	for _, row := range h.Values {
		for _, v := range row {
			if first || v < h.Min {
				h.Min = v
			}

			if first || v > h.Max {
				h.Max = v
			}

			first = false
		}
	}

	span := h.Max - h.Min

	h.Normalized = make([][]float64, len(h.Values))
	for i, row := range h.Values {
		h.Normalized[i] = make([]float64, len(row))

		if span == 0 {
			continue
		}

		for j, v := range row {
			h.Normalized[i][j] = (v - h.Min) / span
		}
	}

	return h
}
