package analytics

import "enrprod/internal/models"

// Matrix is a two-dimensional table of production sums. Missing
// combinations are zero.
type Matrix struct {
	RowDim       Dimension   `json:"row_dimension"`
	ColumnDim    Dimension   `json:"column_dimension"`
	RowLabels    []string    `json:"rows"`
	ColumnLabels []string    `json:"columns"`
	Values       [][]float64 `json:"values"`
}

// Pivot sums production into a rows by columns matrix.
func Pivot(obs []models.Observation, rows, cols Dimension) Matrix {
	m := Matrix{
		RowDim:       rows,
		ColumnDim:    cols,
		RowLabels:    rows.labels(obs),
		ColumnLabels: cols.labels(obs),
	}

	m.Values = make([][]float64, len(m.RowLabels))
	for i := range m.Values {
		m.Values[i] = make([]float64, len(m.ColumnLabels))
	}

	rowIndex := indexOf(m.RowLabels)
	colIndex := indexOf(m.ColumnLabels)

	for _, o := range obs {
		m.Values[rowIndex[rows.Label(o)]][colIndex[cols.Label(o)]] += o.ProductionMWh
	}

	return m
}

// PivotYearEnergy sums production by year and energy type.
func PivotYearEnergy(obs []models.Observation) Matrix {
	return Pivot(obs, DimYear, DimEnergyType)
}

// RowTotals returns the sum of each row.
func (m Matrix) RowTotals() []float64 {
	out := make([]float64, len(m.Values))
	for i, row := range m.Values {
		for _, v := range row {
			out[i] += v
		}
	}

	return out
}

func indexOf(labels []string) map[string]int {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	return index
}
