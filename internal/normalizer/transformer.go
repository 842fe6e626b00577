package normalizer

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"enrprod/internal/geo"
	"enrprod/internal/models"
	"enrprod/pkg/utils"
)

// ErrInvalidYear is returned when a kept row carries a year that is not a
// whole number.
var ErrInvalidYear = errors.New("invalid year")

// GWhToMWh converts source gigawatt-hours into megawatt-hours.
const GWhToMWh = 1000

// Label affixes removed by CleanEnergyLabel, in removal order.
var (
	labelPrefix   = "Production "
	labelSuffixes = []string{" renouvelable (GWh)", " renewable (GWh)"}
	unitSuffix    = " (GWh)"
)

// naTokens are the cell values read as missing.
var naTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan", "1.#IND", "1.#QNAN",
	"<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

type cellStatus int

const (
	cellValid cellStatus = iota
	cellMissing
	cellInvalid
)

// CleanEnergyLabel derives the energy type from a production column name.
func CleanEnergyLabel(column string) string {
	label := utils.TrimPrefixFold(column, labelPrefix)

	for _, suffix := range labelSuffixes {
		if trimmed, ok := utils.CutSuffixFold(label, suffix); ok {
			label = trimmed

			break
		}
	}

	label = utils.TrimSuffixFold(label, unitSuffix)

	return strings.TrimSpace(label)
}

// Transformer reshapes a validated raw table.
type Transformer struct {
	naTokens []string
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{naTokens: naTokens}
}

// ExtractGeometry projects region, shape and point and keeps the first
// occurrence of each region. Parse failures are returned as warnings.
func (t *Transformer) ExtractGeometry(raw *models.RawTable, layout Layout) (*models.RegionGeometryTable, []string) {
	table := models.NewRegionGeometryTable()

	if !layout.HasGeometry() {
		return table, []string{"geometry extraction disabled: no geometry column"}
	}

	var warnings []string

	for _, row := range raw.Rows {
		region := regionName(row, layout)
		if region == "" {
			continue
		}

		if _, seen := table.Get(region); seen {
			continue
		}

		g, err := geo.Build(region, row.Cell(layout.Shape), row.Cell(layout.Point))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: geometry of %s: %v", row.Line, region, err))
		}

		table.Add(g)
	}

	return table, warnings
}

// regionName is the join key between observations and geometry.
func regionName(row models.RawRow, layout Layout) string {
	return strings.TrimSpace(row.Cell(layout.Region))
}

// Reshape melts the value columns into observations: one per value column
// and source row, in that order. Missing and non-numeric cells are dropped.
func (t *Transformer) Reshape(raw *models.RawTable, layout Layout) (*models.ObservationTable, []string, error) {
	stats := models.NormalizationStats{
		SourceRows:   len(raw.Rows),
		ValueColumns: len(layout.ValueColumns),
	}

	observations := make([]models.Observation, 0, len(raw.Rows)*len(layout.ValueColumns))
	energyTypes := make([]string, 0, len(layout.ValueColumns))
	years := make(map[int]int, len(raw.Rows))

	for _, col := range layout.ValueColumns {
		energyType := CleanEnergyLabel(raw.Header[col])
		if !slices.Contains(energyTypes, energyType) {
			energyTypes = append(energyTypes, energyType)
		}

		for i, row := range raw.Rows {
			stats.Cells++

			gwh, status := t.parseProduction(row.Cell(col))
			if status == cellMissing {
				stats.DroppedMissing++

				continue
			}

			mwh := gwh * GWhToMWh
			if status == cellInvalid || math.IsInf(mwh, 0) {
				stats.DroppedInvalid++

				continue
			}

			year, ok := years[i]
			if !ok {
				var err error

				year, err = parseYear(row.Cell(layout.Year))
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", row.Line, err)
				}

				years[i] = year
			}

			if mwh < 0 {
				stats.Negative++
			}

			observations = append(observations, models.Observation{
				Region:        regionName(row, layout),
				Year:          year,
				EnergyType:    energyType,
				ProductionMWh: mwh,
			})
		}
	}

	stats.Kept = len(observations)

	var warnings []string
	if stats.Negative > 0 {
		warnings = append(warnings, fmt.Sprintf("%d negative production values kept", stats.Negative))
	}

	return models.NewObservationTable(observations, energyTypes, stats), warnings, nil
}

func (t *Transformer) parseProduction(cell string) (float64, cellStatus) {
	s := strings.TrimSpace(cell)
	if slices.Contains(t.naTokens, s) {
		return 0, cellMissing
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, cellInvalid
	}

	return v, cellValid
}

// parseYear accepts integers and whole-number floats such as "2020.0".
func parseYear(cell string) (int, error) {
	s := strings.TrimSpace(cell)

	if year, err := strconv.Atoi(s); err == nil {
		return year, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, cell)
	}

	return int(f), nil
}
