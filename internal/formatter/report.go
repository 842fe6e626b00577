package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"enrprod/internal/analytics"
	"enrprod/internal/models"
)

// FormatNumber renders v with the given decimals and a thousands separator.
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)

	intPart, frac, hasFrac := strings.Cut(s, ".")

	var sb strings.Builder

	if v < 0 && strings.Trim(s, "0.") != "" {
		sb.WriteString("-")
	}

	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteString(",")
		}

		sb.WriteRune(r)
	}

	if hasFrac {
		sb.WriteString(".")
		sb.WriteString(frac)
	}

	return sb.String()
}

// ReportOptions controls Report.
type ReportOptions struct {
	Title string
	TopN  int
}

// Report renders the headline figures, the top regions, the energy mix and
// the first to last year change of obs as markdown.
func Report(obs []models.Observation, opts ReportOptions) string {
	if opts.Title == "" {
		opts.Title = "Renewable production report"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", opts.Title)

	if len(obs) == 0 {
		sb.WriteString("No data for the current selection.\n")

		return sb.String()
	}

	sb.WriteString("## Key figures\n\n")
	sb.WriteString(KPITable(analytics.ComputeKPIs(obs)))
	sb.WriteString("\n\n## Top regions\n\n")
	sb.WriteString(RankedTable("Region", analytics.TopN(obs, analytics.DimRegion, opts.TopN)))
	sb.WriteString("\n\n## Energy mix\n\n")
	sb.WriteString(RankedTable("Energy type", analytics.TopN(obs, analytics.DimEnergyType, 0)))

	if first, last, ok := analytics.YearBounds(obs); ok && first != last {
		fmt.Fprintf(&sb, "\n\n## Change %d to %d\n\n", first, last)
		sb.WriteString(ChangeTable(analytics.YearChange(obs, first, last)))
	}

	sb.WriteString("\n")

	return sb.String()
}

// KPITable renders KPIs as a two-column table.
func KPITable(k analytics.KPIs) string {
	rows := [][]string{
		{"Total production (MWh)", FormatNumber(k.TotalMWh, 0)},
		{"Regions", strconv.Itoa(k.Regions)},
		{"Energy types", strconv.Itoa(k.EnergyTypes)},
		{"Mean annual production (MWh)", FormatNumber(k.MeanAnnualMWh, 0)},
		{"Growth first to last year (%)", FormatNumber(k.GrowthPct, 1)},
		{"Years covered", fmt.Sprintf("%d (%d-%d)", k.YearsCovered, k.FirstYear, k.LastYear)},
	}

	return FormatTable([]string{"Metric", "Value"}, rows, 1)
}

// RankedTable renders ranked groups with their share.
func RankedTable(label string, ranked []analytics.Ranked) string {
	rows := make([][]string, len(ranked))
	for i, r := range ranked {
		rows[i] = []string{strconv.Itoa(i + 1), r.Label, FormatNumber(r.Sum, 0), FormatNumber(r.Share, 1)}
	}

	return FormatTable([]string{"#", label, "Production (MWh)", "Share (%)"}, rows, 0, 2, 3)
}

// ChangeTable renders per energy type changes between two years.
func ChangeTable(changes []analytics.Change) string {
	rows := make([][]string, len(changes))
	for i, c := range changes {
		rows[i] = []string{c.EnergyType, FormatNumber(c.Start, 0), FormatNumber(c.End, 0), FormatNumber(c.Delta, 0)}
	}

	return FormatTable([]string{"Energy type", "Start (MWh)", "End (MWh)", "Delta (MWh)"}, rows, 1, 2, 3)
}
