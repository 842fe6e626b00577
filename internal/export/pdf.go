package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"enrprod/internal/analytics"
	"enrprod/internal/formatter"
	"enrprod/internal/models"
)

// pdfTopRegions is the number of regions listed in the PDF summary.
const pdfTopRegions = 10

// EncodePDF renders the KPIs, the top regions and the energy mix of ds.
func EncodePDF(ds *models.Dataset) ([]byte, error) {
	obs := ds.Observations.Rows()

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Renewable production summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Source: %s", ds.Source)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Checksum: %s", ds.Checksum))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", ds.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Loaded: %s", ds.LoadedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	if len(obs) == 0 {
		pdf.Cell(0, 6, "No data.")
	} else {
		k := analytics.ComputeKPIs(obs)

		pdf.Cell(0, 6, fmt.Sprintf("Total production (MWh): %s", formatter.FormatNumber(k.TotalMWh, 0)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Mean annual production (MWh): %s", formatter.FormatNumber(k.MeanAnnualMWh, 0)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Growth %d-%d: %s%%", k.FirstYear, k.LastYear, formatter.FormatNumber(k.GrowthPct, 1)))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Regions: %d, energy types: %d, years covered: %d", k.Regions, k.EnergyTypes, k.YearsCovered))
		pdf.Ln(8)

		rankedTable(pdf, tr, "Region", analytics.TopN(obs, analytics.DimRegion, pdfTopRegions))
		pdf.Ln(6)
		rankedTable(pdf, tr, "Energy type", analytics.TopN(obs, analytics.DimEnergyType, 0))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

func rankedTable(pdf *gofpdf.Fpdf, tr func(string) string, label string, ranked []analytics.Ranked) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 6, label, "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Production (MWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Share (%)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	for _, r := range ranked {
		pdf.CellFormat(80, 6, tr(r.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, formatter.FormatNumber(r.Sum, 0), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatter.FormatNumber(r.Share, 1), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}
