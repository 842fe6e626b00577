package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"enrprod/internal/analytics"
	"enrprod/internal/models"
)

// Sheet names of the XLSX summary.
const (
	SheetObservations = "observations"
	SheetByRegion     = "by_region"
	SheetByEnergyType = "by_energy_type"
	SheetKPIs         = "kpis"
)

// EncodeXLSX renders observations, per-region and per-energy type totals
// and the KPIs as a workbook.
func EncodeXLSX(obs []models.Observation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetObservations); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{{"region", "year", "energy_type", "production_mwh"}}
	for _, o := range obs {
		rows = append(rows, []any{o.Region, o.Year, o.EnergyType, o.ProductionMWh})
	}

	if err := writeSheet(f, SheetObservations, rows); err != nil {
		return nil, err
	}

	for _, s := range []struct {
		name  string
		dim   analytics.Dimension
		label string
	}{
		{SheetByRegion, analytics.DimRegion, "region"},
		{SheetByEnergyType, analytics.DimEnergyType, "energy_type"},
	} {
		rows := [][]any{{s.label, "production_mwh", "share_pct"}}
		for _, r := range analytics.TopN(obs, s.dim, 0) {
			rows = append(rows, []any{r.Label, r.Sum, r.Share})
		}

		if err := writeSheet(f, s.name, rows); err != nil {
			return nil, err
		}
	}

	k := analytics.ComputeKPIs(obs)

	kpis := [][]any{
		{"metric", "value"},
		{"total_mwh", k.TotalMWh},
		{"mean_annual_mwh", k.MeanAnnualMWh},
		{"growth_pct", k.GrowthPct},
		{"observations", k.Observations},
		{"regions", k.Regions},
		{"energy_types", k.EnergyTypes},
		{"first_year", k.FirstYear},
		{"last_year", k.LastYear},
		{"years_covered", k.YearsCovered},
	}

	if err := writeSheet(f, SheetKPIs, kpis); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	return nil
}
