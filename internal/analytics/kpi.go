package analytics

import "enrprod/internal/models"

// KPIs are the headline figures of a selection.
type KPIs struct {
	TotalMWh      float64 `json:"total_mwh"`
	MeanAnnualMWh float64 `json:"mean_annual_mwh"`
	GrowthPct     float64 `json:"growth_pct"`
	Observations  int     `json:"observations"`
	Regions       int     `json:"regions"`
	EnergyTypes   int     `json:"energy_types"`
	FirstYear     int     `json:"first_year"`
	LastYear      int     `json:"last_year"`
	YearsCovered  int     `json:"years_covered"`
}

// ComputeKPIs summarizes obs. Growth compares the last year total with the
// first and is zero with fewer than two years or a zero first-year total.
func ComputeKPIs(obs []models.Observation) KPIs {
	k := KPIs{
		TotalMWh:     Total(obs),
		Observations: len(obs),
		Regions:      len(DimRegion.labels(obs)),
		EnergyTypes:  len(DimEnergyType.labels(obs)),
	}

	first, last, ok := YearBounds(obs)
	if !ok {
		return k
	}

	k.FirstYear = first
	k.LastYear = last
	k.YearsCovered = last - first + 1

	yearly := SumBy(obs, DimYear)
	k.MeanAnnualMWh = k.TotalMWh / float64(len(yearly))

	if len(yearly) > 1 && yearly[0].Sum != 0 {
		k.GrowthPct = (yearly[len(yearly)-1].Sum/yearly[0].Sum - 1) * 100
	}

	return k
}
