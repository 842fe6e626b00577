package analytics

import (
	"errors"
	"math"
	"slices"
	"testing"

	"enrprod/internal/models"
)

func intPtr(v int) *int { return &v }

func sampleObservations() []models.Observation {
	return []models.Observation{
		{Region: "Bretagne", Year: 2019, EnergyType: "Éolien", ProductionMWh: 100},
		{Region: "Bretagne", Year: 2020, EnergyType: "Éolien", ProductionMWh: 150},
		{Region: "Bretagne", Year: 2020, EnergyType: "Solaire", ProductionMWh: 20},
		{Region: "Corse", Year: 2019, EnergyType: "Solaire", ProductionMWh: 30},
		{Region: "Corse", Year: 2020, EnergyType: "Solaire", ProductionMWh: 40},
		{Region: "Occitanie", Year: 2021, EnergyType: "Hydraulique", ProductionMWh: 500},
	}
}

func sampleTable() *models.ObservationTable {
	return models.NewObservationTable(sampleObservations(), []string{"Éolien", "Solaire", "Hydraulique"}, models.NormalizationStats{})
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		input   string
		want    Dimension
		wantErr bool
	}{
		{"region", DimRegion, false},
		{" Year ", DimYear, false},
		{"energy_type", DimEnergyType, false},
		{"energy", DimEnergyType, false},
		{"country", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDimension(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDimension(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("ParseDimension(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDimensions(t *testing.T) {
	dims, err := ParseDimensions("region, year,region")
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(dims, []Dimension{DimRegion, DimYear}) {
		t.Errorf("ParseDimensions() = %v, want [region year]", dims)
	}

	if _, err := ParseDimensions(" , "); !errors.Is(err, ErrNoDimension) {
		t.Errorf("ParseDimensions(empty) error = %v, want ErrNoDimension", err)
	}

	if _, err := ParseDimensions("region,planet"); !errors.Is(err, ErrUnknownDimension) {
		t.Errorf("ParseDimensions(unknown) error = %v, want ErrUnknownDimension", err)
	}
}

func TestFilter_Apply(t *testing.T) {
	table := sampleTable()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"no constraint", Filter{}, 6},
		{"inclusive range", Filter{YearMin: intPtr(2019), YearMax: intPtr(2020)}, 5},
		{"single year", Filter{YearMin: intPtr(2020), YearMax: intPtr(2020)}, 3},
		{"open upper bound", Filter{YearMin: intPtr(2020)}, 4},
		{"energy types", Filter{EnergyTypes: []string{"Solaire"}}, 3},
		{"regions", Filter{Regions: []string{"Corse", "Occitanie"}}, 3},
		{"combined", Filter{YearMax: intPtr(2019), Regions: []string{"Corse"}, EnergyTypes: []string{"Solaire"}}, 1},
		{"unknown region", Filter{Regions: []string{"Atlantis"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(table)
			if len(got) != tt.want {
				t.Errorf("Apply() returned %d rows, want %d", len(got), tt.want)
			}

			for _, o := range got {
				if !tt.filter.Match(o) {
					t.Errorf("Apply() returned non-matching %+v", o)
				}
			}
		})
	}
}

func TestFilter_Apply_DoesNotAlias(t *testing.T) {
	table := sampleTable()

	got := Filter{}.Apply(table)
	got[0].ProductionMWh = -1

	if table.Rows()[0].ProductionMWh != 100 {
		t.Error("mutating the filter result changed the table")
	}
}

func TestFilter_Apply_NilTable(t *testing.T) {
	got := Filter{}.Apply(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Apply(nil) = %v, want empty slice", got)
	}
}

func TestFilter_Validate(t *testing.T) {
	if err := (Filter{YearMin: intPtr(2021), YearMax: intPtr(2020)}).Validate(); !errors.Is(err, ErrInvalidYearRange) {
		t.Errorf("Validate() = %v, want ErrInvalidYearRange", err)
	}

	if err := (Filter{YearMin: intPtr(2020)}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestAvailableOptions(t *testing.T) {
	opts := AvailableOptions(sampleTable())

	if !slices.Equal(opts.Years, []int{2019, 2020, 2021}) {
		t.Errorf("Years = %v", opts.Years)
	}

	if !slices.Equal(opts.Regions, []string{"Bretagne", "Corse", "Occitanie"}) {
		t.Errorf("Regions = %v", opts.Regions)
	}

	if !slices.Equal(opts.EnergyTypes, []string{"Hydraulique", "Solaire", "Éolien"}) {
		t.Errorf("EnergyTypes = %v", opts.EnergyTypes)
	}

	if opts.YearMin != 2019 || opts.YearMax != 2021 {
		t.Errorf("year bounds = %d..%d, want 2019..2021", opts.YearMin, opts.YearMax)
	}

	empty := AvailableOptions(nil)
	if len(empty.Years) != 0 || empty.Regions == nil {
		t.Errorf("AvailableOptions(nil) = %+v, want empty non-nil lists", empty)
	}
}

func TestSumBy(t *testing.T) {
	groups := SumBy(sampleObservations(), DimRegion)

	want := []Group{
		{Region: "Bretagne", Sum: 270, Count: 3, Mean: 90},
		{Region: "Corse", Sum: 70, Count: 2, Mean: 35},
		{Region: "Occitanie", Sum: 500, Count: 1, Mean: 500},
	}

	if !slices.Equal(groups, want) {
		t.Errorf("SumBy(region) = %+v, want %+v", groups, want)
	}

	byYearType := SumBy(sampleObservations(), DimYear, DimEnergyType)
	if len(byYearType) != 5 {
		t.Fatalf("SumBy(year, energy_type) has %d groups, want 5", len(byYearType))
	}

	if byYearType[0].Year != 2019 || byYearType[0].EnergyType != "Solaire" {
		t.Errorf("first group = %+v, want 2019/Solaire", byYearType[0])
	}
}

func TestSumBy_Associative(t *testing.T) {
	obs := sampleObservations()

	fine := SumBy(obs, DimRegion, DimYear, DimEnergyType)

	byType := make(map[string]float64)
	for _, g := range fine {
		byType[g.EnergyType] += g.Sum
	}

	for _, g := range SumBy(obs, DimEnergyType) {
		if math.Abs(byType[g.EnergyType]-g.Sum) > 1e-9 {
			t.Errorf("%s: sum of fine groups = %v, direct sum = %v", g.EnergyType, byType[g.EnergyType], g.Sum)
		}
	}

	if Total(obs) != 840 {
		t.Errorf("Total() = %v, want 840", Total(obs))
	}
}

func TestTopN(t *testing.T) {
	top := TopN(sampleObservations(), DimRegion, 2)

	if len(top) != 2 {
		t.Fatalf("TopN returned %d entries, want 2", len(top))
	}

	if top[0].Label != "Occitanie" || top[1].Label != "Bretagne" {
		t.Errorf("TopN order = %s, %s, want Occitanie, Bretagne", top[0].Label, top[1].Label)
	}

	if math.Abs(top[0].Share-500.0/840*100) > 1e-9 {
		t.Errorf("Share = %v", top[0].Share)
	}

	if all := TopN(sampleObservations(), DimRegion, 0); len(all) != 3 {
		t.Errorf("TopN(n=0) returned %d entries, want all 3", len(all))
	}

	if empty := TopN(nil, DimRegion, 3); len(empty) != 0 {
		t.Errorf("TopN(nil) = %v, want empty", empty)
	}
}

func TestPivotYearEnergy(t *testing.T) {
	m := PivotYearEnergy(sampleObservations())

	if !slices.Equal(m.RowLabels, []string{"2019", "2020", "2021"}) {
		t.Errorf("RowLabels = %v", m.RowLabels)
	}

	if !slices.Equal(m.ColumnLabels, []string{"Hydraulique", "Solaire", "Éolien"}) {
		t.Errorf("ColumnLabels = %v", m.ColumnLabels)
	}

	want := [][]float64{
		{0, 30, 100},
		{0, 60, 150},
		{500, 0, 0},
	}

	for i := range want {
		if !slices.Equal(m.Values[i], want[i]) {
			t.Errorf("Values[%d] = %v, want %v", i, m.Values[i], want[i])
		}
	}

	if !slices.Equal(m.RowTotals(), []float64{130, 210, 500}) {
		t.Errorf("RowTotals() = %v", m.RowTotals())
	}
}

func TestGrowthRates(t *testing.T) {
	points := GrowthRates(sampleObservations())

	var eolien2020, solaire2019 *YearPoint
	for i := range points {
		p := &points[i]
		if p.EnergyType == "Éolien" && p.Year == 2020 {
			eolien2020 = p
		}

		if p.EnergyType == "Solaire" && p.Year == 2019 {
			solaire2019 = p
		}
	}

	if eolien2020 == nil || eolien2020.Rate == nil || *eolien2020.Rate != 50 {
		t.Errorf("Éolien 2020 growth = %+v, want 50%%", eolien2020)
	}

	if solaire2019 == nil || solaire2019.Rate != nil {
		t.Errorf("Solaire 2019 growth = %+v, want no rate for the first year", solaire2019)
	}
}

func TestCumulative(t *testing.T) {
	points := Cumulative(sampleObservations())

	got := make(map[string]float64)
	for _, p := range points {
		got[p.EnergyType] = p.Cumulative
	}

	want := map[string]float64{"Éolien": 250, "Solaire": 90, "Hydraulique": 500}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("final cumulative of %s = %v, want %v", k, got[k], v)
		}
	}
}

func TestComputeKPIs(t *testing.T) {
	k := ComputeKPIs(sampleObservations())

	want := KPIs{
		TotalMWh:      840,
		MeanAnnualMWh: 280,
		GrowthPct:     (500.0/130 - 1) * 100,
		Observations:  6,
		Regions:       3,
		EnergyTypes:   3,
		FirstYear:     2019,
		LastYear:      2021,
		YearsCovered:  3,
	}

	if k != want {
		t.Errorf("ComputeKPIs() = %+v, want %+v", k, want)
	}

	single := ComputeKPIs(sampleObservations()[:1])
	if single.GrowthPct != 0 || single.YearsCovered != 1 {
		t.Errorf("single-year KPIs = %+v, want zero growth", single)
	}

	if empty := ComputeKPIs(nil); empty != (KPIs{}) {
		t.Errorf("ComputeKPIs(nil) = %+v, want zero value", empty)
	}
}

func TestYearChange(t *testing.T) {
	changes := YearChange(sampleObservations(), 2019, 2020)

	want := []Change{
		{EnergyType: "Solaire", Start: 30, End: 60, Delta: 30},
		{EnergyType: "Éolien", Start: 100, End: 150, Delta: 50},
	}

	if !slices.Equal(changes, want) {
		t.Errorf("YearChange() = %+v, want %+v", changes, want)
	}

	if same := YearChange(sampleObservations(), 2020, 2020); len(same) != 0 {
		t.Errorf("YearChange(same year) = %+v, want none", same)
	}
}

func TestDistribution(t *testing.T) {
	dist := Distribution(sampleObservations(), DimRegion)

	if len(dist) != 3 {
		t.Fatalf("Distribution returned %d groups, want 3", len(dist))
	}

	b := dist[0]
	if b.Label != "Bretagne" || b.Count != 3 || b.Min != 20 || b.Max != 150 || b.Mean != 90 {
		t.Errorf("Bretagne summary = %+v", b)
	}

	if b.Q1 > b.Median || b.Median > b.Q3 {
		t.Errorf("quartiles out of order: %+v", b)
	}

	if math.Abs(b.StdDev-65.574385243) > 1e-6 {
		t.Errorf("StdDev = %v, want sample standard deviation 65.574", b.StdDev)
	}

	o := dist[2]
	if o.Median != 500 || o.StdDev != 0 {
		t.Errorf("single value summary = %+v, want median 500 and zero spread", o)
	}
}

func TestSummarize_DoesNotSortInput(t *testing.T) {
	x := []float64{3, 1, 2}
	Summarize("x", x)

	if !slices.Equal(x, []float64{3, 1, 2}) {
		t.Errorf("Summarize modified its input: %v", x)
	}
}

func TestBuildHeatmap(t *testing.T) {
	h := BuildHeatmap(sampleObservations())

	if !slices.Equal(h.RowLabels, []string{"Bretagne", "Corse", "Occitanie"}) {
		t.Errorf("RowLabels = %v", h.RowLabels)
	}

	if h.Min != 0 || h.Max != 500 {
		t.Errorf("range = [%v, %v], want [0, 500]", h.Min, h.Max)
	}

	for i, row := range h.Normalized {
		for j, v := range row {
			if v < 0 || v > 1 {
				t.Errorf("Normalized[%d][%d] = %v out of [0, 1]", i, j, v)
			}
		}
	}

	if h.Normalized[2][0] != 1 {
		t.Errorf("Occitanie/Hydraulique = %v, want 1", h.Normalized[2][0])
	}

	flat := BuildHeatmap([]models.Observation{{Region: "Corse", Year: 2020, EnergyType: "Solaire", ProductionMWh: 7}})
	if flat.Normalized[0][0] != 0 {
		t.Errorf("flat grid normalized to %v, want 0", flat.Normalized[0][0])
	}
}
