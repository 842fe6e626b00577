package models

// Observation is one region-year-energy type production reading.
type Observation struct {
	Region        string  `json:"region"`
	EnergyType    string  `json:"energy_type"`
	Year          int     `json:"year"`
	ProductionMWh float64 `json:"production_mwh"`
}

// NormalizationStats counts what happened to the value cells during reshaping.
type NormalizationStats struct {
	SourceRows     int `json:"source_rows"`
	ValueColumns   int `json:"value_columns"`
	Cells          int `json:"cells"`
	Kept           int `json:"kept"`
	DroppedMissing int `json:"dropped_missing"`
	DroppedInvalid int `json:"dropped_invalid"`
	Negative       int `json:"negative"`
}

// Dropped returns the number of cells that produced no observation.
func (s NormalizationStats) Dropped() int {
	return s.DroppedMissing + s.DroppedInvalid
}

// ObservationTable is the long-format table. It is never mutated after the
// normalizer returns it.
type ObservationTable struct {
	observations []Observation
	energyTypes  []string
	Stats        NormalizationStats
}

// NewObservationTable wraps observations in melt order together with the
// energy types in discovery order.
func NewObservationTable(observations []Observation, energyTypes []string, stats NormalizationStats) *ObservationTable {
	if observations == nil {
		observations = []Observation{}
	}

	if energyTypes == nil {
		energyTypes = []string{}
	}

	return &ObservationTable{
		observations: observations,
		energyTypes:  energyTypes,
		Stats:        stats,
	}
}

// Len returns the number of observations.
func (t *ObservationTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.observations)
}

// Empty reports whether the table holds no observation.
func (t *ObservationTable) Empty() bool {
	return t.Len() == 0
}

// Rows returns a copy of the observations.
func (t *ObservationTable) Rows() []Observation {
	if t == nil {
		return []Observation{}
	}

	out := make([]Observation, len(t.observations))
	copy(out, t.observations)

	return out
}

// EnergyTypes returns the cleaned energy type labels in discovery order.
func (t *ObservationTable) EnergyTypes() []string {
	if t == nil {
		return []string{}
	}

	out := make([]string, len(t.energyTypes))
	copy(out, t.energyTypes)

	return out
}
