package models

import "time"

// Dataset bundles the normalizer outputs with their provenance.
type Dataset struct {
	LoadedAt     time.Time
	Observations *ObservationTable
	Geometry     *RegionGeometryTable
	RunID        string
	Source       string
	Checksum     string
	Warnings     []string
}

// Empty reports whether the dataset carries no observation, the "no data"
// state a caller renders instead of failing.
func (d *Dataset) Empty() bool {
	return d == nil || d.Observations.Empty()
}
