package models

import "github.com/twpayne/go-geom"

// RegionGeometry holds the boundary and centroid of one region. Shape and
// Point keep the source strings; Boundary and Centroid are nil when the
// source value could not be parsed.
type RegionGeometry struct {
	Boundary geom.T
	Centroid *geom.Point
	Region   string
	Shape    string
	Point    string
}

// RegionGeometryTable maps region names to their geometry, one entry per
// distinct region, in order of first appearance.
type RegionGeometryTable struct {
	index   map[string]int
	entries []RegionGeometry
}

// NewRegionGeometryTable creates an empty table.
func NewRegionGeometryTable() *RegionGeometryTable {
	return &RegionGeometryTable{index: make(map[string]int)}
}

// Add stores g unless its region is already present. It reports whether g was added.
func (t *RegionGeometryTable) Add(g RegionGeometry) bool {
	if _, ok := t.index[g.Region]; ok {
		return false
	}

	t.index[g.Region] = len(t.entries)
	t.entries = append(t.entries, g)

	return true
}

// Get returns the geometry of region.
func (t *RegionGeometryTable) Get(region string) (RegionGeometry, bool) {
	if t == nil {
		return RegionGeometry{}, false
	}

	i, ok := t.index[region]
	if !ok {
		return RegionGeometry{}, false
	}

	return t.entries[i], true
}

// Len returns the number of regions.
func (t *RegionGeometryTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.entries)
}

// Regions returns region names in order of first appearance.
func (t *RegionGeometryTable) Regions() []string {
	if t == nil {
		return []string{}
	}

	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Region
	}

	return out
}

// Entries returns a copy of all entries.
func (t *RegionGeometryTable) Entries() []RegionGeometry {
	if t == nil {
		return []RegionGeometry{}
	}

	out := make([]RegionGeometry, len(t.entries))
	copy(out, t.entries)

	return out
}
