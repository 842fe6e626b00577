// Package geo parses region boundaries and centroids into go-geom values.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"

	"enrprod/internal/models"
)

// Geometry errors.
var (
	ErrEmptyGeometry       = errors.New("empty geometry")
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
	ErrInvalidPoint        = errors.New("point must be \"lat, lon\"")
	ErrPointOutOfRange     = errors.New("point coordinates out of range")
)

// ParseShape decodes a GeoJSON Polygon or MultiPolygon. A Feature wrapping
// one of those is unwrapped.
func ParseShape(s string) (geom.T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyGeometry
	}

	var head struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal([]byte(s), &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var g geom.T

	if head.Type == "Feature" {
		var f geojson.Feature
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			return nil, fmt.Errorf("decode geojson feature: %w", err)
		}

		g = f.Geometry
	} else if err := geojson.Unmarshal([]byte(s), &g); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	switch t := g.(type) {
	case *geom.Polygon:
		if t.Empty() {
			return nil, ErrEmptyGeometry
		}
	case *geom.MultiPolygon:
		if t.Empty() {
			return nil, ErrEmptyGeometry
		}
	case nil:
		return nil, ErrEmptyGeometry
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}

	return g, nil
}

// ParsePoint decodes a "lat, lon" string. The returned point is in lon/lat
// (x/y) order.
func ParsePoint(s string) (*geom.Point, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyGeometry
	}

	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: lat=%g lon=%g", ErrPointOutOfRange, lat, lon)
	}

	return geom.NewPointFlat(geom.XY, []float64{lon, lat}), nil
}

// Build parses the shape and point of a region. Unparsable parts are left
// nil; the returned error joins every parse failure and is only advisory.
func Build(region, shape, point string) (models.RegionGeometry, error) {
	g := models.RegionGeometry{
		Region: region,
		Shape:  shape,
		Point:  point,
	}

	var errs []error

	if strings.TrimSpace(shape) != "" {
		boundary, err := ParseShape(shape)
		if err != nil {
			errs = append(errs, fmt.Errorf("shape: %w", err))
		}

		g.Boundary = boundary
	}

	if strings.TrimSpace(point) != "" {
		centroid, err := ParsePoint(point)
		if err != nil {
			errs = append(errs, fmt.Errorf("point: %w", err))
		}

		g.Centroid = centroid
	}

	return g, errors.Join(errs...)
}

// Centroid returns the centroid of region. The published point wins; when it
// is absent the centroid of the boundary is computed.
func Centroid(table *models.RegionGeometryTable, region string) (*geom.Point, bool) {
	g, ok := table.Get(region)
	if !ok {
		return nil, false
	}

	if g.Centroid != nil {
		return g.Centroid, true
	}

	if g.Boundary == nil {
		return nil, false
	}

	c, err := xy.Centroid(g.Boundary)
	if err != nil {
		return nil, false
	}

	return geom.NewPointFlat(geom.XY, []float64{c.X(), c.Y()}), true
}

// Feature renders a region as a GeoJSON feature: the boundary as geometry
// (the centroid when no boundary is known) and the centroid in properties.
func Feature(table *models.RegionGeometryTable, region string) (*geojson.Feature, bool) {
	g, ok := table.Get(region)
	if !ok {
		return nil, false
	}

	props := map[string]any{"region": region}

	centroid, hasCentroid := Centroid(table, region)
	if hasCentroid {
		props["centroid"] = []float64{centroid.X(), centroid.Y()}
	}

	f := &geojson.Feature{
		ID:         region,
		Properties: props,
	}

	switch {
	case g.Boundary != nil:
		f.Geometry = g.Boundary
	case hasCentroid:
		f.Geometry = centroid
	}

	return f, true
}
