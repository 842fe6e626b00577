package normalizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"enrprod/internal/models"
	"enrprod/pkg/utils"
)

// Schema errors.
var (
	ErrMissingColumn = errors.New("required column not found")
	ErrSchemaDrift   = errors.New("production columns differ from the expected schema")
)

// Tokens selecting the production value columns.
const (
	valueToken = "Production"
	unitToken  = "(GWh)"
)

// SchemaDriftError lists the differences between the expected production
// columns and the ones found in the file.
type SchemaDriftError struct {
	Missing    []string
	Unexpected []string
}

func (e *SchemaDriftError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %q", e.Missing))
	}

	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected %q", e.Unexpected))
	}

	return fmt.Sprintf("%v: %s", ErrSchemaDrift, strings.Join(parts, ", "))
}

// Is makes errors.Is(err, ErrSchemaDrift) hold.
func (e *SchemaDriftError) Is(target error) bool {
	return target == ErrSchemaDrift
}

// Schema names the columns of the source file.
type Schema struct {
	YearColumn   string
	RegionColumn string
	ShapeColumn  string
	PointColumn  string
	// ExpectedMetrics, when set, is the exact list of production columns
	// the file must carry.
	ExpectedMetrics []string
}

// DefaultSchema returns the column names of the published dataset.
func DefaultSchema() Schema {
	return Schema{
		YearColumn:   "Annee",
		RegionColumn: "Nom INSEE région",
		ShapeColumn:  "Géo-shape région",
		PointColumn:  "Géo-point région",
	}
}

// Layout locates the schema columns in a raw header. Optional columns that
// are absent have index -1.
type Layout struct {
	Year         int
	Region       int
	Shape        int
	Point        int
	ValueColumns []int
	Warnings     []string
}

// HasGeometry reports whether at least one geometry column was found.
func (l Layout) HasGeometry() bool {
	return l.Shape >= 0 || l.Point >= 0
}

// IsValueColumn reports whether name is a production value column.
func IsValueColumn(name string) bool {
	return utils.ContainsAll(name, valueToken, unitToken)
}

// Validator checks a raw table against a schema.
type Validator struct {
	schema Schema
}

// NewValidator creates a new validator instance.
func NewValidator(schema Schema) *Validator {
	return &Validator{schema: schema}
}

// Validate locates the schema columns in raw. Year and region columns are
// required; missing geometry columns only produce a warning. With expected
// metrics configured the discovered value columns must match them exactly.
func (v *Validator) Validate(raw *models.RawTable) (Layout, error) {
	layout := Layout{
		Year:   raw.ColumnIndex(v.schema.YearColumn),
		Region: raw.ColumnIndex(v.schema.RegionColumn),
		Shape:  -1,
		Point:  -1,
	}

	if layout.Year < 0 {
		return Layout{}, fmt.Errorf("%w: %q", ErrMissingColumn, v.schema.YearColumn)
	}

	if layout.Region < 0 {
		return Layout{}, fmt.Errorf("%w: %q", ErrMissingColumn, v.schema.RegionColumn)
	}

	if v.schema.ShapeColumn != "" {
		layout.Shape = raw.ColumnIndex(v.schema.ShapeColumn)
		if layout.Shape < 0 {
			layout.Warnings = append(layout.Warnings, fmt.Sprintf("shape column %q not found", v.schema.ShapeColumn))
		}
	}

	if v.schema.PointColumn != "" {
		layout.Point = raw.ColumnIndex(v.schema.PointColumn)
		if layout.Point < 0 {
			layout.Warnings = append(layout.Warnings, fmt.Sprintf("point column %q not found", v.schema.PointColumn))
		}
	}

	var found []string

	for i, name := range raw.Header {
		if i == layout.Year || i == layout.Region || !IsValueColumn(name) {
			continue
		}

		layout.ValueColumns = append(layout.ValueColumns, i)
		found = append(found, name)
	}

	if len(v.schema.ExpectedMetrics) > 0 {
		if err := checkDrift(v.schema.ExpectedMetrics, found); err != nil {
			return Layout{}, err
		}
	} else if len(found) == 0 {
		layout.Warnings = append(layout.Warnings, "no production columns found")
	}

	return layout, nil
}

func checkDrift(expected, found []string) error {
	drift := &SchemaDriftError{}

	for _, name := range expected {
		if !slices.Contains(found, name) {
			drift.Missing = append(drift.Missing, name)
		}
	}

	for _, name := range found {
		if !slices.Contains(expected, name) {
			drift.Unexpected = append(drift.Unexpected, name)
		}
	}

	if len(drift.Missing) == 0 && len(drift.Unexpected) == 0 {
		return nil
	}

	return drift
}
