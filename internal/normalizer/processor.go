// Package normalizer reshapes the raw wide production table into the long
// observation table and the region geometry table.
package normalizer

import (
	"fmt"

	"enrprod/internal/models"
)

// Processor handles data processing and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance for schema.
func NewProcessor(schema Schema) *Processor {
	return &Processor{
		validator:   NewValidator(schema),
		transformer: NewTransformer(),
	}
}

// Process transforms raw data into normalized format. A nil table yields a
// nil dataset and no error. The result depends only on raw.
func (p *Processor) Process(raw *models.RawTable) (*models.Dataset, error) {
	if raw == nil {
		return nil, nil
	}

	// 1. Validate the input data
	layout, err := p.validator.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	warnings := append([]string(nil), layout.Warnings...)

	// 2. Extract geometry before any reshaping
	geometry, geoWarnings := p.transformer.ExtractGeometry(raw, layout)
	warnings = append(warnings, geoWarnings...)

	// 3. Reshape the production columns
	observations, reshapeWarnings, err := p.transformer.Reshape(raw, layout)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	warnings = append(warnings, reshapeWarnings...)

	return &models.Dataset{
		Observations: observations,
		Geometry:     geometry,
		Source:       raw.Path,
		Checksum:     raw.Checksum,
		Warnings:     warnings,
	}, nil
}
