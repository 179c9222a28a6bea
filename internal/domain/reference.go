package domain

import "context"

// MaterialProfile carries the film data needed to price material usage
type MaterialProfile struct {
	ID                string  `yaml:"id" json:"id" validate:"required"`
	Name              string  `yaml:"name" json:"name"`
	CostPerKg         float64 `yaml:"costPerKg" json:"costPerKg" validate:"gt=0"`
	Density           float64 `yaml:"density" json:"density" validate:"gt=0"`
	ThicknessRequired bool    `yaml:"thicknessRequired" json:"thicknessRequired"`
}

// BagTypeProfile carries the conversion costs of a bag construction
type BagTypeProfile struct {
	ID                    string  `yaml:"id" json:"id" validate:"required"`
	Name                  string  `yaml:"name" json:"name"`
	ProcessingCostPerUnit float64 `yaml:"processingCostPerUnit" json:"processingCostPerUnit" validate:"gte=0"`
	SetupCost             float64 `yaml:"setupCost" json:"setupCost" validate:"gte=0"`
	Flat                  bool    `yaml:"flat" json:"flat"`
}

// ResolvedReference is the reference data for one specification, looked up
// once per request before any quantity is priced.
type ResolvedReference struct {
	Material         MaterialProfile `json:"material"`
	BagType          BagTypeProfile  `json:"bagType"`
	MaterialFallback bool            `json:"materialFallback"`
	BagTypeFallback  bool            `json:"bagTypeFallback"`
}

// ReferenceResolver looks up material and bag-type profiles. Unknown ids
// resolve to default profiles rather than failing.
type ReferenceResolver interface {
	Resolve(ctx context.Context, materialID, bagTypeID string) (ResolvedReference, error)
}
