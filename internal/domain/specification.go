package domain

import (
	"fmt"
	"sort"
	"strings"
)

// PrintingType is the print process used for the bag surface
type PrintingType string

const (
	PrintingDigital PrintingType = "digital"
	PrintingGravure PrintingType = "gravure"
)

// DeliveryLocation selects the delivery rate card
type DeliveryLocation string

const (
	DeliveryDomestic      DeliveryLocation = "domestic"
	DeliveryInternational DeliveryLocation = "international"
)

// Urgency selects the production schedule
type Urgency string

const (
	UrgencyStandard Urgency = "standard"
	UrgencyExpress  Urgency = "express"
)

// ThicknessSelection is the film gauge for materials that need one
type ThicknessSelection string

const (
	ThicknessLight  ThicknessSelection = "light"
	ThicknessMedium ThicknessSelection = "medium"
	ThicknessHeavy  ThicknessSelection = "heavy"
	ThicknessUltra  ThicknessSelection = "ultra"
)

// thicknessRequiredMaterials is the laminate family that cannot be priced
// without an explicit gauge.
var thicknessRequiredMaterials = map[string]bool{
	"opp-alu-foil":    true,
	"kraft-pe":        true,
	"alu-vapor":       true,
	"pet-transparent": true,
}

// RequiresThickness reports whether materialID belongs to the thickness-required family
func RequiresThickness(materialID string) bool {
	return thicknessRequiredMaterials[strings.ToLower(materialID)]
}

// PackagingSpecification describes the bag being quoted. It is immutable for
// the lifetime of a request.
type PackagingSpecification struct {
	BagTypeID               string             `json:"bagTypeId"`
	MaterialID              string             `json:"materialId"`
	Width                   float64            `json:"width"`
	Height                  float64            `json:"height"`
	Depth                   float64            `json:"depth"`
	ThicknessSelection      ThicknessSelection `json:"thicknessSelection,omitempty"`
	IsUVPrinting            bool               `json:"isUVPrinting"`
	PrintingType            PrintingType       `json:"printingType"`
	PrintingColors          int                `json:"printingColors"`
	DoubleSided             bool               `json:"doubleSided"`
	PostProcessingOptionIDs []string           `json:"postProcessingOptionIds"`
	DeliveryLocation        DeliveryLocation   `json:"deliveryLocation"`
	Urgency                 Urgency            `json:"urgency"`
}

// WithDefaults fills optional fields and drops repeated option ids while
// keeping their first-seen display order.
func (s PackagingSpecification) WithDefaults() PackagingSpecification {
	if s.PrintingType == "" {
		s.PrintingType = PrintingDigital
	}
	if s.PrintingColors == 0 {
		s.PrintingColors = 1
	}
	if s.DeliveryLocation == "" {
		s.DeliveryLocation = DeliveryDomestic
	}
	if s.Urgency == "" {
		s.Urgency = UrgencyStandard
	}

	seen := make(map[string]bool, len(s.PostProcessingOptionIDs))
	ids := make([]string, 0, len(s.PostProcessingOptionIDs))
	for _, id := range s.PostProcessingOptionIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	s.PostProcessingOptionIDs = ids
	return s
}

// SortedOptionIDs returns the option ids in lexical order
func (s PackagingSpecification) SortedOptionIDs() []string {
	ids := append([]string(nil), s.PostProcessingOptionIDs...)
	sort.Strings(ids)
	return ids
}

// SpecificationError lists every invalid field of a specification
type SpecificationError struct {
	Fields map[string]string
}

func (e *SpecificationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid packaging specification: %s", strings.Join(names, ", "))
}

// Validate checks the specification invariants and reports all violations at once
func (s PackagingSpecification) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(s.BagTypeID) == "" {
		fields["bagTypeId"] = "is required"
	}
	if strings.TrimSpace(s.MaterialID) == "" {
		fields["materialId"] = "is required"
	}
	if !(s.Width > 0) {
		fields["width"] = "must be greater than 0"
	}
	if !(s.Height > 0) {
		fields["height"] = "must be greater than 0"
	}
	if !(s.Depth >= 0) {
		fields["depth"] = "must be greater than or equal to 0"
	}
	if RequiresThickness(s.MaterialID) && s.ThicknessSelection == "" {
		fields["thicknessSelection"] = "is required for material " + s.MaterialID
	}
	if s.ThicknessSelection != "" && !s.ThicknessSelection.valid() {
		fields["thicknessSelection"] = "must be one of: light, medium, heavy, ultra"
	}
	if s.PrintingType != "" && s.PrintingType != PrintingDigital && s.PrintingType != PrintingGravure {
		fields["printingType"] = "must be one of: digital, gravure"
	}
	if s.PrintingColors < 0 {
		fields["printingColors"] = "must be a positive integer"
	}
	if s.DeliveryLocation != "" && s.DeliveryLocation != DeliveryDomestic && s.DeliveryLocation != DeliveryInternational {
		fields["deliveryLocation"] = "must be one of: domestic, international"
	}
	if s.Urgency != "" && s.Urgency != UrgencyStandard && s.Urgency != UrgencyExpress {
		fields["urgency"] = "must be one of: standard, express"
	}

	if len(fields) > 0 {
		return &SpecificationError{Fields: fields}
	}
	return nil
}

func (t ThicknessSelection) valid() bool {
	switch t {
	case ThicknessLight, ThicknessMedium, ThicknessHeavy, ThicknessUltra:
		return true
	}
	return false
}
