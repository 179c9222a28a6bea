package application

import (
	"time"

	"github.com/pouchworks/quote-service/internal/domain"
)

// SpecificationDTO is the wire form of a packaging specification
type SpecificationDTO struct {
	BagTypeID               string   `json:"bagTypeId" validate:"required,catalog_id"`
	MaterialID              string   `json:"materialId" validate:"required,catalog_id"`
	Width                   float64  `json:"width" validate:"gt=0,lte=5000"`
	Height                  float64  `json:"height" validate:"gt=0,lte=5000"`
	Depth                   float64  `json:"depth" validate:"gte=0,lte=5000"`
	ThicknessSelection      string   `json:"thicknessSelection,omitempty" validate:"omitempty,oneof=light medium heavy ultra"`
	IsUVPrinting            bool     `json:"isUVPrinting"`
	PrintingType            string   `json:"printingType,omitempty" validate:"omitempty,oneof=digital gravure"`
	PrintingColors          *int     `json:"printingColors,omitempty" validate:"omitempty,min=1,max=12"`
	DoubleSided             bool     `json:"doubleSided"`
	PostProcessingOptionIDs []string `json:"postProcessingOptionIds" validate:"max=32,dive,catalog_id"`
	DeliveryLocation        string   `json:"deliveryLocation,omitempty" validate:"omitempty,oneof=domestic international"`
	Urgency                 string   `json:"urgency,omitempty" validate:"omitempty,oneof=standard express"`
}

// ToDomain converts the DTO to a specification with defaults applied
func (d SpecificationDTO) ToDomain() domain.PackagingSpecification {
	spec := domain.PackagingSpecification{
		BagTypeID:               d.BagTypeID,
		MaterialID:              d.MaterialID,
		Width:                   d.Width,
		Height:                  d.Height,
		Depth:                   d.Depth,
		ThicknessSelection:      domain.ThicknessSelection(d.ThicknessSelection),
		IsUVPrinting:            d.IsUVPrinting,
		PrintingType:            domain.PrintingType(d.PrintingType),
		DoubleSided:             d.DoubleSided,
		PostProcessingOptionIDs: append([]string(nil), d.PostProcessingOptionIDs...),
		DeliveryLocation:        domain.DeliveryLocation(d.DeliveryLocation),
		Urgency:                 domain.Urgency(d.Urgency),
	}
	if d.PrintingColors != nil {
		spec.PrintingColors = *d.PrintingColors
	}
	return spec.WithDefaults()
}

// MultiQuantityQuoteRequest asks for one specification priced at several quantities.
// Quantities are decoded as floats so that fractional values can be reported
// back instead of failing the whole body.
type MultiQuantityQuoteRequest struct {
	BaseParams             *SpecificationDTO `json:"baseParams" validate:"required"`
	Quantities             []float64         `json:"quantities"`
	ComparisonMode         string            `json:"comparisonMode,omitempty"`
	IncludeRecommendations *bool             `json:"includeRecommendations,omitempty"`
}

// QuoteRequest asks for one specification priced at a single quantity
type QuoteRequest struct {
	BaseParams *SpecificationDTO `json:"baseParams" validate:"required"`
	Quantity   float64           `json:"quantity"`
}

// ImpactRequest asks for the combined impact of a set of options
type ImpactRequest struct {
	OptionIDs []string `json:"optionIds" validate:"required,max=32,dive,catalog_id"`
	BagTypeID string   `json:"bagTypeId,omitempty" validate:"omitempty,catalog_id"`
}

// Metadata accompanies every successful quote response
type Metadata struct {
	ProcessingTime int64     `json:"processingTime"`
	Currency       string    `json:"currency"`
	ValidUntil     time.Time `json:"validUntil"`
	Cached         bool      `json:"cached"`
	SessionID      string    `json:"sessionId"`
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"requestId,omitempty"`
}

// MultiQuantityQuoteData is the payload of a comparison response
type MultiQuantityQuoteData struct {
	BaseParams       domain.PackagingSpecification  `json:"baseParams"`
	Quantities       []int                          `json:"quantities"`
	Calculations     map[int]domain.QuoteLineResult `json:"calculations"`
	Comparison       domain.MultiQuantityComparison `json:"comparison"`
	Recommendations  []domain.Recommendation        `json:"recommendations"`
	ProcessingImpact domain.ProcessingImpact        `json:"processingImpact"`
}

// MultiQuantityQuoteResponse is the success envelope of a comparison
type MultiQuantityQuoteResponse struct {
	Success  bool                   `json:"success"`
	Data     MultiQuantityQuoteData `json:"data"`
	Metadata Metadata               `json:"metadata"`
}

// QuoteData is the payload of a single-quantity quote
type QuoteData struct {
	BaseParams          domain.PackagingSpecification `json:"baseParams"`
	Quote               domain.QuoteLineResult        `json:"quote"`
	ProcessingImpact    domain.ProcessingImpact       `json:"processingImpact"`
	CompatibilityIssues []domain.CompatibilityIssue   `json:"compatibilityIssues"`
}

// QuoteResponse is the success envelope of a single-quantity quote
type QuoteResponse struct {
	Success  bool      `json:"success"`
	Data     QuoteData `json:"data"`
	Metadata Metadata  `json:"metadata"`
}

// ImpactData is the impact and compatibility report for an option set
type ImpactData struct {
	Impact              domain.ProcessingImpact     `json:"impact"`
	CompatibilityIssues []domain.CompatibilityIssue `json:"compatibilityIssues"`
}

// ImpactResponse is the success envelope of an impact calculation
type ImpactResponse struct {
	Success bool       `json:"success"`
	Data    ImpactData `json:"data"`
}

// OptionListResponse lists catalog entries
type OptionListResponse struct {
	Success    bool                      `json:"success"`
	Data       []domain.ProcessingOption `json:"data"`
	Categories []domain.OptionCategory   `json:"categories"`
	Count      int                       `json:"count"`
}

// OptionResponse wraps a single catalog entry
type OptionResponse struct {
	Success bool                    `json:"success"`
	Data    domain.ProcessingOption `json:"data"`
}
