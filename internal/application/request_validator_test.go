package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pouchworks/quote-service/internal/domain"
	apperrors "github.com/pouchworks/quote-service/pkg/errors"
)

func intPtr(v int) *int { return &v }

func validDTO() *SpecificationDTO {
	return &SpecificationDTO{
		BagTypeID:  "stand_up",
		MaterialID: "PET",
		Width:      120,
		Height:     180,
		Depth:      40,
	}
}

func TestValidateMultiQuantityAccepts(t *testing.T) {
	v := NewRequestValidator(DefaultLimits())
	dto := validDTO()
	dto.PrintingColors = intPtr(3)
	dto.PostProcessingOptionIDs = []string{"zipper-yes", "glossy", "zipper-yes"}

	spec, quantities, appErr := v.ValidateMultiQuantity(&MultiQuantityQuoteRequest{
		BaseParams: dto,
		Quantities: []float64{5000, 1000, 1000, 500},
	})

	require.Nil(t, appErr)
	assert.Equal(t, []int{500, 1000, 5000}, quantities)
	assert.Equal(t, 3, spec.PrintingColors)
	assert.Equal(t, domain.PrintingDigital, spec.PrintingType)
	assert.Equal(t, []string{"zipper-yes", "glossy"}, spec.PostProcessingOptionIDs)
}

func TestValidateMultiQuantityErrors(t *testing.T) {
	tooMany := make([]float64, 51)
	for i := range tooMany {
		tooMany[i] = float64(1000 + i)
	}

	tests := []struct {
		name   string
		req    *MultiQuantityQuoteRequest
		code   string
		status int
		check  func(t *testing.T, appErr *apperrors.AppError)
	}{
		{
			name:   "nil request",
			req:    nil,
			code:   apperrors.CodeValidationError,
			status: 400,
		},
		{
			name: "missing two required fields reports both",
			req: func() *MultiQuantityQuoteRequest {
				dto := validDTO()
				dto.BagTypeID = ""
				dto.Width = 0
				return &MultiQuantityQuoteRequest{BaseParams: dto, Quantities: []float64{1000}}
			}(),
			code:   apperrors.CodeValidationError,
			status: 400,
			check: func(t *testing.T, appErr *apperrors.AppError) {
				assert.Equal(t, []string{"bagTypeId", "width"}, appErr.Details["fields"])
				assert.Equal(t, []string{"baseParams.bagTypeId", "baseParams.width"}, appErr.Details["paths"])
				assert.Equal(t, specValidationMessage, appErr.Message)
				assert.NotContains(t, appErr.Details, "quantities")
			},
		},
		{
			name:   "missing baseParams",
			req:    &MultiQuantityQuoteRequest{Quantities: []float64{1000}},
			code:   apperrors.CodeValidationError,
			status: 400,
			check: func(t *testing.T, appErr *apperrors.AppError) {
				assert.Equal(t, []string{"baseParams"}, appErr.Details["fields"])
			},
		},
		{
			name: "thickness required by material family",
			req: func() *MultiQuantityQuoteRequest {
				dto := validDTO()
				dto.MaterialID = "alu-vapor"
				return &MultiQuantityQuoteRequest{BaseParams: dto, Quantities: []float64{1000}}
			}(),
			code:   apperrors.CodeValidationError,
			status: 400,
			check: func(t *testing.T, appErr *apperrors.AppError) {
				assert.Equal(t, []string{"thicknessSelection"}, appErr.Details["fields"])
			},
		},
		{
			name: "bad enum and option id",
			req: func() *MultiQuantityQuoteRequest {
				dto := validDTO()
				dto.PrintingType = "offset"
				dto.PostProcessingOptionIDs = []string{"zipper yes"}
				return &MultiQuantityQuoteRequest{BaseParams: dto, Quantities: []float64{1000}}
			}(),
			code:   apperrors.CodeValidationError,
			status: 400,
			check: func(t *testing.T, appErr *apperrors.AppError) {
				assert.Equal(t, []string{"postProcessingOptionIds", "printingType"}, appErr.Details["fields"])
			},
		},
		{
			name: "markup in identifier",
			req: func() *MultiQuantityQuoteRequest {
				dto := validDTO()
				dto.MaterialID = "<script>alert(1)</script>"
				dto.Width = 0
				return &MultiQuantityQuoteRequest{BaseParams: dto, Quantities: []float64{1000}}
			}(),
			code:   apperrors.CodeInvalidInput,
			status: 400,
			check: func(t *testing.T, appErr *apperrors.AppError) {
				assert.Equal(t, []string{"materialId"}, appErr.Details["fields"])
				assert.Equal(t, []string{"baseParams.materialId"}, appErr.Details["paths"])
			},
		},
		{
			name: "path traversal in option id",
			req: func() *MultiQuantityQuoteRequest {
				dto := validDTO()
				dto.PostProcessingOptionIDs = []string{"glossy", "../../etc/passwd"}
				return &MultiQuantityQuoteRequest{BaseParams: dto, Quantities: []float64{1000}}
			}(),
			code:   apperrors.CodeInvalidInput,
			status: 400,
		},
		{
			name:   "script scheme in comparison mode",
			req:    &MultiQuantityQuoteRequest{BaseParams: validDTO(), Quantities: []float64{1000}, ComparisonMode: "javascript:alert(1)"},
			code:   apperrors.CodeInvalidInput,
			status: 400,
		},
		{
			name:   "empty quantities",
			req:    &MultiQuantityQuoteRequest{BaseParams: validDTO(), Quantities: []float64{}},
			code:   apperrors.CodeInvalidQuantities,
			status: 400,
		},
		{
			name:   "missing quantities",
			req:    &MultiQuantityQuoteRequest{BaseParams: validDTO()},
			code:   apperrors.CodeInvalidQuantities,
			status: 400,
		},
		{
			name:   "51 quantities",
			req:    &MultiQuantityQuoteRequest{BaseParams: validDTO(), Quantities: tooMany},
			code:   apperrors.CodeTooManyQuantities,
			status: 400,
			check: func(t *testing.T, appErr *apperrors.AppError) {
				assert.Equal(t, 50, appErr.Details["maximum"])
				assert.Equal(t, 51, appErr.Details["received"])
			},
		},
		{
			name:   "zero, negative, fractional and out of bounds",
			req:    &MultiQuantityQuoteRequest{BaseParams: validDTO(), Quantities: []float64{1000, 0, -5, 1500.5, 50, 2_000_000}},
			code:   apperrors.CodeInvalidQuantityValues,
			status: 400,
			check: func(t *testing.T, appErr *apperrors.AppError) {
				assert.Equal(t, []float64{0, -5, 1500.5, 50, 2_000_000}, appErr.Details["invalidValues"])
			},
		},
	}

	v := NewRequestValidator(DefaultLimits())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, appErr := v.ValidateMultiQuantity(tt.req)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			if tt.check != nil {
				tt.check(t, appErr)
			}
		})
	}
}

func TestValidateMultiQuantityReportsSpecificationAndQuantities(t *testing.T) {
	v := NewRequestValidator(DefaultLimits())
	dto := validDTO()
	dto.BagTypeID = ""
	dto.Width = -100

	_, _, appErr := v.ValidateMultiQuantity(&MultiQuantityQuoteRequest{
		BaseParams: dto,
		Quantities: []float64{0, 1000},
	})

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Equal(t, []string{"bagTypeId", "width"}, appErr.Details["fields"])

	quantities, ok := appErr.Details["quantities"].(map[string]any)
	require.True(t, ok, "quantity findings attached")
	assert.Equal(t, apperrors.CodeInvalidQuantityValues, quantities["code"])
	assert.Equal(t, []float64{0}, quantities["invalidValues"])
}

func TestValidateQuoteReportsSpecificationAndQuantity(t *testing.T) {
	v := NewRequestValidator(DefaultLimits())
	dto := validDTO()
	dto.MaterialID = ""

	_, _, appErr := v.ValidateQuote(&QuoteRequest{BaseParams: dto, Quantity: -5})

	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Equal(t, []string{"materialId"}, appErr.Details["fields"])
	quantities, ok := appErr.Details["quantities"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []float64{-5}, quantities["invalidValues"])
}

func TestValidateQuantitiesConfigurableFloor(t *testing.T) {
	v := NewRequestValidator(Limits{MinQuantity: 500, MaxQuantity: 1_000_000, MaxQuantities: 50})

	_, appErr := v.ValidateQuantities([]float64{100, 500})
	require.NotNil(t, appErr)
	assert.Equal(t, []float64{100}, appErr.Details["invalidValues"])

	quantities, appErr := v.ValidateQuantities([]float64{500, 1_000_000})
	require.Nil(t, appErr)
	assert.Equal(t, []int{500, 1_000_000}, quantities)
}

func TestValidateQuote(t *testing.T) {
	v := NewRequestValidator(DefaultLimits())

	spec, qty, appErr := v.ValidateQuote(&QuoteRequest{BaseParams: validDTO(), Quantity: 3000})
	require.Nil(t, appErr)
	assert.Equal(t, 3000, qty)
	assert.Equal(t, "stand_up", spec.BagTypeID)

	_, _, appErr = v.ValidateQuote(&QuoteRequest{BaseParams: validDTO(), Quantity: 0})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidQuantityValues, appErr.Code)
}

func TestValidateImpact(t *testing.T) {
	v := NewRequestValidator(DefaultLimits())

	assert.Nil(t, v.ValidateImpact(&ImpactRequest{OptionIDs: []string{"glossy", "lamination"}, BagTypeID: "gusset"}))

	appErr := v.ValidateImpact(&ImpactRequest{OptionIDs: []string{"glossy", "<b>"}})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)

	appErr = v.ValidateImpact(&ImpactRequest{OptionIDs: []string{"has space"}})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
}
