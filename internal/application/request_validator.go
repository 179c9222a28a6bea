package application

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pouchworks/quote-service/internal/domain"
	apperrors "github.com/pouchworks/quote-service/pkg/errors"
)

const specValidationMessage = "baseParams validation failed: required fields are missing or invalid"

var catalogIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

var unsafeFragments = []string{"<", ">", "\"", "'", "`", ";", "..", "/", "\\", "\x00", "javascript:"}

// Limits bounds the quantities accepted per request
type Limits struct {
	MinQuantity   int
	MaxQuantity   int
	MaxQuantities int
}

// DefaultLimits returns 100..1,000,000 units and at most 50 quantities
func DefaultLimits() Limits {
	return Limits{
		MinQuantity:   100,
		MaxQuantity:   1_000_000,
		MaxQuantities: 50,
	}
}

// RequestValidator checks inbound requests in a fixed order: unsafe
// identifiers, specification fields, then quantities. A specification failure
// still carries the quantity findings under details.quantities.
type RequestValidator struct {
	validate *validator.Validate
	limits   Limits
}

// NewRequestValidator creates a validator with the catalog_id tag registered
func NewRequestValidator(limits Limits) *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("catalog_id", func(fl validator.FieldLevel) bool {
		return catalogIDPattern.MatchString(fl.Field().String())
	})
	return &RequestValidator{validate: v, limits: limits}
}

// Limits returns the configured quantity bounds
func (v *RequestValidator) Limits() Limits {
	return v.limits
}

// ValidateMultiQuantity validates a comparison request and returns the
// normalized specification and the sorted, de-duplicated quantities.
func (v *RequestValidator) ValidateMultiQuantity(req *MultiQuantityQuoteRequest) (domain.PackagingSpecification, []int, *apperrors.AppError) {
	if req == nil {
		return domain.PackagingSpecification{}, nil, apperrors.ErrValidationWithFields(specValidationMessage, map[string]string{"baseParams": "is required"})
	}
	if appErr := v.checkUnsafe(req.BaseParams, map[string]string{"comparisonMode": req.ComparisonMode}); appErr != nil {
		return domain.PackagingSpecification{}, nil, appErr
	}
	spec, appErr := v.validateSpecification(req)
	if appErr != nil {
		return domain.PackagingSpecification{}, nil, v.withQuantityFindings(appErr, req.Quantities)
	}
	quantities, appErr := v.ValidateQuantities(req.Quantities)
	if appErr != nil {
		return domain.PackagingSpecification{}, nil, appErr
	}
	return spec, quantities, nil
}

// ValidateQuote validates a single-quantity request
func (v *RequestValidator) ValidateQuote(req *QuoteRequest) (domain.PackagingSpecification, int, *apperrors.AppError) {
	if req == nil {
		return domain.PackagingSpecification{}, 0, apperrors.ErrValidationWithFields(specValidationMessage, map[string]string{"baseParams": "is required"})
	}
	if appErr := v.checkUnsafe(req.BaseParams, nil); appErr != nil {
		return domain.PackagingSpecification{}, 0, appErr
	}
	spec, appErr := v.validateSpecification(req)
	if appErr != nil {
		return domain.PackagingSpecification{}, 0, v.withQuantityFindings(appErr, []float64{req.Quantity})
	}
	quantities, appErr := v.ValidateQuantities([]float64{req.Quantity})
	if appErr != nil {
		return domain.PackagingSpecification{}, 0, appErr
	}
	return spec, quantities[0], nil
}

// ValidateImpact validates an impact request
func (v *RequestValidator) ValidateImpact(req *ImpactRequest) *apperrors.AppError {
	if req == nil {
		return apperrors.ErrValidation("request body is required")
	}
	var unsafe []string
	if isUnsafe(req.BagTypeID) {
		unsafe = append(unsafe, "bagTypeId")
	}
	for i, id := range req.OptionIDs {
		if isUnsafe(id) {
			unsafe = append(unsafe, fmt.Sprintf("optionIds[%d]", i))
		}
	}
	if len(unsafe) > 0 {
		return apperrors.ErrInvalidInput(unsafe)
	}
	if fields := v.structFields(req); len(fields) > 0 {
		return apperrors.ErrValidationWithFields("impact request validation failed", fields)
	}
	return nil
}

// ValidateQuantities checks the quantity list and returns it as sorted unique integers
func (v *RequestValidator) ValidateQuantities(values []float64) ([]int, *apperrors.AppError) {
	if len(values) == 0 {
		return nil, apperrors.ErrInvalidQuantities("quantities must contain at least one value")
	}
	if v.limits.MaxQuantities > 0 && len(values) > v.limits.MaxQuantities {
		return nil, apperrors.ErrTooManyQuantities(v.limits.MaxQuantities, len(values))
	}

	var invalid []float64
	seen := make(map[int]bool, len(values))
	out := make([]int, 0, len(values))
	for _, q := range values {
		if !v.validQuantity(q) {
			invalid = append(invalid, q)
			continue
		}
		n := int(q)
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(invalid) > 0 {
		return nil, apperrors.ErrInvalidQuantityValues(
			fmt.Sprintf("each quantity must be a whole number between %d and %d", v.limits.MinQuantity, v.limits.MaxQuantity),
			invalid,
		)
	}
	sort.Ints(out)
	return out, nil
}

// withQuantityFindings attaches the quantity error, if any, to a
// specification error so both can be corrected in one round trip.
func (v *RequestValidator) withQuantityFindings(specErr *apperrors.AppError, values []float64) *apperrors.AppError {
	_, qErr := v.ValidateQuantities(values)
	if qErr == nil {
		return specErr
	}
	finding := map[string]any{
		"code":    qErr.Code,
		"message": qErr.Message,
	}
	for k, val := range qErr.Details {
		finding[k] = val
	}
	return specErr.WithDetail("quantities", finding)
}

func (v *RequestValidator) validQuantity(q float64) bool {
	if math.IsNaN(q) || math.IsInf(q, 0) || q != math.Trunc(q) || q <= 0 {
		return false
	}
	if q < float64(v.limits.MinQuantity) {
		return false
	}
	if v.limits.MaxQuantity > 0 && q > float64(v.limits.MaxQuantity) {
		return false
	}
	return true
}

func (v *RequestValidator) checkUnsafe(spec *SpecificationDTO, extra map[string]string) *apperrors.AppError {
	var unsafe []string
	if spec != nil {
		if isUnsafe(spec.BagTypeID) {
			unsafe = append(unsafe, "baseParams.bagTypeId")
		}
		if isUnsafe(spec.MaterialID) {
			unsafe = append(unsafe, "baseParams.materialId")
		}
		for i, id := range spec.PostProcessingOptionIDs {
			if isUnsafe(id) {
				unsafe = append(unsafe, fmt.Sprintf("baseParams.postProcessingOptionIds[%d]", i))
			}
		}
	}
	for field, value := range extra {
		if isUnsafe(value) {
			unsafe = append(unsafe, field)
		}
	}
	if len(unsafe) == 0 {
		return nil
	}
	sort.Strings(unsafe)
	return apperrors.ErrInvalidInput(unsafe)
}

// validateSpecification runs struct tags then the domain invariants and
// reports every failing field under its request path.
func (v *RequestValidator) validateSpecification(req any) (domain.PackagingSpecification, *apperrors.AppError) {
	fields := v.structFields(req)

	var dto *SpecificationDTO
	switch r := req.(type) {
	case *MultiQuantityQuoteRequest:
		dto = r.BaseParams
	case *QuoteRequest:
		dto = r.BaseParams
	}

	var spec domain.PackagingSpecification
	if dto != nil {
		spec = dto.ToDomain()
		var specErr *domain.SpecificationError
		if err := spec.Validate(); errors.As(err, &specErr) {
			for name, msg := range specErr.Fields {
				key := "baseParams." + name
				if _, exists := fields[key]; !exists {
					fields[key] = msg
				}
			}
		}
	}

	if len(fields) > 0 {
		return domain.PackagingSpecification{}, apperrors.ErrValidationWithFields(specValidationMessage, fields)
	}
	return spec, nil
}

func (v *RequestValidator) structFields(s any) map[string]string {
	fields := make(map[string]string)
	err := v.validate.Struct(s)
	if err == nil {
		return fields
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["request"] = err.Error()
		return fields
	}
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "catalog_id":
		return "must be a catalog identifier (letters, digits, '-', '_', '.')"
	default:
		return "is invalid"
	}
}

func isUnsafe(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, frag := range unsafeFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
