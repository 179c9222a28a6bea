package domain

// OptionCategory is the closed set of post-processing option groups
type OptionCategory string

const (
	CategoryOpeningSealing   OptionCategory = "opening-sealing"
	CategorySurfaceTreatment OptionCategory = "surface-treatment"
	CategoryShapeStructure   OptionCategory = "shape-structure"
	CategoryFunctionality    OptionCategory = "functionality"
)

// AllCategories returns the option categories in display order
func AllCategories() []OptionCategory {
	return []OptionCategory{
		CategoryOpeningSealing,
		CategorySurfaceTreatment,
		CategoryShapeStructure,
		CategoryFunctionality,
	}
}

// IsValid reports whether the category belongs to the closed enum
func (c OptionCategory) IsValid() bool {
	switch c {
	case CategoryOpeningSealing, CategorySurfaceTreatment, CategoryShapeStructure, CategoryFunctionality:
		return true
	}
	return false
}

// OptionVariant is a sub-choice of an option. PriceAdjustment is catalog
// metadata and does not enter the impact multiplier.
type OptionVariant struct {
	ID              string  `yaml:"id" json:"id" validate:"required"`
	Name            string  `yaml:"name" json:"name" validate:"required"`
	PriceAdjustment float64 `yaml:"priceAdjustment" json:"priceAdjustment" validate:"gte=0"`
}

// ProcessingOption is a read-only catalog entry
type ProcessingOption struct {
	ID                 string          `yaml:"id" json:"id" validate:"required"`
	Name               string          `yaml:"name" json:"name" validate:"required"`
	Description        string          `yaml:"description" json:"description"`
	Category           OptionCategory  `yaml:"category" json:"category" validate:"required,oneof=opening-sealing surface-treatment shape-structure functionality"`
	PriceMultiplier    float64         `yaml:"priceMultiplier" json:"priceMultiplier" validate:"gt=0"`
	ProcessingTimeDays int             `yaml:"processingTimeDays" json:"processingTimeDays" validate:"gte=0"`
	MinimumQuantity    int             `yaml:"minimumQuantity" json:"minimumQuantity" validate:"gt=0"`
	CompatibleWith     []string        `yaml:"compatibleWith" json:"compatibleWith" validate:"required,min=1,dive,required"`
	IncompatibleWith   []string        `yaml:"incompatibleWith" json:"incompatibleWith,omitempty" validate:"dive,required"`
	Features           []string        `yaml:"features" json:"features"`
	Variants           []OptionVariant `yaml:"variants" json:"variants,omitempty" validate:"dive"`
}

// IsCompatibleWith reports whether the option can be applied to bagTypeID
func (o ProcessingOption) IsCompatibleWith(bagTypeID string) bool {
	for _, bt := range o.CompatibleWith {
		if bt == bagTypeID {
			return true
		}
	}
	return false
}

// ConflictsWith reports whether the option cannot be combined with otherID
func (o ProcessingOption) ConflictsWith(otherID string) bool {
	for _, id := range o.IncompatibleWith {
		if id == otherID {
			return true
		}
	}
	return false
}
