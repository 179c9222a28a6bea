package domain

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed processing_options.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when the catalog document fails validation
var ErrInvalidCatalog = errors.New("invalid processing option catalog")

type catalogDocument struct {
	DefaultMinimumQuantity int                `yaml:"defaultMinimumQuantity" validate:"gt=0"`
	Options                []ProcessingOption `yaml:"options" validate:"required,min=1,dive"`
}

// OptionCatalog is the read-only registry of post-processing options.
// It is safe for concurrent use because nothing mutates it after construction.
type OptionCatalog struct {
	options    []ProcessingOption
	byID       map[string]int
	defaultMin int
}

// CompatibilityIssue describes why a selected option cannot be produced
type CompatibilityIssue struct {
	OptionID      string `json:"optionId"`
	ConflictsWith string `json:"conflictsWith,omitempty"`
	BagTypeID     string `json:"bagTypeId,omitempty"`
	Reason        string `json:"reason"`
}

// LoadOptionCatalog parses and validates a YAML catalog document
func LoadOptionCatalog(data []byte) (*OptionCatalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewOptionCatalog(doc.DefaultMinimumQuantity, doc.Options)
}

// DefaultOptionCatalog loads the catalog embedded in the binary
func DefaultOptionCatalog() (*OptionCatalog, error) {
	return LoadOptionCatalog(defaultCatalogYAML)
}

// NewOptionCatalog builds a catalog from already-decoded options
func NewOptionCatalog(defaultMinimumQuantity int, options []ProcessingOption) (*OptionCatalog, error) {
	if defaultMinimumQuantity <= 0 {
		return nil, fmt.Errorf("%w: default minimum quantity must be positive", ErrInvalidCatalog)
	}

	c := &OptionCatalog{
		options:    make([]ProcessingOption, 0, len(options)),
		byID:       make(map[string]int, len(options)),
		defaultMin: defaultMinimumQuantity,
	}
	for _, opt := range options {
		if opt.ID == "" {
			return nil, fmt.Errorf("%w: option without id", ErrInvalidCatalog)
		}
		if _, dup := c.byID[opt.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate option id %q", ErrInvalidCatalog, opt.ID)
		}
		if !opt.Category.IsValid() {
			return nil, fmt.Errorf("%w: option %q has unknown category %q", ErrInvalidCatalog, opt.ID, opt.Category)
		}
		if opt.PriceMultiplier <= 0 || opt.MinimumQuantity <= 0 || opt.ProcessingTimeDays < 0 {
			return nil, fmt.Errorf("%w: option %q has out-of-range pricing values", ErrInvalidCatalog, opt.ID)
		}
		c.byID[opt.ID] = len(c.options)
		c.options = append(c.options, opt.clone())
	}
	for _, opt := range c.options {
		for _, other := range opt.IncompatibleWith {
			if _, ok := c.byID[other]; !ok {
				return nil, fmt.Errorf("%w: option %q references unknown option %q", ErrInvalidCatalog, opt.ID, other)
			}
		}
	}
	return c, nil
}

// GetOptionByID looks up an option; ok is false for unknown ids
func (c *OptionCatalog) GetOptionByID(id string) (ProcessingOption, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return ProcessingOption{}, false
	}
	return c.options[idx].clone(), true
}

// GetOptionsByCategory returns the options of one category in catalog order
func (c *OptionCatalog) GetOptionsByCategory(category OptionCategory) []ProcessingOption {
	return c.filter(func(o ProcessingOption) bool { return o.Category == category })
}

// GetOptionsCompatibleWith returns the options that can be applied to bagTypeID
func (c *OptionCatalog) GetOptionsCompatibleWith(bagTypeID string) []ProcessingOption {
	return c.filter(func(o ProcessingOption) bool { return o.IsCompatibleWith(bagTypeID) })
}

// All returns every option in catalog order
func (c *OptionCatalog) All() []ProcessingOption {
	return c.filter(func(ProcessingOption) bool { return true })
}

// Categories returns the categories that have at least one option
func (c *OptionCatalog) Categories() []OptionCategory {
	present := make(map[OptionCategory]bool)
	for _, o := range c.options {
		present[o.Category] = true
	}
	var out []OptionCategory
	for _, cat := range AllCategories() {
		if present[cat] {
			out = append(out, cat)
		}
	}
	return out
}

// DefaultMinimumQuantity is the floor used when no option is selected
func (c *OptionCatalog) DefaultMinimumQuantity() int {
	return c.defaultMin
}

// CheckCompatibility reports selected options that cannot be produced on the
// bag type or that exclude each other. Unknown ids are skipped.
func (c *OptionCatalog) CheckCompatibility(bagTypeID string, optionIDs []string) []CompatibilityIssue {
	ids := uniqueSorted(optionIDs)
	var issues []CompatibilityIssue

	for i, id := range ids {
		opt, ok := c.GetOptionByID(id)
		if !ok {
			continue
		}
		if bagTypeID != "" && !opt.IsCompatibleWith(bagTypeID) {
			issues = append(issues, CompatibilityIssue{
				OptionID:  id,
				BagTypeID: bagTypeID,
				Reason:    fmt.Sprintf("%s is not available for bag type %s", id, bagTypeID),
			})
		}
		for _, other := range ids[i+1:] {
			otherOpt, ok := c.GetOptionByID(other)
			if !ok {
				continue
			}
			if opt.ConflictsWith(other) || otherOpt.ConflictsWith(id) {
				issues = append(issues, CompatibilityIssue{
					OptionID:      id,
					ConflictsWith: other,
					Reason:        fmt.Sprintf("%s cannot be combined with %s", id, other),
				})
			}
		}
	}
	return issues
}

func (c *OptionCatalog) filter(keep func(ProcessingOption) bool) []ProcessingOption {
	out := make([]ProcessingOption, 0)
	for _, o := range c.options {
		if keep(o) {
			out = append(out, o.clone())
		}
	}
	return out
}

func (o ProcessingOption) clone() ProcessingOption {
	o.CompatibleWith = append([]string(nil), o.CompatibleWith...)
	o.IncompatibleWith = append([]string(nil), o.IncompatibleWith...)
	o.Features = append([]string(nil), o.Features...)
	o.Variants = append([]OptionVariant(nil), o.Variants...)
	return o
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
