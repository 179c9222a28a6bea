// Package refdata provides the material and bag-type reference data used to
// price a specification.
package refdata

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pouchworks/quote-service/internal/domain"
)

//go:embed reference_data.yaml
var defaultReferenceYAML []byte

// ErrInvalidReferenceData is returned when the reference document fails validation
var ErrInvalidReferenceData = errors.New("invalid reference data")

type document struct {
	DefaultMaterial string                   `yaml:"defaultMaterial" validate:"required"`
	DefaultBagType  string                   `yaml:"defaultBagType" validate:"required"`
	Materials       []domain.MaterialProfile `yaml:"materials" validate:"required,min=1,dive"`
	BagTypes        []domain.BagTypeProfile  `yaml:"bagTypes" validate:"required,min=1,dive"`
}

// StaticCatalog is an in-memory, read-only reference catalog. Lookups are
// case-insensitive and unknown ids resolve to the default profiles.
type StaticCatalog struct {
	materials       map[string]domain.MaterialProfile
	bagTypes        map[string]domain.BagTypeProfile
	defaultMaterial domain.MaterialProfile
	defaultBagType  domain.BagTypeProfile
}

// Load parses and validates a YAML reference document
func Load(data []byte) (*StaticCatalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReferenceData, err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReferenceData, err)
	}

	c := &StaticCatalog{
		materials: make(map[string]domain.MaterialProfile, len(doc.Materials)),
		bagTypes:  make(map[string]domain.BagTypeProfile, len(doc.BagTypes)),
	}
	for _, m := range doc.Materials {
		key := normalize(m.ID)
		if _, dup := c.materials[key]; dup {
			return nil, fmt.Errorf("%w: duplicate material %q", ErrInvalidReferenceData, m.ID)
		}
		c.materials[key] = m
	}
	for _, b := range doc.BagTypes {
		key := normalize(b.ID)
		if _, dup := c.bagTypes[key]; dup {
			return nil, fmt.Errorf("%w: duplicate bag type %q", ErrInvalidReferenceData, b.ID)
		}
		c.bagTypes[key] = b
	}

	var ok bool
	if c.defaultMaterial, ok = c.materials[normalize(doc.DefaultMaterial)]; !ok {
		return nil, fmt.Errorf("%w: default material %q is not defined", ErrInvalidReferenceData, doc.DefaultMaterial)
	}
	if c.defaultBagType, ok = c.bagTypes[normalize(doc.DefaultBagType)]; !ok {
		return nil, fmt.Errorf("%w: default bag type %q is not defined", ErrInvalidReferenceData, doc.DefaultBagType)
	}
	return c, nil
}

// Default loads the reference data embedded in the binary
func Default() (*StaticCatalog, error) {
	return Load(defaultReferenceYAML)
}

// Material looks up a material profile
func (c *StaticCatalog) Material(id string) (domain.MaterialProfile, bool) {
	m, ok := c.materials[normalize(id)]
	return m, ok
}

// BagType looks up a bag-type profile
func (c *StaticCatalog) BagType(id string) (domain.BagTypeProfile, bool) {
	b, ok := c.bagTypes[normalize(id)]
	return b, ok
}

// BagTypeIDs returns the known bag type ids in lexical order
func (c *StaticCatalog) BagTypeIDs() []string {
	ids := make([]string, 0, len(c.bagTypes))
	for _, b := range c.bagTypes {
		ids = append(ids, b.ID)
	}
	sort.Strings(ids)
	return ids
}

// Resolve implements domain.ReferenceResolver
func (c *StaticCatalog) Resolve(ctx context.Context, materialID, bagTypeID string) (domain.ResolvedReference, error) {
	if err := ctx.Err(); err != nil {
		return domain.ResolvedReference{}, err
	}

	ref := domain.ResolvedReference{}
	var ok bool
	if ref.Material, ok = c.Material(materialID); !ok {
		ref.Material = c.defaultMaterial
		ref.MaterialFallback = true
	}
	if ref.BagType, ok = c.BagType(bagTypeID); !ok {
		ref.BagType = c.defaultBagType
		ref.BagTypeFallback = true
	}
	return ref, nil
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
