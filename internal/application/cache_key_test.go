package application

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pouchworks/quote-service/internal/domain"
)

func keyFor(t *testing.T, spec domain.PackagingSpecification, quantities []int, mode domain.ComparisonMode, recs bool) string {
	t.Helper()
	key, err := CacheKey(spec, quantities, mode, recs)
	require.NoError(t, err)
	return key
}

func TestCacheKeyFormat(t *testing.T) {
	key := keyFor(t, validDTO().ToDomain(), []int{1000}, domain.ModePrice, true)
	assert.Regexp(t, regexp.MustCompile(`^quote:[0-9a-f]{16}$`), key)
}

func TestCacheKeyCanonicalization(t *testing.T) {
	a := validDTO().ToDomain()
	a.PostProcessingOptionIDs = []string{"zipper-yes", "glossy"}

	b := validDTO().ToDomain()
	b.PostProcessingOptionIDs = []string{"glossy", "zipper-yes", "glossy"}

	// explicit defaults hash the same as omitted ones
	c := a
	c.PrintingType = domain.PrintingDigital
	c.PrintingColors = 1
	c.DeliveryLocation = domain.DeliveryDomestic
	c.Urgency = domain.UrgencyStandard

	base := keyFor(t, a, []int{500, 1000, 5000}, domain.ModePrice, true)
	assert.Equal(t, base, keyFor(t, b, []int{5000, 500, 1000, 1000}, domain.ModePrice, true))
	assert.Equal(t, base, keyFor(t, c, []int{1000, 5000, 500}, domain.ModePrice, true))
}

func TestCacheKeyDistinguishesInputs(t *testing.T) {
	spec := validDTO().ToDomain()
	base := keyFor(t, spec, []int{500, 1000}, domain.ModePrice, true)

	wider := spec
	wider.Width = 121
	express := spec
	express.Urgency = domain.UrgencyExpress

	others := []string{
		keyFor(t, spec, []int{500, 1001}, domain.ModePrice, true),
		keyFor(t, spec, []int{500, 1000}, domain.ModeLeadTime, true),
		keyFor(t, spec, []int{500, 1000}, domain.ModePrice, false),
		keyFor(t, wider, []int{500, 1000}, domain.ModePrice, true),
		keyFor(t, express, []int{500, 1000}, domain.ModePrice, true),
	}
	for _, k := range others {
		assert.NotEqual(t, base, k)
	}
}
