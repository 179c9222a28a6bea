package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateImpactZipperAndGlossy(t *testing.T) {
	catalog := loadCatalog(t)

	impact := catalog.CalculateImpact([]string{"zipper-yes", "glossy"})

	assert.Equal(t, 1.19, impact.Multiplier)
	assert.Equal(t, 2, impact.ProcessingTimeDays)
	assert.Equal(t, 1000, impact.MinimumQuantity)
	assert.Equal(t, []string{"glossy", "zipper-yes"}, impact.AppliedOptionIDs)
	assert.Contains(t, impact.Features, "resealable zipper")
	assert.Contains(t, impact.Features, "gloss effect")
}

func TestCalculateImpactZeroDefault(t *testing.T) {
	catalog := loadCatalog(t)

	for name, ids := range map[string][]string{
		"nil":            nil,
		"empty":          {},
		"all unresolved": {"lamination", "foil-stamp"},
	} {
		t.Run(name, func(t *testing.T) {
			impact := catalog.CalculateImpact(ids)
			assert.Equal(t, 1.0, impact.Multiplier)
			assert.Equal(t, 0, impact.ProcessingTimeDays)
			assert.Equal(t, catalog.DefaultMinimumQuantity(), impact.MinimumQuantity)
			assert.Empty(t, impact.Features)
			assert.Empty(t, impact.AppliedOptionIDs)
		})
	}

	impact := catalog.CalculateImpact([]string{"lamination"})
	assert.Equal(t, []string{"lamination"}, impact.IgnoredOptionIDs)
}

func TestCalculateImpactUsesMaxNotSum(t *testing.T) {
	catalog := loadCatalog(t)

	impact := catalog.CalculateImpact([]string{"valve-yes", "zipper-yes", "hang-hole-8mm"})

	assert.Equal(t, 3, impact.ProcessingTimeDays)
	assert.Equal(t, 2000, impact.MinimumQuantity)
	// 1.08 * 1.12 * 1.05 = 1.27008
	assert.Equal(t, 1.27, impact.Multiplier)
}

func TestCalculateImpactFeaturesAreDeduplicated(t *testing.T) {
	catalog := loadCatalog(t)

	impact := catalog.CalculateImpact([]string{"hang-hole-6mm", "hang-hole-8mm"})

	count := 0
	for _, f := range impact.Features {
		if f == "retail display" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCalculateImpactOrderAndDuplicateInvariance(t *testing.T) {
	catalog := loadCatalog(t)
	all := catalog.All()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		var ids []string
		for _, o := range all {
			if rng.Intn(3) == 0 {
				ids = append(ids, o.ID)
			}
		}
		if rng.Intn(2) == 0 {
			ids = append(ids, "lamination")
		}
		reference := catalog.CalculateImpact(ids)

		shuffled := append([]string(nil), ids...)
		shuffled = append(shuffled, ids...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		require.Equal(t, reference, catalog.CalculateImpact(shuffled), "ids %v", ids)

		product := 1.0
		for _, id := range reference.AppliedOptionIDs {
			opt, _ := catalog.GetOptionByID(id)
			product *= opt.PriceMultiplier
		}
		assert.InDelta(t, product, reference.Multiplier, 0.005+1e-9)
	}
}
