package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func petFlatReference() ResolvedReference {
	return ResolvedReference{
		Material: MaterialProfile{ID: "PET", CostPerKg: 450, Density: 1.38},
		BagType:  BagTypeProfile{ID: "flat_3_side", ProcessingCostPerUnit: 15, SetupCost: 30000, Flat: true},
	}
}

func standUpReference() ResolvedReference {
	return ResolvedReference{
		Material: MaterialProfile{ID: "opp-alu-foil", CostPerKg: 1200, Density: 2.5, ThicknessRequired: true},
		BagType:  BagTypeProfile{ID: "stand_up", ProcessingCostPerUnit: 18, SetupCost: 40000},
	}
}

func scenarioContext(t *testing.T) PricingContext {
	catalog := loadCatalog(t)
	spec := PackagingSpecification{
		BagTypeID:               "bag-type-1",
		MaterialID:              "material-1",
		Width:                   300,
		Height:                  400,
		Depth:                   100,
		PostProcessingOptionIDs: []string{"lamination"},
	}.WithDefaults()
	return PricingContext{
		Spec:      spec,
		Reference: petFlatReference(),
		Impact:    catalog.CalculateImpact(spec.PostProcessingOptionIDs),
	}
}

func TestPriceForQuantityScenario(t *testing.T) {
	calc := NewPriceCalculator(DefaultCalculatorConfig())
	pc := scenarioContext(t)

	expected := map[int]float64{100: 1600, 500: 320, 1000: 160, 5000: 37.88}
	for qty, unit := range expected {
		line, err := calc.PriceForQuantity(pc, qty)
		require.NoError(t, err)
		assert.InDelta(t, unit, line.UnitPrice, 0.01, "quantity %d", qty)
	}
}

func TestPriceForQuantityBreakdown(t *testing.T) {
	calc := NewPriceCalculator(DefaultCalculatorConfig())
	pc := scenarioContext(t)

	line, err := calc.PriceForQuantity(pc, 1000)
	require.NoError(t, err)

	assert.Equal(t, 1000, line.Quantity)
	assert.Equal(t, 160000.0, line.TotalCost)
	assert.Equal(t, Taxes{Rate: 0.10, Amount: 16000}, line.Taxes)
	assert.Equal(t, 176000.0, line.TotalWithTax)
	assert.Equal(t, 36000.0, line.Breakdown[CostSetup].Amount)
	assert.Equal(t, 30000.0, line.Breakdown[CostSmallLotSurcharge].Amount)
	assert.Equal(t, 15000.0, line.Breakdown[CostPrinting].Amount)
	assert.Contains(t, line.Breakdown, CostMinimumOrderAdjustment)
	assert.NotContains(t, line.Breakdown, CostPostProcessing)
	assert.Equal(t, 0.0, line.Breakdown[CostDelivery].Amount)
	assert.Empty(t, line.Discounts)

	// 21 - ln(1000) = 14.09 -> 15
	assert.Equal(t, 15, line.LeadTimeDays)
}

func TestPriceForQuantityVolumeDiscount(t *testing.T) {
	calc := NewPriceCalculator(DefaultCalculatorConfig())
	pc := scenarioContext(t)

	tests := []struct {
		quantity int
		rate     float64
	}{
		{2999, 0},
		{3000, 0.05},
		{5000, 0.10},
		{10000, 0.15},
		{500000, 0.15},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.quantity), func(t *testing.T) {
			line, err := calc.PriceForQuantity(pc, tt.quantity)
			require.NoError(t, err)
			if tt.rate == 0 {
				assert.Empty(t, line.Discounts)
				return
			}
			require.Len(t, line.Discounts, 1)
			assert.Equal(t, "volume", line.Discounts[0].Type)
			assert.Equal(t, tt.rate, line.Discounts[0].Rate)
		})
	}
}

func TestPriceForQuantityAppliesImpact(t *testing.T) {
	calc := NewPriceCalculator(DefaultCalculatorConfig())
	catalog := loadCatalog(t)
	spec := validSpec()
	spec.MaterialID = "opp-alu-foil"
	spec.ThicknessSelection = ThicknessMedium
	spec = spec.WithDefaults()

	plain := PricingContext{Spec: spec, Reference: standUpReference(), Impact: catalog.CalculateImpact(nil)}
	zipper := PricingContext{Spec: spec, Reference: standUpReference(), Impact: catalog.CalculateImpact([]string{"zipper-yes", "glossy"})}

	base, err := calc.PriceForQuantity(plain, 50000)
	require.NoError(t, err)
	withOptions, err := calc.PriceForQuantity(zipper, 50000)
	require.NoError(t, err)

	assert.Greater(t, withOptions.UnitPrice, base.UnitPrice)
	assert.Contains(t, withOptions.Breakdown, CostPostProcessing)
	assert.Equal(t, base.LeadTimeDays+2, withOptions.LeadTimeDays)
}

func TestPriceForQuantityMinimumQuantityPolicy(t *testing.T) {
	catalog := loadCatalog(t)
	pc := PricingContext{
		Spec:      validSpec().WithDefaults(),
		Reference: standUpReference(),
		Impact:    catalog.CalculateImpact([]string{"zipper-yes"}),
	}

	t.Run("warn prices the line and flags it", func(t *testing.T) {
		calc := NewPriceCalculator(DefaultCalculatorConfig())
		line, err := calc.PriceForQuantity(pc, 500)
		require.NoError(t, err)
		assert.False(t, line.MinimumQuantityMet)
		assert.Equal(t, 1000, line.MinimumQuantity)
		assert.Len(t, line.Warnings, 1)

		line, err = calc.PriceForQuantity(pc, 1000)
		require.NoError(t, err)
		assert.True(t, line.MinimumQuantityMet)
		assert.Empty(t, line.Warnings)
	})

	t.Run("reject fails the line", func(t *testing.T) {
		cfg := DefaultCalculatorConfig()
		cfg.MinimumQuantityPolicy = MinimumQuantityReject
		calc := NewPriceCalculator(cfg)

		_, err := calc.PriceForQuantity(pc, 500)
		var violation *MinimumQuantityViolation
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, 500, violation.Quantity)
		assert.Equal(t, 1000, violation.MinimumQuantity)
	})
}

func TestPriceForQuantityRejectsNonPositive(t *testing.T) {
	calc := NewPriceCalculator(DefaultCalculatorConfig())
	pc := scenarioContext(t)

	for _, q := range []int{0, -10} {
		_, err := calc.PriceForQuantity(pc, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestPriceForQuantityTotalMatchesUnitPrice(t *testing.T) {
	calc := NewPriceCalculator(DefaultCalculatorConfig())
	pc := scenarioContext(t)

	for _, q := range []int{1, 7, 333, 1234, 4999, 77777, 999999} {
		line, err := calc.PriceForQuantity(pc, q)
		require.NoError(t, err)
		assert.InDelta(t, line.UnitPrice*float64(q), line.TotalCost, 0.01, "quantity %d", q)
		assert.GreaterOrEqual(t, line.UnitPrice, 10.0)
		assert.Greater(t, line.LeadTimeDays, 0)
	}
}

func TestPriceForQuantityUnitPriceNeverRises(t *testing.T) {
	catalog := loadCatalog(t)
	calc := NewPriceCalculator(DefaultCalculatorConfig())

	quantities := []int{1, 50, 100, 500, 999, 1000, 2500, 2999, 3000, 3001, 4999, 5000, 7500, 9999, 10000, 25000, 50000, 100000, 250000, 1000000}
	for q := 100; q <= 1_000_000; q = q * 13 / 10 {
		quantities = append(quantities, q)
	}

	variants := map[string]func(*PackagingSpecification){
		"plain":         func(*PackagingSpecification) {},
		"gravure":       func(s *PackagingSpecification) { s.PrintingType = PrintingGravure; s.PrintingColors = 6 },
		"uv double":     func(s *PackagingSpecification) { s.IsUVPrinting = true; s.DoubleSided = true; s.PrintingColors = 4 },
		"international": func(s *PackagingSpecification) { s.DeliveryLocation = DeliveryInternational },
		"express":       func(s *PackagingSpecification) { s.Urgency = UrgencyExpress },
		"large options": func(s *PackagingSpecification) {
			s.Width, s.Height, s.Depth = 600, 900, 200
			s.PostProcessingOptionIDs = []string{"zipper-yes", "valve-yes", "glossy"}
		},
		"international express uv": func(s *PackagingSpecification) {
			s.DeliveryLocation = DeliveryInternational
			s.Urgency = UrgencyExpress
			s.IsUVPrinting = true
			s.Width, s.Height = 80, 100
		},
	}
	references := map[string]ResolvedReference{
		"flat":     petFlatReference(),
		"stand_up": standUpReference(),
	}

	for variant, mutate := range variants {
		for refName, ref := range references {
			t.Run(variant+"/"+refName, func(t *testing.T) {
				spec := validSpec()
				mutate(&spec)
				spec = spec.WithDefaults()
				pc := PricingContext{Spec: spec, Reference: ref, Impact: catalog.CalculateImpact(spec.PostProcessingOptionIDs)}

				lines := make([]QuoteLineResult, 0, len(quantities))
				for _, q := range quantities {
					line, err := calc.PriceForQuantity(pc, q)
					require.NoError(t, err)
					lines = append(lines, line)
				}
				sorted := SortLines(lines)
				for i := 1; i < len(sorted); i++ {
					assert.LessOrEqual(t, sorted[i].UnitPrice, sorted[i-1].UnitPrice,
						"unit price rose from %d to %d", sorted[i-1].Quantity, sorted[i].Quantity)
					assert.LessOrEqual(t, sorted[i].LeadTimeDays, sorted[i-1].LeadTimeDays)
				}
			})
		}
	}
}

func TestParseMinimumQuantityPolicy(t *testing.T) {
	assert.Equal(t, MinimumQuantityReject, ParseMinimumQuantityPolicy("REJECT"))
	assert.Equal(t, MinimumQuantityWarn, ParseMinimumQuantityPolicy("warn"))
	assert.Equal(t, MinimumQuantityWarn, ParseMinimumQuantityPolicy(""))
	assert.Equal(t, MinimumQuantityWarn, ParseMinimumQuantityPolicy("strict"))
}
