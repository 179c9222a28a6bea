package domain

import (
	"fmt"
	"math"
)

// CalculatorConfig configures the per-quantity price calculator
type CalculatorConfig struct {
	Rates                 RateTable
	TaxRate               float64
	MinimumQuantityPolicy MinimumQuantityPolicy
}

// DefaultCalculatorConfig returns the default rate card, 10% tax and the warn policy
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		Rates:                 DefaultRateTable(),
		TaxRate:               0.10,
		MinimumQuantityPolicy: MinimumQuantityWarn,
	}
}

// PricingContext is everything about a request that does not vary with quantity
type PricingContext struct {
	Spec      PackagingSpecification
	Reference ResolvedReference
	Impact    ProcessingImpact
}

// PriceCalculator prices one specification at one quantity. It is pure and
// safe for concurrent use.
//
// Fixed costs are amortized over the quantity and every step in the model is
// either per-unit, amortized or a non-decreasing discount, so the unit price
// never rises as the quantity grows.
type PriceCalculator struct {
	rates   RateTable
	taxRate float64
	policy  MinimumQuantityPolicy
}

// NewPriceCalculator creates a new price calculator
func NewPriceCalculator(cfg CalculatorConfig) *PriceCalculator {
	if cfg.MinimumQuantityPolicy == "" {
		cfg.MinimumQuantityPolicy = MinimumQuantityWarn
	}
	return &PriceCalculator{
		rates:   cfg.Rates,
		taxRate: cfg.TaxRate,
		policy:  cfg.MinimumQuantityPolicy,
	}
}

// Policy returns the minimum-quantity policy in effect
func (c *PriceCalculator) Policy() MinimumQuantityPolicy {
	return c.policy
}

// TaxRate returns the configured tax rate
func (c *PriceCalculator) TaxRate() float64 {
	return c.taxRate
}

// PriceForQuantity computes the full cost breakdown for one quantity
func (c *PriceCalculator) PriceForQuantity(pc PricingContext, quantity int) (QuoteLineResult, error) {
	if quantity < 1 {
		return QuoteLineResult{}, ErrInvalidQuantity
	}

	minimumMet := quantity >= pc.Impact.MinimumQuantity
	if !minimumMet && c.policy == MinimumQuantityReject {
		return QuoteLineResult{}, &MinimumQuantityViolation{Quantity: quantity, MinimumQuantity: pc.Impact.MinimumQuantity}
	}

	spec := pc.Spec
	r := c.rates
	q := float64(quantity)
	smallLot := quantity < r.SmallLotThreshold
	breakdown := make(map[string]CostItem)

	// Material
	grade := r.thickness(spec.ThicknessSelection)
	areaM2 := (2*spec.Width*spec.Height + spec.Depth*spec.Width) / 1e6
	unitWeightKg := areaM2 * grade.Microns * pc.Reference.Material.Density / 1000
	material := unitWeightKg * pc.Reference.Material.CostPerKg * grade.Multiplier * (1 + r.WasteRate) * q
	breakdown[CostMaterial] = CostItem{
		Amount:      RoundMoney(material),
		Description: fmt.Sprintf("%s film %.0fµm, %.4f kg per unit incl. %.0f%% waste", pc.Reference.Material.ID, grade.Microns, unitWeightKg, r.WasteRate*100),
	}

	// Conversion
	processing := pc.Reference.BagType.ProcessingCostPerUnit * q
	breakdown[CostProcessing] = CostItem{
		Amount:      RoundMoney(processing),
		Description: fmt.Sprintf("%s conversion at %.2f per unit", pc.Reference.BagType.ID, pc.Reference.BagType.ProcessingCostPerUnit),
	}

	// Printing
	printing := c.printingCost(spec, q)
	breakdown[CostPrinting] = CostItem{
		Amount:      RoundMoney(printing),
		Description: fmt.Sprintf("%s printing, %d color(s), %s", spec.PrintingType, colorsOf(spec), sidesLabel(spec.DoubleSided)),
	}

	uv := 0.0
	if spec.IsUVPrinting {
		uv = r.UVFixedCost
		if smallLot {
			uv += r.UVSmallLotFee
		}
		breakdown[CostUVPrinting] = CostItem{Amount: RoundMoney(uv), Description: "UV printing"}
	}

	// Setup
	setup := pc.Reference.BagType.SetupCost
	if smallLot {
		setup *= r.SmallLotSetupFactor
	}
	breakdown[CostSetup] = CostItem{Amount: RoundMoney(setup), Description: "plate and machine setup"}

	surcharge := 0.0
	if smallLot && pc.Reference.BagType.Flat {
		surcharge = r.FlatSmallLotCharge
		breakdown[CostSmallLotSurcharge] = CostItem{
			Amount:      RoundMoney(surcharge),
			Description: fmt.Sprintf("small lot surcharge below %d units", r.SmallLotThreshold),
		}
	}

	subtotal := material + processing + printing + uv + setup + surcharge

	multiplier := pc.Impact.Multiplier
	if !(multiplier > 0) {
		multiplier = 1
	}
	if multiplier != 1 {
		breakdown[CostPostProcessing] = CostItem{
			Amount:      RoundMoney(subtotal * (multiplier - 1)),
			Description: fmt.Sprintf("post-processing multiplier x%.2f", multiplier),
		}
	}
	adjusted := subtotal * multiplier

	if adjusted < r.MinimumOrderTotal {
		breakdown[CostMinimumOrderAdjustment] = CostItem{
			Amount:      RoundMoney(r.MinimumOrderTotal - adjusted),
			Description: fmt.Sprintf("minimum order total %.0f", r.MinimumOrderTotal),
		}
		adjusted = r.MinimumOrderTotal
	}

	discounts := []Discount{}
	goods := adjusted
	if tier := r.volumeDiscount(quantity); tier.Rate > 0 {
		amount := adjusted * tier.Rate
		discounts = append(discounts, Discount{
			Type:        "volume",
			Description: fmt.Sprintf("volume discount for %d+ units", tier.MinQuantity),
			Rate:        tier.Rate,
			Amount:      RoundMoney(amount),
		})
		goods -= amount
	}

	// Delivery is capped so that it never lifts an order past the free threshold.
	delivery := 0.0
	rate, ok := r.Delivery[spec.DeliveryLocation]
	if !ok {
		rate = r.Delivery[DeliveryDomestic]
	}
	if goods < rate.FreeFromGoodsCost {
		shipKg := unitWeightKg * q
		delivery = math.Min(rate.BaseCost+rate.PerKg*shipKg, rate.FreeFromGoodsCost-goods)
	}
	breakdown[CostDelivery] = CostItem{
		Amount:      RoundMoney(delivery),
		Description: deliveryDescription(spec.DeliveryLocation, delivery),
	}

	express := 0.0
	if spec.Urgency == UrgencyExpress {
		express = goods * r.ExpressRate
		breakdown[CostExpress] = CostItem{
			Amount:      RoundMoney(express),
			Description: fmt.Sprintf("express production +%.0f%%", r.ExpressRate*100),
		}
	}

	total := goods + delivery + express
	unitPrice := RoundMoney(math.Max(total/q, r.MinimumUnitPrice))
	totalCost := mulMoney(unitPrice, q)
	taxAmount := mulMoney(totalCost, c.taxRate)

	line := QuoteLineResult{
		Quantity:           quantity,
		UnitPrice:          unitPrice,
		TotalCost:          totalCost,
		LeadTimeDays:       c.leadTime(spec.Urgency, q) + pc.Impact.ProcessingTimeDays,
		Breakdown:          breakdown,
		Discounts:          discounts,
		Taxes:              Taxes{Rate: c.taxRate, Amount: taxAmount},
		TotalWithTax:       RoundMoney(totalCost + taxAmount),
		MinimumQuantity:    pc.Impact.MinimumQuantity,
		MinimumQuantityMet: minimumMet,
	}
	if !minimumMet {
		line.Warnings = append(line.Warnings, fmt.Sprintf("quantity %d is below the minimum order quantity %d for the selected options", quantity, pc.Impact.MinimumQuantity))
	}
	return line, nil
}

func (c *PriceCalculator) printingCost(spec PackagingSpecification, q float64) float64 {
	rate, ok := c.rates.Printing[spec.PrintingType]
	if !ok {
		rate = c.rates.Printing[PrintingDigital]
	}
	sides := 1.0
	if spec.DoubleSided {
		sides = 2
	}
	cost := rate.SetupCost + rate.PerColorPerSideUnit*float64(colorsOf(spec))*sides*q
	return math.Max(cost, rate.MinimumCharge)
}

func (c *PriceCalculator) leadTime(urgency Urgency, q float64) int {
	rule, ok := c.rates.LeadTime[urgency]
	if !ok {
		rule = c.rates.LeadTime[UrgencyStandard]
	}
	days := int(math.Ceil(rule.BaseDays - math.Log(q)*rule.Decay))
	if days < rule.FloorDays {
		days = rule.FloorDays
	}
	return days
}

func colorsOf(spec PackagingSpecification) int {
	if spec.PrintingColors < 1 {
		return 1
	}
	return spec.PrintingColors
}

func sidesLabel(doubleSided bool) string {
	if doubleSided {
		return "double sided"
	}
	return "single sided"
}

func deliveryDescription(loc DeliveryLocation, amount float64) string {
	if amount == 0 {
		return fmt.Sprintf("%s delivery, free", loc)
	}
	return fmt.Sprintf("%s delivery", loc)
}
