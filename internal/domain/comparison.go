package domain

import (
	"math"
	"sort"
	"strings"
)

// ComparisonMode selects the key used to rank quantities
type ComparisonMode string

const (
	ModePrice    ComparisonMode = "price"
	ModeLeadTime ComparisonMode = "leadTime"
)

// ParseComparisonMode maps a request hint to a mode. Unknown values fall back
// to price comparison.
func ParseComparisonMode(s string) ComparisonMode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeLeadTime)) {
		return ModeLeadTime
	}
	return ModePrice
}

// PriceTrend classifies how unit price moves across the requested quantities
type PriceTrend string

const (
	TrendIncreasing PriceTrend = "increasing"
	TrendDecreasing PriceTrend = "decreasing"
	TrendFlat       PriceTrend = "flat"
)

// Lot tiers used to label price breaks
const (
	TierSmallLot    = "small-lot"
	TierStandardLot = "standard-lot"
	TierMediumLot   = "medium-lot"
	TierLargeLot    = "large-lot"
)

// BestValue is the quantity with the lowest unit price
type BestValue struct {
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalCost  float64 `json:"totalCost"`
	Savings    float64 `json:"savings"`
	Percentage float64 `json:"percentage"`
}

// PriceBreak is the effective discount at one quantity relative to the smallest
type PriceBreak struct {
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	DiscountRate    float64 `json:"discountRate"`
	DiscountPercent float64 `json:"discountPercent"`
	Tier            string  `json:"tier"`
	IsBreak         bool    `json:"isBreak"`
}

// ScalePoint is one point of the economies-of-scale curve
type ScalePoint struct {
	UnitPrice    float64 `json:"unitPrice"`
	TotalSavings float64 `json:"totalSavings"`
	Efficiency   float64 `json:"efficiency"`
}

// Trends summarizes the shape of the price curve
type Trends struct {
	PriceTrend         PriceTrend `json:"priceTrend"`
	OptimalQuantity    int        `json:"optimalQuantity"`
	DiminishingReturns int        `json:"diminishingReturns"`
}

// MultiQuantityComparison is the comparison across all requested quantities
type MultiQuantityComparison struct {
	Mode             ComparisonMode     `json:"mode"`
	BestValue        BestValue          `json:"bestValue"`
	PriceBreaks      []PriceBreak       `json:"priceBreaks"`
	EconomiesOfScale map[int]ScalePoint `json:"economiesOfScale"`
	Trends           Trends             `json:"trends"`
	Ranking          []int              `json:"ranking"`
}

// ComparisonConfig holds the tolerances used to classify the price curve
type ComparisonConfig struct {
	// DiminishingReturnsEpsilon is the relative unit-price improvement between
	// consecutive quantities below which further increases are negligible.
	DiminishingReturnsEpsilon float64
	FlatTolerance             float64
	OptimalTolerance          float64
	BreakThreshold            float64
	EfficiencyReference       float64
}

// DefaultComparisonConfig returns 5% tolerances and a one-million-unit efficiency reference
func DefaultComparisonConfig() ComparisonConfig {
	return ComparisonConfig{
		DiminishingReturnsEpsilon: 0.05,
		FlatTolerance:             0.05,
		OptimalTolerance:          0.05,
		BreakThreshold:            0.05,
		EfficiencyReference:       1_000_000,
	}
}

// SortLines returns the lines ordered by ascending quantity
func SortLines(lines []QuoteLineResult) []QuoteLineResult {
	sorted := append([]QuoteLineResult(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Quantity < sorted[j].Quantity })
	return sorted
}

// CompareQuantities assembles the comparison for a set of priced lines. The
// lines need not be sorted. An empty input yields an empty comparison.
func CompareQuantities(lines []QuoteLineResult, mode ComparisonMode, cfg ComparisonConfig) MultiQuantityComparison {
	cmp := MultiQuantityComparison{
		Mode:             mode,
		PriceBreaks:      []PriceBreak{},
		EconomiesOfScale: map[int]ScalePoint{},
		Trends:           Trends{PriceTrend: TrendFlat},
		Ranking:          []int{},
	}
	if len(lines) == 0 {
		return cmp
	}

	sorted := SortLines(lines)
	baseline := sorted[0].UnitPrice

	best := sorted[0]
	for _, l := range sorted[1:] {
		if l.UnitPrice < best.UnitPrice {
			best = l
		}
	}
	cmp.BestValue = BestValue{
		Quantity:   best.Quantity,
		UnitPrice:  best.UnitPrice,
		TotalCost:  best.TotalCost,
		Savings:    mulMoney(baseline-best.UnitPrice, float64(best.Quantity)),
		Percentage: percentOf(baseline-best.UnitPrice, baseline),
	}

	for i, l := range sorted {
		pb := PriceBreak{
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Tier:      LotTier(l.Quantity),
		}
		if baseline > 0 {
			pb.DiscountRate = round((baseline-l.UnitPrice)/baseline, 4)
			pb.DiscountPercent = percentOf(baseline-l.UnitPrice, baseline)
		}
		if i > 0 {
			prev := sorted[i-1].UnitPrice
			pb.IsBreak = prev > 0 && (prev-l.UnitPrice)/prev >= cfg.BreakThreshold
		}
		cmp.PriceBreaks = append(cmp.PriceBreaks, pb)

		cmp.EconomiesOfScale[l.Quantity] = ScalePoint{
			UnitPrice:    l.UnitPrice,
			TotalSavings: mulMoney(baseline-l.UnitPrice, float64(l.Quantity)),
			Efficiency:   efficiency(l.Quantity, cfg.EfficiencyReference),
		}
	}

	cmp.Trends = Trends{
		PriceTrend:         classifyTrend(sorted[0].UnitPrice, sorted[len(sorted)-1].UnitPrice, cfg.FlatTolerance),
		OptimalQuantity:    optimalQuantity(sorted, best.UnitPrice, cfg.OptimalTolerance),
		DiminishingReturns: diminishingReturns(sorted, cfg.DiminishingReturnsEpsilon),
	}
	cmp.Ranking = rank(sorted, mode)
	return cmp
}

// LotTier labels a quantity with its production lot class
func LotTier(quantity int) string {
	switch {
	case quantity >= 50000:
		return TierLargeLot
	case quantity >= 10000:
		return TierMediumLot
	case quantity >= 5000:
		return TierStandardLot
	default:
		return TierSmallLot
	}
}

func efficiency(quantity int, reference float64) float64 {
	if quantity <= 1 || reference <= 1 {
		return 0
	}
	e := math.Log(float64(quantity)) / math.Log(reference)
	return round(math.Min(1, math.Max(0, e)), 4)
}

func classifyTrend(first, last, tolerance float64) PriceTrend {
	switch {
	case last < first*(1-tolerance):
		return TrendDecreasing
	case last > first*(1+tolerance):
		return TrendIncreasing
	default:
		return TrendFlat
	}
}

// optimalQuantity is the smallest quantity priced within tolerance of the best
func optimalQuantity(sorted []QuoteLineResult, bestPrice, tolerance float64) int {
	limit := bestPrice * (1 + tolerance)
	for _, l := range sorted {
		if l.UnitPrice <= limit {
			return l.Quantity
		}
	}
	return sorted[len(sorted)-1].Quantity
}

// diminishingReturns is the last quantity before the relative improvement to
// the next requested quantity drops below epsilon, or 0 if it never does.
func diminishingReturns(sorted []QuoteLineResult, epsilon float64) int {
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].UnitPrice
		if prev <= 0 {
			continue
		}
		if (prev-sorted[i].UnitPrice)/prev < epsilon {
			return sorted[i-1].Quantity
		}
	}
	return 0
}

func rank(sorted []QuoteLineResult, mode ComparisonMode) []int {
	ordered := append([]QuoteLineResult(nil), sorted...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if mode == ModeLeadTime && a.LeadTimeDays != b.LeadTimeDays {
			return a.LeadTimeDays < b.LeadTimeDays
		}
		if a.UnitPrice != b.UnitPrice {
			return a.UnitPrice < b.UnitPrice
		}
		return a.Quantity < b.Quantity
	})
	out := make([]int, len(ordered))
	for i, l := range ordered {
		out[i] = l.Quantity
	}
	return out
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return round(part/whole*100, 2)
}
