package domain

import (
	"fmt"
	"sort"
)

// Recommendation types
const (
	RecommendationCostOptimized   = "cost-optimized"
	RecommendationBalanced        = "balanced"
	RecommendationEfficient       = "efficient"
	RecommendationFastestDelivery = "fastest-delivery"
)

const maxRecommendations = 3

// Recommendation is a suggested quantity with its rationale
type Recommendation struct {
	Type             string   `json:"type"`
	Rank             int      `json:"rank"`
	Quantity         int      `json:"quantity"`
	UnitPrice        float64  `json:"unitPrice"`
	TotalCost        float64  `json:"totalCost"`
	LeadTimeDays     int      `json:"leadTimeDays"`
	Title            string   `json:"title"`
	Reasoning        []string `json:"reasoning"`
	Confidence       float64  `json:"confidence"`
	EstimatedSavings float64  `json:"estimatedSavings"`
}

// BuildRecommendations derives up to three ranked recommendations from the
// priced lines and their comparison. Each quantity is recommended at most once.
func BuildRecommendations(lines []QuoteLineResult, cmp MultiQuantityComparison, currency string) []Recommendation {
	recs := []Recommendation{}
	if len(lines) == 0 {
		return recs
	}

	sorted := SortLines(lines)
	byQty := make(map[int]QuoteLineResult, len(sorted))
	for _, l := range sorted {
		byQty[l.Quantity] = l
	}
	baseline := sorted[0].UnitPrice
	used := make(map[int]bool)

	add := func(kind string, line QuoteLineResult, title string, confidence float64, reasoning ...string) {
		if used[line.Quantity] {
			return
		}
		used[line.Quantity] = true
		recs = append(recs, Recommendation{
			Type:             kind,
			Quantity:         line.Quantity,
			UnitPrice:        line.UnitPrice,
			TotalCost:        line.TotalCost,
			LeadTimeDays:     line.LeadTimeDays,
			Title:            title,
			Reasoning:        reasoning,
			Confidence:       confidence,
			EstimatedSavings: mulMoney(baseline-line.UnitPrice, float64(line.Quantity)),
		})
	}

	best := byQty[cmp.BestValue.Quantity]
	add(RecommendationCostOptimized, best, "Lowest unit price", 0.95,
		fmt.Sprintf("lowest unit price of %.2f %s", best.UnitPrice, currency),
		fmt.Sprintf("saves %.2f %s (%.2f%%) against the smallest quantity", cmp.BestValue.Savings, currency, cmp.BestValue.Percentage),
	)

	// upper median for an even count
	median := sorted[len(sorted)/2]
	add(RecommendationBalanced, median, "Balanced order size", 0.80,
		fmt.Sprintf("median of the requested quantities at %.2f %s per unit", median.UnitPrice, currency),
		fmt.Sprintf("total outlay of %.2f %s limits excess inventory", median.TotalCost, currency),
	)

	if opt, ok := byQty[cmp.Trends.OptimalQuantity]; ok {
		add(RecommendationEfficient, opt, "Efficient quantity", 0.70,
			fmt.Sprintf("smallest quantity priced within 5%% of the best unit price (%.2f %s)", opt.UnitPrice, currency),
			fmt.Sprintf("lead time of %d days", opt.LeadTimeDays),
		)
	}

	if cmp.Mode == ModeLeadTime {
		fastest := sorted[0]
		for _, l := range sorted[1:] {
			if l.LeadTimeDays < fastest.LeadTimeDays {
				fastest = l
			}
		}
		add(RecommendationFastestDelivery, fastest, "Fastest delivery", 0.75,
			fmt.Sprintf("shortest lead time of %d days", fastest.LeadTimeDays),
			fmt.Sprintf("unit price of %.2f %s", fastest.UnitPrice, currency),
		)
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Confidence > recs[j].Confidence })
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}
