package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ProcessingImpact is the combined effect of a set of post-processing options
type ProcessingImpact struct {
	Multiplier         float64  `json:"multiplier"`
	ProcessingTimeDays int      `json:"processingTimeDays"`
	MinimumQuantity    int      `json:"minimumQuantity"`
	Features           []string `json:"features"`
	AppliedOptionIDs   []string `json:"appliedOptionIds"`
	IgnoredOptionIDs   []string `json:"ignoredOptionIds,omitempty"`
}

// ZeroImpact is the impact of selecting no options
func (c *OptionCatalog) ZeroImpact() ProcessingImpact {
	return ProcessingImpact{
		Multiplier:       1.0,
		MinimumQuantity:  c.defaultMin,
		Features:         []string{},
		AppliedOptionIDs: []string{},
	}
}

// CalculateImpact folds the selected options into one impact. Unknown ids are
// ignored and duplicates collapse, so the result does not depend on input order.
// The multiplier is accumulated exactly and rounded once to 2 places.
func (c *OptionCatalog) CalculateImpact(optionIDs []string) ProcessingImpact {
	impact := c.ZeroImpact()

	ids := uniqueSorted(optionIDs)
	product := decimal.NewFromInt(1)
	features := make(map[string]bool)
	minQty := 0

	for _, id := range ids {
		opt, ok := c.GetOptionByID(id)
		if !ok {
			impact.IgnoredOptionIDs = append(impact.IgnoredOptionIDs, id)
			continue
		}
		impact.AppliedOptionIDs = append(impact.AppliedOptionIDs, id)
		product = product.Mul(toDecimal(opt.PriceMultiplier))
		if opt.ProcessingTimeDays > impact.ProcessingTimeDays {
			impact.ProcessingTimeDays = opt.ProcessingTimeDays
		}
		if opt.MinimumQuantity > minQty {
			minQty = opt.MinimumQuantity
		}
		for _, f := range opt.Features {
			features[f] = true
		}
	}

	if len(impact.AppliedOptionIDs) == 0 {
		return impact
	}

	impact.Multiplier, _ = product.Round(2).Float64()
	impact.MinimumQuantity = minQty
	for f := range features {
		impact.Features = append(impact.Features, f)
	}
	sort.Strings(impact.Features)
	return impact
}
