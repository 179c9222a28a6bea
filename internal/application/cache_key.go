package application

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/pouchworks/quote-service/internal/domain"
)

// canonicalRequest fixes the field order and normalization of everything that
// affects a comparison result. Option ids are sorted because their order does
// not change pricing; quantities are sorted and unique.
type canonicalRequest struct {
	BagTypeID              string   `json:"b"`
	MaterialID             string   `json:"m"`
	Width                  float64  `json:"w"`
	Height                 float64  `json:"h"`
	Depth                  float64  `json:"d"`
	ThicknessSelection     string   `json:"t"`
	IsUVPrinting           bool     `json:"uv"`
	PrintingType           string   `json:"pt"`
	PrintingColors         int      `json:"pc"`
	DoubleSided            bool     `json:"ds"`
	OptionIDs              []string `json:"o"`
	DeliveryLocation       string   `json:"dl"`
	Urgency                string   `json:"u"`
	Quantities             []int    `json:"q"`
	Mode                   string   `json:"cm"`
	IncludeRecommendations bool     `json:"r"`
}

// CacheKey returns the canonical cache key for a normalized comparison request
func CacheKey(spec domain.PackagingSpecification, quantities []int, mode domain.ComparisonMode, includeRecommendations bool) (string, error) {
	spec = spec.WithDefaults()

	qs := append([]int(nil), quantities...)
	sort.Ints(qs)
	unique := make([]int, 0, len(qs))
	for i, q := range qs {
		if i == 0 || q != qs[i-1] {
			unique = append(unique, q)
		}
	}

	payload, err := json.Marshal(canonicalRequest{
		BagTypeID:              spec.BagTypeID,
		MaterialID:             spec.MaterialID,
		Width:                  spec.Width,
		Height:                 spec.Height,
		Depth:                  spec.Depth,
		ThicknessSelection:     string(spec.ThicknessSelection),
		IsUVPrinting:           spec.IsUVPrinting,
		PrintingType:           string(spec.PrintingType),
		PrintingColors:         spec.PrintingColors,
		DoubleSided:            spec.DoubleSided,
		OptionIDs:              spec.SortedOptionIDs(),
		DeliveryLocation:       string(spec.DeliveryLocation),
		Urgency:                string(spec.Urgency),
		Quantities:             unique,
		Mode:                   string(mode),
		IncludeRecommendations: includeRecommendations,
	})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return fmt.Sprintf("quote:%016x", xxhash.Sum64(payload)), nil
}
