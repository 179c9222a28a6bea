package domain

// Breakdown keys
const (
	CostMaterial               = "material"
	CostProcessing             = "processing"
	CostPrinting               = "printing"
	CostUVPrinting             = "uvPrinting"
	CostSetup                  = "setup"
	CostSmallLotSurcharge      = "smallLotSurcharge"
	CostPostProcessing         = "postProcessing"
	CostMinimumOrderAdjustment = "minimumOrderAdjustment"
	CostDelivery               = "delivery"
	CostExpress                = "express"
)

// CostItem is one entry of a cost breakdown
type CostItem struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Discount is an applied price reduction
type Discount struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Taxes is the consumption tax on a line
type Taxes struct {
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

// QuoteLineResult is the price of one specification at one quantity
type QuoteLineResult struct {
	Quantity           int                 `json:"quantity"`
	UnitPrice          float64             `json:"unitPrice"`
	TotalCost          float64             `json:"totalCost"`
	LeadTimeDays       int                 `json:"leadTimeDays"`
	Breakdown          map[string]CostItem `json:"breakdown"`
	Discounts          []Discount          `json:"discounts"`
	Taxes              Taxes               `json:"taxes"`
	TotalWithTax       float64             `json:"totalWithTax"`
	MinimumQuantity    int                 `json:"minimumQuantity"`
	MinimumQuantityMet bool                `json:"minimumQuantityMet"`
	Warnings           []string            `json:"warnings,omitempty"`
}
