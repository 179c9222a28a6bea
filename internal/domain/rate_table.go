package domain

// ThicknessGrade is the film gauge behind a thickness selection
type ThicknessGrade struct {
	Microns    float64
	Multiplier float64
}

// PrintingRate prices one print process
type PrintingRate struct {
	SetupCost           float64
	PerColorPerSideUnit float64
	MinimumCharge       float64
}

// DeliveryRate prices shipping to one destination class
type DeliveryRate struct {
	BaseCost          float64
	PerKg             float64
	FreeFromGoodsCost float64
}

// LeadTimeRule is the logarithmic lead-time curve for one urgency
type LeadTimeRule struct {
	BaseDays  float64
	Decay     float64
	FloorDays int
}

// VolumeDiscountTier applies Rate to orders of at least MinQuantity units
type VolumeDiscountTier struct {
	MinQuantity int
	Rate        float64
}

// RateTable holds every pricing constant used by the calculator
type RateTable struct {
	Thickness        map[ThicknessSelection]ThicknessGrade
	DefaultThickness ThicknessSelection
	WasteRate        float64

	Printing      map[PrintingType]PrintingRate
	UVFixedCost   float64
	UVSmallLotFee float64

	SmallLotThreshold   int
	SmallLotSetupFactor float64
	FlatSmallLotCharge  float64

	// VolumeDiscounts must be sorted by MinQuantity descending
	VolumeDiscounts []VolumeDiscountTier

	MinimumOrderTotal float64
	MinimumUnitPrice  float64

	Delivery    map[DeliveryLocation]DeliveryRate
	ExpressRate float64
	LeadTime    map[Urgency]LeadTimeRule
}

// DefaultRateTable returns the production rate card
func DefaultRateTable() RateTable {
	return RateTable{
		Thickness: map[ThicknessSelection]ThicknessGrade{
			ThicknessLight:  {Microns: 60, Multiplier: 0.9},
			ThicknessMedium: {Microns: 80, Multiplier: 1.0},
			ThicknessHeavy:  {Microns: 100, Multiplier: 1.1},
			ThicknessUltra:  {Microns: 120, Multiplier: 1.2},
		},
		DefaultThickness: ThicknessMedium,
		WasteRate:        0.05,

		Printing: map[PrintingType]PrintingRate{
			PrintingDigital: {SetupCost: 10000, PerColorPerSideUnit: 5, MinimumCharge: 5000},
			PrintingGravure: {SetupCost: 50000, PerColorPerSideUnit: 2, MinimumCharge: 20000},
		},
		UVFixedCost:   15000,
		UVSmallLotFee: 20000,

		SmallLotThreshold:   3000,
		SmallLotSetupFactor: 1.2,
		FlatSmallLotCharge:  30000,

		VolumeDiscounts: []VolumeDiscountTier{
			{MinQuantity: 10000, Rate: 0.15},
			{MinQuantity: 5000, Rate: 0.10},
			{MinQuantity: 3000, Rate: 0.05},
		},

		MinimumOrderTotal: 160000,
		MinimumUnitPrice:  10,

		Delivery: map[DeliveryLocation]DeliveryRate{
			DeliveryDomestic:      {BaseCost: 1500, PerKg: 150, FreeFromGoodsCost: 50000},
			DeliveryInternational: {BaseCost: 5000, PerKg: 500, FreeFromGoodsCost: 200000},
		},
		ExpressRate: 0.15,
		LeadTime: map[Urgency]LeadTimeRule{
			UrgencyStandard: {BaseDays: 21, Decay: 1.0, FloorDays: 7},
			UrgencyExpress:  {BaseDays: 14, Decay: 1.0, FloorDays: 5},
		},
	}
}

func (r RateTable) thickness(sel ThicknessSelection) ThicknessGrade {
	if g, ok := r.Thickness[sel]; ok {
		return g
	}
	return r.Thickness[r.DefaultThickness]
}

func (r RateTable) volumeDiscount(quantity int) VolumeDiscountTier {
	for _, tier := range r.VolumeDiscounts {
		if quantity >= tier.MinQuantity {
			return tier
		}
	}
	return VolumeDiscountTier{}
}
