package delivery

import "math"

// MaxDiscountPercent is the highest tier's discount.
const MaxDiscountPercent = 20

type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DiscountTier unlocks Percent off for durations of at least MinDuration deliveries.
type DiscountTier struct {
	MinDuration int `json:"min_duration"`
	Percent     int `json:"percent"`
}

// DiscountTiers is ordered from the longest duration down.
var DiscountTiers = []DiscountTier{
	{MinDuration: 90, Percent: 20},
	{MinDuration: 60, Percent: 15},
	{MinDuration: 30, Percent: 10},
}

type PricingInput struct {
	Items    []Item
	Duration int
	Plan     Plan
}

// Pricing amounts are whole currency units.
type Pricing struct {
	DailyPrice      int64 `json:"daily_price"`
	BaseTotal       int64 `json:"base_total"`
	DiscountPercent int   `json:"discount_percent"`
	Savings         int64 `json:"savings"`
	TotalPrice      int64 `json:"total_price"`
}

// DiscountPercent returns the tier discount for a duration.
func DiscountPercent(duration int) int {
	for _, tier := range DiscountTiers {
		if duration >= tier.MinDuration {
			return tier.Percent
		}
	}
	return 0
}

// CalculatePricing prices a subscription. Duration counts deliveries for every
// plan, so the per-delivery item total is multiplied by it and the tier is
// chosen from it. Each amount is rounded to the nearest whole unit on its own.
func CalculatePricing(in PricingInput) (Pricing, error) {
	if !in.Plan.Valid() {
		return Pricing{}, invalid("plan", "unknown plan %q", in.Plan)
	}
	if in.Duration <= 0 {
		return Pricing{}, invalid("duration", "must be positive, got %d", in.Duration)
	}

	var daily float64
	for _, item := range in.Items {
		if math.IsNaN(item.Price) || math.IsInf(item.Price, 0) || item.Price < 0 {
			return Pricing{}, invalid("items", "item %q has an invalid price", item.ID)
		}
		daily += item.Price
	}

	base := daily * float64(in.Duration)
	percent := DiscountPercent(in.Duration)
	savings := base * float64(percent) / 100

	return Pricing{
		DailyPrice:      roundMoney(daily),
		BaseTotal:       roundMoney(base),
		DiscountPercent: percent,
		Savings:         roundMoney(savings),
		TotalPrice:      roundMoney(base - savings),
	}, nil
}

func roundMoney(v float64) int64 {
	r := int64(math.Round(v))
	if r < 0 {
		return 0
	}
	return r
}
