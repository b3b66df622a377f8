package payments

// loyaltyTiers is ordered from the highest threshold down.
var loyaltyTiers = []struct {
	minPoints int64
	percent   int64
}{
	{minPoints: 10_000, percent: 20},
	{minPoints: 5_000, percent: 15},
	{minPoints: 1_000, percent: 10},
	{minPoints: 1, percent: 5},
}

// CalculateLoyaltyDiscount returns the discount, in minor units, earned by
// points on baseAmount. The result never exceeds the configured cap.
func (p *Processor) CalculateLoyaltyDiscount(points, baseAmount int64) (int64, error) {
	if baseAmount < 0 {
		return 0, ErrNegativeBaseAmount
	}

	var percent int64
	for _, tier := range loyaltyTiers {
		if points >= tier.minPoints {
			percent = tier.percent
			break
		}
	}

	// split to keep large base amounts from overflowing
	discount := baseAmount/100*percent + baseAmount%100*percent/100
	return min(discount, p.rules.MaxLoyaltyDiscount), nil
}
