package services

import "github.com/findingu/multinivel_backend/models"

// DiscountRateFor maps a net consumption amount to a discount rate. Tiers
// are inclusive ranges and the first match wins; no match means no discount.
// Non-overlapping tier boundaries are a configuration contract, not checked
// here.
func DiscountRateFor(amount float64, tiers []models.DiscountTier) float64 {
	for _, tier := range tiers {
		if amount < tier.Min {
			continue
		}
		if tier.Max != nil && amount > *tier.Max {
			continue
		}
		return tier.Rate
	}
	return 0
}
