package models

import (
	"strconv"
	"time"
)

// DiscountTier maps an inclusive net-consumption range to a discount rate.
// Max == nil means the tier is open-ended.
type DiscountTier struct {
	Min  float64  `bson:"min" json:"min"`
	Max  *float64 `bson:"max,omitempty" json:"max,omitempty"`
	Rate float64  `bson:"rate" json:"rate"`
}

// RewardsConfig is the single rules document for the rewards engine. It is
// read-mostly; the engine loads it once per request and falls back to
// DefaultRewardsConfig when the stored document is missing or malformed.
// CommissionByDepth keys are upline depths ("1".."3") as strings so the
// document round-trips through BSON.
type RewardsConfig struct {
	Version           string             `bson:"version" json:"version"`
	ActivationNetMin  float64            `bson:"activationNetMin" json:"activationNetMin"`
	DiscountTiers     []DiscountTier     `bson:"discountTiers" json:"discountTiers"`
	CommissionByDepth map[string]float64 `bson:"commissionByDepth" json:"commissionByDepth"`
	GuestReferralRate float64            `bson:"guestReferralRate" json:"guestReferralRate"`
	PayoutDay         int                `bson:"payoutDay" json:"payoutDay"`
	CutRule           string             `bson:"cutRule" json:"cutRule"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DefaultRewardsConfig returns the documented fallback rules.
func DefaultRewardsConfig() *RewardsConfig {
	tier2Max := 8000.0
	tier3Max := 12000.0
	return &RewardsConfig{
		Version:          "v1",
		ActivationNetMin: 2500,
		DiscountTiers: []DiscountTier{
			{Min: 3600, Max: &tier2Max, Rate: 0.30},
			{Min: 8001, Max: &tier3Max, Rate: 0.35},
			{Min: 12001, Max: nil, Rate: 0.40},
		},
		CommissionByDepth: map[string]float64{
			"1": 0.10,
			"2": 0.05,
			"3": 0.03,
		},
		GuestReferralRate: 0.10,
		PayoutDay:         10,
		CutRule:           "hard_cut_no_pass",
	}
}

// DepthRate returns the commission rate for an upline depth, 0 when unset.
func (c *RewardsConfig) DepthRate(depth int) float64 {
	if c.CommissionByDepth == nil {
		return 0
	}
	return c.CommissionByDepth[strconv.Itoa(depth)]
}

// Normalize fills gaps in a partially supplied config with defaults so a
// sparse admin payload never strips rules the engine depends on.
func (c *RewardsConfig) Normalize() {
	def := DefaultRewardsConfig()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.ActivationNetMin <= 0 {
		c.ActivationNetMin = def.ActivationNetMin
	}
	if len(c.DiscountTiers) == 0 {
		c.DiscountTiers = def.DiscountTiers
	}
	if len(c.CommissionByDepth) == 0 {
		c.CommissionByDepth = def.CommissionByDepth
	}
	if c.GuestReferralRate <= 0 {
		c.GuestReferralRate = def.GuestReferralRate
	}
	if c.PayoutDay <= 0 || c.PayoutDay > 28 {
		c.PayoutDay = def.PayoutDay
	}
	if c.CutRule == "" {
		c.CutRule = def.CutRule
	}
}
