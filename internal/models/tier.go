package models

import (
	"time"

	"gorm.io/gorm"
)

// LoyaltyTier is one level of the ordered tier table. TierLevel is 1..N and
// monotonic with MinPoints; a customer's tier is the highest level whose MinPoints
// does not exceed their qualifying points.
type LoyaltyTier struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	TierLevel          int            `gorm:"uniqueIndex;not null" json:"tier_level"`
	Name               string         `gorm:"size:64;not null" json:"name"`
	MinPoints          int64          `gorm:"not null" json:"min_points"`
	DiscountPercentage float64        `gorm:"not null;default:0" json:"discount_percentage"`
	Benefits           []string       `gorm:"serializer:json" json:"benefits"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LoyaltyTier) TableName() string { return "loyalty_tiers" }

// ResolveTier returns the tier the given qualifying points clear. tiers must be
// sorted by TierLevel descending; the first tier whose MinPoints <= qualifying wins,
// which also settles ties on identical thresholds in favor of the higher level.
// When nothing qualifies the lowest tier is the floor: every customer has a tier.
func ResolveTier(tiers []LoyaltyTier, qualifying int64) *LoyaltyTier {
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		if tiers[i].MinPoints <= qualifying {
			return &tiers[i]
		}
	}
	return &tiers[len(tiers)-1]
}
