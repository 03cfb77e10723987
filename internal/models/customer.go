package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer mirrors the loyalty-relevant subset of the customer directory's record.
// Identity and contact data are owned elsewhere; this service has mutate rights on
// the four loyalty fields only. PointsBalance is a cache of the transaction log and
// must always equal TotalPointsEarned - TotalPointsSpent.
type Customer struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	PointsBalance     int64  `gorm:"not null;default:0" json:"points_balance"`
	TotalPointsEarned int64  `gorm:"not null;default:0" json:"total_points_earned"`
	TotalPointsSpent  int64  `gorm:"not null;default:0" json:"total_points_spent"`
	TierID            uint   `gorm:"not null;index" json:"tier_id"`
	ReferralCode      string `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	// Version guards balance updates against concurrent writers (optimistic locking).
	Version   int64          `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Tier *LoyaltyTier `gorm:"foreignKey:TierID" json:"tier,omitempty"`
}

func (Customer) TableName() string { return "customers" }
