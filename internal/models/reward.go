package models

import (
	"time"

	"gorm.io/gorm"
)

// LoyaltyReward is a catalog entry customers can exchange points for.
type LoyaltyReward struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Name       string  `gorm:"size:128;not null" json:"name"`
	Kind       string  `gorm:"size:20;not null;index" json:"kind"` // DISCOUNT, PRODUCT, SERVICE, CASHBACK
	PointsCost int64   `gorm:"not null" json:"points_cost"`
	ValueCents int64   `gorm:"not null" json:"value_cents"`
	// MinTierLevel gates redemption; 1 means open to everyone.
	MinTierLevel int `gorm:"not null;default:1" json:"min_tier_level"`
	// StockQuantity is nil for unlimited rewards.
	StockQuantity *int64     `json:"stock_quantity"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	Terms         string     `gorm:"size:1024" json:"terms"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (LoyaltyReward) TableName() string { return "loyalty_rewards" }

// AvailableAt reports whether t falls inside the reward's validity window.
func (r *LoyaltyReward) AvailableAt(t time.Time) bool {
	if r.ValidFrom != nil && t.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && t.After(*r.ValidUntil) {
		return false
	}
	return true
}
