package models

import (
	"time"

	"gorm.io/gorm"
)

// Referral tracks one referred signup from code redemption to reward disbursement.
// Status only moves forward: PENDING -> COMPLETED -> REWARDED. The per-side paid
// flags make disbursement retryable without double-paying a side that already
// succeeded.
type Referral struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ReferrerID uint `gorm:"not null;index" json:"referrer_id"`
	// Code is a snapshot of the referrer's code at signup time.
	Code       string `gorm:"size:20;not null;index" json:"code"`
	ReferredID uint   `gorm:"uniqueIndex;not null" json:"referred_id"` // a customer can be referred at most once
	Status     string `gorm:"size:20;not null;index" json:"status"`
	// Bonus amounts are frozen from program configuration at creation time.
	ReferrerPoints      int64 `gorm:"not null" json:"referrer_points"`
	ReferredPoints      int64 `gorm:"not null" json:"referred_points"`
	FirstOrderCompleted bool  `gorm:"not null;default:false" json:"first_order_completed"`
	ReferrerPaid        bool  `gorm:"not null;default:false" json:"referrer_paid"`
	ReferredPaid        bool  `gorm:"not null;default:false" json:"referred_paid"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	CompletedAt         *time.Time     `json:"completed_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	Referrer *Customer `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Referred *Customer `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
