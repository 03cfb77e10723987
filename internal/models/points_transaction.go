package models

import "time"

// PointsTransaction is one row of the append-only points ledger. Exactly one of
// PointsEarned/PointsSpent is non-zero, per Kind. Rows are only ever created by the
// ledger repository, never updated or deleted; there is deliberately no UpdatedAt
// and no soft delete.
type PointsTransaction struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CustomerID   uint   `gorm:"not null;index" json:"customer_id"`
	PointsEarned int64  `gorm:"not null;default:0" json:"points_earned"`
	PointsSpent  int64  `gorm:"not null;default:0" json:"points_spent"`
	Kind         string `gorm:"size:20;not null;index" json:"kind"` // EARNED, SPENT, EXPIRED, ADJUSTMENT
	RefType      string `gorm:"size:20;not null;index" json:"reference_type"`
	RefID        string `gorm:"size:64;index" json:"reference_id"` // order id, reward id, referral id, or a uuid for manual ops
	Description  string `gorm:"size:255" json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

func (PointsTransaction) TableName() string { return "points_transactions" }
