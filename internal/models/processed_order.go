package models

import "time"

// ProcessedOrder records order ids whose completed-order event has already been
// applied to the ledger. The unique index makes re-delivery of the same event a
// detectable no-op.
type ProcessedOrder struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    string    `gorm:"uniqueIndex;size:64;not null" json:"order_id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Points     int64     `gorm:"not null" json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ProcessedOrder) TableName() string { return "processed_orders" }
