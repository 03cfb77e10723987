package repository

import (
	"loyalty/internal/models"

	"gorm.io/gorm"
)

type TierRepository struct {
	db *gorm.DB
}

func NewTierRepository(db *gorm.DB) *TierRepository {
	return &TierRepository{db: db}
}

func (r *TierRepository) List() ([]models.LoyaltyTier, error) {
	var tiers []models.LoyaltyTier
	err := r.db.Order("tier_level ASC").Find(&tiers).Error
	return tiers, err
}
