package repository

import (
	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

// StatsRepository computes read-only aggregates by scanning existing rows. These
// views are informational and run without transactional isolation.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type TierBucket struct {
	TierID    uint   `json:"tier_id"`
	TierLevel int    `json:"tier_level"`
	Name      string `json:"name"`
	Customers int64  `json:"customers"`
}

func (r *StatsRepository) TierDistribution() ([]TierBucket, error) {
	var buckets []TierBucket
	err := r.db.Model(&models.LoyaltyTier{}).
		Select("loyalty_tiers.id as tier_id, loyalty_tiers.tier_level, loyalty_tiers.name, COUNT(customers.id) as customers").
		Joins("LEFT JOIN customers ON customers.tier_id = loyalty_tiers.id AND customers.deleted_at IS NULL").
		Group("loyalty_tiers.id, loyalty_tiers.tier_level, loyalty_tiers.name").
		Order("loyalty_tiers.tier_level ASC").
		Scan(&buckets).Error
	return buckets, err
}

type ReferrerRank struct {
	ReferrerID uint  `json:"referrer_id"`
	Referrals  int64 `json:"referrals"`
	Rewarded   int64 `json:"rewarded"`
}

func (r *StatsRepository) TopReferrers(n int) ([]ReferrerRank, error) {
	if n <= 0 {
		n = 10
	}
	var ranks []ReferrerRank
	err := r.db.Model(&models.Referral{}).
		Select("referrer_id, COUNT(*) as referrals, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) as rewarded", domain.ReferralStatusRewarded).
		Group("referrer_id").
		Order("referrals DESC").
		Limit(n).
		Scan(&ranks).Error
	return ranks, err
}

type ConversionStats struct {
	Total     int64   `json:"total"`
	Converted int64   `json:"converted"` // completed or rewarded
	Rate      float64 `json:"rate"`
}

func (r *StatsRepository) ReferralConversion() (*ConversionStats, error) {
	var s ConversionStats
	if err := r.db.Model(&models.Referral{}).Count(&s.Total).Error; err != nil {
		return nil, err
	}
	err := r.db.Model(&models.Referral{}).
		Where("status IN ?", []string{domain.ReferralStatusCompleted, domain.ReferralStatusRewarded}).
		Count(&s.Converted).Error
	if err != nil {
		return nil, err
	}
	if s.Total > 0 {
		s.Rate = float64(s.Converted) / float64(s.Total)
	}
	return &s, nil
}

type ProgramTotals struct {
	Customers          int64 `json:"customers"`
	Transactions       int64 `json:"transactions"`
	PointsIssued       int64 `json:"points_issued"`
	PointsSpent        int64 `json:"points_spent"`
	OutstandingBalance int64 `json:"outstanding_balance"`
	Referrals          int64 `json:"referrals"`
	ActiveRewards      int64 `json:"active_rewards"`
}

func (r *StatsRepository) Totals() (*ProgramTotals, error) {
	var t ProgramTotals
	r.db.Model(&models.Customer{}).Count(&t.Customers)
	r.db.Model(&models.PointsTransaction{}).Count(&t.Transactions)

	var issued struct{ Total int64 }
	r.db.Model(&models.PointsTransaction{}).Select("COALESCE(SUM(points_earned), 0) as total").Scan(&issued)
	t.PointsIssued = issued.Total

	var spent struct{ Total int64 }
	r.db.Model(&models.PointsTransaction{}).Select("COALESCE(SUM(points_spent), 0) as total").Scan(&spent)
	t.PointsSpent = spent.Total

	var outstanding struct{ Total int64 }
	r.db.Model(&models.Customer{}).Select("COALESCE(SUM(points_balance), 0) as total").Scan(&outstanding)
	t.OutstandingBalance = outstanding.Total

	r.db.Model(&models.Referral{}).Count(&t.Referrals)
	r.db.Model(&models.LoyaltyReward{}).Where("is_active = ?", true).Count(&t.ActiveRewards)
	return &t, nil
}
