package repository

import (
	"errors"
	"fmt"
	"time"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

type RewardRepository struct {
	db     *gorm.DB
	ledger *LedgerRepository
}

func NewRewardRepository(db *gorm.DB, ledger *LedgerRepository) *RewardRepository {
	return &RewardRepository{db: db, ledger: ledger}
}

// Redeem exchanges points for a reward. The stock decrement and the ledger spend
// share one transaction, so two redemptions racing for the last unit cannot both
// succeed: the conditional decrement admits exactly one.
func (r *RewardRepository) Redeem(customerID, rewardID uint) (*models.PointsTransaction, error) {
	for attempt := 0; attempt < r.ledger.maxAttempts; attempt++ {
		var out *models.PointsTransaction
		err := r.db.Transaction(func(tx *gorm.DB) error {
			ptx, err := r.redeemIn(tx, customerID, rewardID)
			if err != nil {
				return err
			}
			out = ptx
			return nil
		})
		if errors.Is(err, errStaleCustomer) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, domain.ErrConflict
}

func (r *RewardRepository) redeemIn(tx *gorm.DB, customerID, rewardID uint) (*models.PointsTransaction, error) {
	var reward models.LoyaltyReward
	if err := tx.First(&reward, rewardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRewardNotFound
		}
		return nil, err
	}
	if !reward.IsActive {
		return nil, domain.ErrRewardInactive
	}
	if !reward.AvailableAt(time.Now()) {
		return nil, domain.ErrRewardExpired
	}

	var cust models.Customer
	if err := tx.Preload("Tier").First(&cust, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	// A missing tier row (dangling tier_id) fails closed on gated rewards.
	if reward.MinTierLevel > 1 && (cust.Tier == nil || cust.Tier.TierLevel < reward.MinTierLevel) {
		return nil, domain.ErrTierTooLow
	}
	if reward.StockQuantity != nil && *reward.StockQuantity <= 0 {
		return nil, domain.ErrOutOfStock
	}
	if cust.PointsBalance < reward.PointsCost {
		return nil, domain.ErrInsufficientBalance
	}

	if reward.StockQuantity != nil {
		res := tx.Model(&models.LoyaltyReward{}).
			Where("id = ? AND stock_quantity > 0", reward.ID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - 1"))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrOutOfStock
		}
	}

	return r.ledger.applyIn(tx, customerID, r.ledger.spendMutation(
		reward.PointsCost,
		domain.TxKindSpent,
		domain.RefTypeRedemption,
		fmt.Sprintf("%d", reward.ID),
		fmt.Sprintf("redeemed reward: %s", reward.Name),
	))
}

// --- catalog CRUD ---

func (r *RewardRepository) Create(reward *models.LoyaltyReward) error {
	if reward.PointsCost <= 0 || reward.ValueCents <= 0 {
		return domain.ErrInvalidAmount
	}
	if !domain.ValidRewardKind(reward.Kind) {
		return fmt.Errorf("unknown reward kind %q", reward.Kind)
	}
	return r.db.Create(reward).Error
}

func (r *RewardRepository) Update(reward *models.LoyaltyReward) error {
	if reward.PointsCost <= 0 || reward.ValueCents <= 0 {
		return domain.ErrInvalidAmount
	}
	return r.db.Save(reward).Error
}

func (r *RewardRepository) GetByID(id uint) (*models.LoyaltyReward, error) {
	var reward models.LoyaltyReward
	if err := r.db.First(&reward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRewardNotFound
		}
		return nil, err
	}
	return &reward, nil
}

// List returns catalog entries, optionally filtered by kind. Inactive rewards are
// included so the admin surface can manage them; customer-facing callers filter.
func (r *RewardRepository) List(kind string, activeOnly bool) ([]models.LoyaltyReward, error) {
	q := r.db.Order("points_cost ASC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.LoyaltyReward
	err := q.Find(&list).Error
	return list, err
}

func (r *RewardRepository) ToggleActive(id uint) (*models.LoyaltyReward, error) {
	reward, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	reward.IsActive = !reward.IsActive
	if err := r.db.Model(reward).Update("is_active", reward.IsActive).Error; err != nil {
		return nil, err
	}
	return reward, nil
}

// Delete soft-deletes a catalog entry. Past redemptions are plain ledger rows and
// are unaffected.
func (r *RewardRepository) Delete(id uint) error {
	res := r.db.Delete(&models.LoyaltyReward{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRewardNotFound
	}
	return nil
}
