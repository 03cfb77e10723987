package repository

import (
	"errors"
	"fmt"
	"time"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db     *gorm.DB
	ledger *LedgerRepository
}

func NewReferralRepository(db *gorm.DB, ledger *LedgerRepository) *ReferralRepository {
	return &ReferralRepository{db: db, ledger: ledger}
}

func (r *ReferralRepository) Create(referral *models.Referral) error {
	referral.Status = domain.ReferralStatusPending
	return r.db.Create(referral).Error
}

func (r *ReferralRepository) GetByID(id uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.First(&ref, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReferralNotFound
		}
		return nil, err
	}
	return &ref, nil
}

// GetByReferredID returns the referral naming the customer as referred, in any
// state. A customer can be referred at most once, so this is unique.
func (r *ReferralRepository) GetByReferredID(customerID uint) (*models.Referral, error) {
	var ref models.Referral
	if err := r.db.Where("referred_id = ?", customerID).First(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReferralNotFound
		}
		return nil, err
	}
	return &ref, nil
}

// GetPendingByReferredID returns the open referral naming the customer as referred,
// or nil when there is none.
func (r *ReferralRepository) GetPendingByReferredID(customerID uint) (*models.Referral, error) {
	var ref models.Referral
	err := r.db.Where("referred_id = ? AND status = ?", customerID, domain.ReferralStatusPending).First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

func (r *ReferralRepository) List(status string, limit, offset int) ([]models.Referral, error) {
	q := r.db.Preload("Referrer").Preload("Referred").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Referral
	err := q.Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// Complete advances PENDING -> COMPLETED. The status guard in the WHERE clause is
// what makes the transition forward-only: any other starting state affects zero
// rows and is rejected.
func (r *ReferralRepository) Complete(id uint) error {
	res := r.db.Model(&models.Referral{}).
		Where("id = ? AND status = ?", id, domain.ReferralStatusPending).
		Updates(map[string]interface{}{
			"status":                domain.ReferralStatusCompleted,
			"first_order_completed": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
		return domain.ErrInvalidReferralState
	}
	return nil
}

// Disburse advances COMPLETED -> REWARDED, crediting both sides. Each side's earn
// and its paid flag share one transaction, so a crash or failure between sides
// leaves the referral in COMPLETED with the finished side flagged; re-invoking
// skips paid sides and never double-pays. Called on a REWARDED referral it is a
// no-op.
func (r *ReferralRepository) Disburse(id uint) (*models.Referral, error) {
	ref, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	switch ref.Status {
	case domain.ReferralStatusRewarded:
		return ref, nil
	case domain.ReferralStatusCompleted:
		// proceed
	default:
		return nil, domain.ErrInvalidReferralState
	}

	if !ref.ReferrerPaid {
		desc := fmt.Sprintf("referral bonus for referring customer %d", ref.ReferredID)
		if err := r.paySide(ref.ID, ref.ReferrerID, ref.ReferrerPoints, "referrer_paid", desc); err != nil {
			return nil, err
		}
	}
	if !ref.ReferredPaid {
		desc := fmt.Sprintf("referral signup bonus from customer %d", ref.ReferrerID)
		if err := r.paySide(ref.ID, ref.ReferredID, ref.ReferredPoints, "referred_paid", desc); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	res := r.db.Model(&models.Referral{}).
		Where("id = ? AND status = ? AND referrer_paid = ? AND referred_paid = ?",
			ref.ID, domain.ReferralStatusCompleted, true, true).
		Updates(map[string]interface{}{
			"status":       domain.ReferralStatusRewarded,
			"completed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return r.GetByID(ref.ID)
}

func (r *ReferralRepository) paySide(referralID, customerID uint, amount int64, paidColumn, description string) error {
	for attempt := 0; attempt < r.ledger.maxAttempts; attempt++ {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			// Re-check the flag under the transaction in case a concurrent retry won.
			var ref models.Referral
			if err := tx.First(&ref, referralID).Error; err != nil {
				return err
			}
			if (paidColumn == "referrer_paid" && ref.ReferrerPaid) ||
				(paidColumn == "referred_paid" && ref.ReferredPaid) {
				return nil
			}
			_, err := r.ledger.applyIn(tx, customerID, r.ledger.earnMutation(
				amount, domain.TxKindEarned, domain.RefTypeReferral,
				fmt.Sprintf("%d", referralID), description))
			if err != nil {
				return err
			}
			return tx.Model(&models.Referral{}).
				Where("id = ?", referralID).
				UpdateColumn(paidColumn, true).Error
		})
		if errors.Is(err, errStaleCustomer) {
			continue
		}
		return err
	}
	return domain.ErrConflict
}

// CountByReferrer supports the top-referrer report.
func (r *ReferralRepository) CountByReferrer(referrerID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Referral{}).Where("referrer_id = ?", referrerID).Count(&n).Error
	return n, err
}
