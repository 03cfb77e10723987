package repository

import (
	"errors"
	"fmt"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errStaleCustomer signals that the customer row's version changed between read and
// write; the enclosing retry loop re-runs the whole unit of work.
var errStaleCustomer = errors.New("customer row changed concurrently")

// LedgerRepository is the only writer of points_transactions rows and of the four
// loyalty fields on customers. Every operation runs as one database transaction:
// the log insert and the balance update either both land or neither does. The
// balance write carries an optimistic version check so two concurrent spends cannot
// both pass the balance check.
type LedgerRepository struct {
	db          *gorm.DB
	basis       string // qualifying-points basis for tier resolution
	maxAttempts int
}

func NewLedgerRepository(db *gorm.DB, basis string, maxAttempts int) *LedgerRepository {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &LedgerRepository{db: db, basis: basis, maxAttempts: maxAttempts}
}

// mutation inspects the loaded customer, applies the balance change in memory and
// returns the ledger row to append. Returning an error aborts the unit of work.
type mutation func(c *models.Customer) (*models.PointsTransaction, error)

func (r *LedgerRepository) RecordEarn(customerID uint, amount int64, refType, refID, description string) (*models.PointsTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return r.applyWithRetry(customerID, r.earnMutation(amount, domain.TxKindEarned, refType, refID, description))
}

func (r *LedgerRepository) RecordSpend(customerID uint, amount int64, refType, refID, description string) (*models.PointsTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return r.applyWithRetry(customerID, r.spendMutation(amount, domain.TxKindSpent, refType, refID, description))
}

// Adjust is the manual-correction entry point. ADD behaves like an earn; SUBTRACT
// clamps so the balance never goes negative, and the transaction records the
// actually-applied delta, not the requested amount.
func (r *LedgerRepository) Adjust(customerID uint, amount int64, direction, reason string) (*models.PointsTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if reason == "" {
		return nil, domain.ErrMissingReason
	}
	refID := uuid.NewString()
	switch direction {
	case domain.AdjustDirectionAdd:
		return r.applyWithRetry(customerID, r.earnMutation(amount, domain.TxKindAdjustment, domain.RefTypeManual, refID, reason))
	case domain.AdjustDirectionSubtract:
		return r.applyWithRetry(customerID, func(c *models.Customer) (*models.PointsTransaction, error) {
			applied := amount
			if applied > c.PointsBalance {
				applied = c.PointsBalance
			}
			c.PointsBalance -= applied
			c.TotalPointsSpent += applied
			return &models.PointsTransaction{
				PointsSpent: applied,
				Kind:        domain.TxKindAdjustment,
				RefType:     domain.RefTypeManual,
				RefID:       refID,
				Description: reason,
			}, nil
		})
	default:
		return nil, fmt.Errorf("unknown adjustment direction %q", direction)
	}
}

// Expire removes points that aged out, clamped to the current balance. Expired
// points count as spent in the lifetime totals.
func (r *LedgerRepository) Expire(customerID uint, amount int64, description string) (*models.PointsTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	refID := uuid.NewString()
	return r.applyWithRetry(customerID, func(c *models.Customer) (*models.PointsTransaction, error) {
		applied := amount
		if applied > c.PointsBalance {
			applied = c.PointsBalance
		}
		c.PointsBalance -= applied
		c.TotalPointsSpent += applied
		return &models.PointsTransaction{
			PointsSpent: applied,
			Kind:        domain.TxKindExpired,
			RefType:     domain.RefTypeManual,
			RefID:       refID,
			Description: description,
		}, nil
	})
}

// errAlreadyProcessed aborts the transaction when the order id was seen before.
var errAlreadyProcessed = errors.New("order already processed")

// RecordOrderEarn books accrual for a completed order. The processed-order marker
// and the earn share one transaction, so a re-delivered OrderCompleted event either
// finds the marker (and changes nothing) or the whole unit applies once. The bool
// result reports whether the order had already been processed.
func (r *LedgerRepository) RecordOrderEarn(customerID uint, points int64, orderID string) (*models.PointsTransaction, bool, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		var out *models.PointsTransaction
		err := r.db.Transaction(func(tx *gorm.DB) error {
			po := &models.ProcessedOrder{OrderID: orderID, CustomerID: customerID, Points: points}
			if err := tx.Create(po).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return errAlreadyProcessed
				}
				return err
			}
			if points <= 0 {
				// Order too small to accrue anything; still marked processed.
				return nil
			}
			ptx, err := r.applyIn(tx, customerID, r.earnMutation(
				points, domain.TxKindEarned, domain.RefTypeOrder, orderID,
				fmt.Sprintf("points for order %s", orderID)))
			if err != nil {
				return err
			}
			out = ptx
			return nil
		})
		if errors.Is(err, errStaleCustomer) {
			continue
		}
		if errors.Is(err, errAlreadyProcessed) {
			return nil, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		return out, false, nil
	}
	return nil, false, domain.ErrConflict
}

// History returns recent ledger rows for a customer, newest first.
func (r *LedgerRepository) History(customerID uint, limit, offset int) ([]models.PointsTransaction, error) {
	var list []models.PointsTransaction
	err := r.db.Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *LedgerRepository) earnMutation(amount int64, kind, refType, refID, description string) mutation {
	return func(c *models.Customer) (*models.PointsTransaction, error) {
		c.PointsBalance += amount
		c.TotalPointsEarned += amount
		return &models.PointsTransaction{
			PointsEarned: amount,
			Kind:         kind,
			RefType:      refType,
			RefID:        refID,
			Description:  description,
		}, nil
	}
}

func (r *LedgerRepository) spendMutation(amount int64, kind, refType, refID, description string) mutation {
	return func(c *models.Customer) (*models.PointsTransaction, error) {
		if amount > c.PointsBalance {
			return nil, domain.ErrInsufficientBalance
		}
		c.PointsBalance -= amount
		c.TotalPointsSpent += amount
		return &models.PointsTransaction{
			PointsSpent: amount,
			Kind:        kind,
			RefType:     refType,
			RefID:       refID,
			Description: description,
		}, nil
	}
}

func (r *LedgerRepository) applyWithRetry(customerID uint, m mutation) (*models.PointsTransaction, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		var out *models.PointsTransaction
		err := r.db.Transaction(func(tx *gorm.DB) error {
			ptx, err := r.applyIn(tx, customerID, m)
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

// applyIn runs one attempt of a ledger mutation inside the caller's transaction.
// Other atomic flows in this package (redemption, referral disbursement) embed it
// so their extra writes share the same transaction.
func (r *LedgerRepository) applyIn(tx *gorm.DB, customerID uint, m mutation) (*models.PointsTransaction, error) {
	var cust models.Customer
	if err := tx.First(&cust, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}

	ptx, err := m(&cust)
	if err != nil {
		return nil, err
	}

	// Re-resolve tier after every balance-affecting write.
	var tiers []models.LoyaltyTier
	if err := tx.Order("tier_level DESC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	qualifying := cust.TotalPointsEarned
	if r.basis == domain.BasisBalance {
		qualifying = cust.PointsBalance
	}
	if tier := models.ResolveTier(tiers, qualifying); tier != nil {
		cust.TierID = tier.ID
	}

	res := tx.Model(&models.Customer{}).
		Where("id = ? AND version = ?", cust.ID, cust.Version).
		Updates(map[string]interface{}{
			"points_balance":      cust.PointsBalance,
			"total_points_earned": cust.TotalPointsEarned,
			"total_points_spent":  cust.TotalPointsSpent,
			"tier_id":             cust.TierID,
			"version":             cust.Version + 1,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errStaleCustomer
	}

	ptx.CustomerID = cust.ID
	if err := tx.Create(ptx).Error; err != nil {
		return nil, err
	}
	return ptx, nil
}
