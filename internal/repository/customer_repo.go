package repository

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"loyalty/internal/domain"
	"loyalty/internal/models"

	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// generateReferralCode returns an 8-character uppercase hex code.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// Create initializes the loyalty record for a customer the directory just created:
// zero balances, floor tier, fresh referral code. Code collisions retry with a new
// code; the unique index is the arbiter.
func (r *CustomerRepository) Create(customerID uint) (*models.Customer, error) {
	if exists, err := r.Exists(customerID); err != nil {
		return nil, err
	} else if exists {
		return nil, gorm.ErrDuplicatedKey
	}
	var floor models.LoyaltyTier
	if err := r.db.Order("tier_level ASC").First(&floor).Error; err != nil {
		return nil, fmt.Errorf("tier table is empty: %w", err)
	}
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		c := &models.Customer{ID: customerID, TierID: floor.ID, ReferralCode: code}
		err = r.db.Create(c).Error
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// A duplicate can be the referral code or the customer id (a racing delivery
		// that slipped past the pre-check). Only the former is worth retrying.
		if exists, eerr := r.Exists(customerID); eerr != nil {
			return nil, eerr
		} else if exists {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	return nil, fmt.Errorf("failed to generate a unique referral code after retries")
}

func (r *CustomerRepository) GetByID(id uint) (*models.Customer, error) {
	var c models.Customer
	err := r.db.Preload("Tier").First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByReferralCode resolves a referral code to its owning customer.
func (r *CustomerRepository) GetByReferralCode(code string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.Where("referral_code = ?", code).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCode
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Customer{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
