package service

import (
	"errors"
	"log"
	"strconv"

	"loyalty/config"
	"loyalty/internal/domain"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/ws"

	"gorm.io/gorm"
)

// ReferralService owns the referral state machine: creation at signup, completion
// on the referred customer's first order, and bonus disbursement.
type ReferralService struct {
	cfg          *config.LoyaltyConfig
	customerRepo *repository.CustomerRepository
	referralRepo *repository.ReferralRepository
	settingRepo  *repository.SettingRepository
	feed         *ws.Hub
}

func NewReferralService(
	cfg *config.LoyaltyConfig,
	customerRepo *repository.CustomerRepository,
	referralRepo *repository.ReferralRepository,
	settingRepo *repository.SettingRepository,
	feed *ws.Hub,
) *ReferralService {
	return &ReferralService{
		cfg:          cfg,
		customerRepo: customerRepo,
		referralRepo: referralRepo,
		settingRepo:  settingRepo,
		feed:         feed,
	}
}

// CreateFromCode opens a PENDING referral for a customer who signed up with
// someone's code. Bonus amounts are frozen from program configuration at this
// moment, not at payout time. When the customer already has a referral (a
// re-delivered signup event), the existing one is returned unchanged.
func (s *ReferralService) CreateFromCode(code string, newCustomerID uint) (*models.Referral, error) {
	owner, err := s.customerRepo.GetByReferralCode(code)
	if err != nil {
		return nil, err
	}
	if owner.ID == newCustomerID {
		return nil, domain.ErrSelfReferral
	}
	ref := &models.Referral{
		ReferrerID:     owner.ID,
		Code:           code,
		ReferredID:     newCustomerID,
		ReferrerPoints: s.bonus(domain.SettingReferrerBonusPoints, s.cfg.ReferrerBonusPoints),
		ReferredPoints: s.bonus(domain.SettingReferredBonusPoints, s.cfg.ReferredBonusPoints),
	}
	if err := s.referralRepo.Create(ref); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("[referral] customer %d already has a referral, acknowledging", newCustomerID)
			return s.referralRepo.GetByReferredID(newCustomerID)
		}
		return nil, err
	}
	return ref, nil
}

// ProgressOnOrder checks whether a completed order satisfies an open referral for
// this customer and, if so, runs the full completed -> rewarded transition.
// Returns nil when the customer has no pending referral.
func (s *ReferralService) ProgressOnOrder(customerID uint) (*models.Referral, error) {
	ref, err := s.referralRepo.GetPendingByReferredID(customerID)
	if err != nil || ref == nil {
		return nil, err
	}
	if err := s.referralRepo.Complete(ref.ID); err != nil {
		return nil, err
	}
	return s.disburse(ref.ID)
}

// ForceComplete is the administrative override: a PENDING referral is advanced to
// COMPLETED without an order event, then disbursed through the same path.
func (s *ReferralService) ForceComplete(referralID uint) (*models.Referral, error) {
	if err := s.referralRepo.Complete(referralID); err != nil {
		return nil, err
	}
	return s.disburse(referralID)
}

// RetryDisbursement re-attempts payout for a referral stuck in COMPLETED after a
// partial failure. Paid sides are skipped.
func (s *ReferralService) RetryDisbursement(referralID uint) (*models.Referral, error) {
	return s.disburse(referralID)
}

func (s *ReferralService) disburse(referralID uint) (*models.Referral, error) {
	ref, err := s.referralRepo.Disburse(referralID)
	if err != nil {
		log.Printf("[referral] disbursement for referral %d incomplete: %v", referralID, err)
		return nil, err
	}
	if ref.Status == domain.ReferralStatusRewarded {
		s.feed.Broadcast("referral.rewarded", ref.ReferredID, ref)
	}
	return ref, nil
}

func (s *ReferralService) bonus(key string, fallback int64) int64 {
	v, err := s.settingRepo.Get(key)
	if err != nil || v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
