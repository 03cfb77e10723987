package service

import (
	"errors"
	"log"
	"math"
	"strconv"

	"loyalty/config"
	"loyalty/internal/domain"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/ws"

	"gorm.io/gorm"
)

// LoyaltyService processes the two inbound events the core consumes: completed
// orders from order management and new signups from the customer directory.
type LoyaltyService struct {
	cfg          *config.LoyaltyConfig
	customerRepo *repository.CustomerRepository
	ledger       *repository.LedgerRepository
	referrals    *ReferralService
	settingRepo  *repository.SettingRepository
	feed         *ws.Hub
}

func NewLoyaltyService(
	cfg *config.LoyaltyConfig,
	customerRepo *repository.CustomerRepository,
	ledger *repository.LedgerRepository,
	referrals *ReferralService,
	settingRepo *repository.SettingRepository,
	feed *ws.Hub,
) *LoyaltyService {
	return &LoyaltyService{
		cfg:          cfg,
		customerRepo: customerRepo,
		ledger:       ledger,
		referrals:    referrals,
		settingRepo:  settingRepo,
		feed:         feed,
	}
}

// OrderResult reports what a completed-order event produced.
type OrderResult struct {
	AlreadyProcessed bool                      `json:"already_processed"`
	PointsAwarded    int64                     `json:"points_awarded"`
	Transaction      *models.PointsTransaction `json:"transaction,omitempty"`
	Referral         *models.Referral          `json:"referral,omitempty"`
}

// HandleOrderCompleted accrues points for the order and, when the customer has a
// pending referral, advances it to completed and disburses both bonuses.
// Re-delivery of the same order id is acknowledged without any effect.
func (s *LoyaltyService) HandleOrderCompleted(orderID string, customerID uint, paidAmount int64) (*OrderResult, error) {
	rate := s.accrualRate()
	points := int64(math.Floor(float64(paidAmount) * rate))

	ptx, already, err := s.ledger.RecordOrderEarn(customerID, points, orderID)
	if err != nil {
		return nil, err
	}
	if already {
		// The accrual is settled, but a crash after the dedup insert could have left
		// a pending referral behind; progression is idempotent, so run it anyway.
		ref, perr := s.referrals.ProgressOnOrder(customerID)
		return &OrderResult{AlreadyProcessed: true, Referral: ref}, perr
	}

	res := &OrderResult{PointsAwarded: points, Transaction: ptx}
	if ptx != nil {
		s.feed.Broadcast("points.earned", customerID, ptx)
	}

	ref, err := s.referrals.ProgressOnOrder(customerID)
	if err != nil {
		// Accrual already landed; surface the referral failure so the caller can retry
		// the disbursement (it is idempotent per side).
		return res, err
	}
	res.Referral = ref
	return res, nil
}

// HandleCustomerCreated initializes the loyalty fields for a new customer and,
// when a referral code was used at signup, opens the referral. Re-delivery of the
// event is acknowledged without touching the customer row or the existing referral.
func (s *LoyaltyService) HandleCustomerCreated(customerID uint, referredByCode string) (*models.Customer, *models.Referral, error) {
	cust, err := s.customerRepo.Create(customerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, err
		}
		if cust, err = s.customerRepo.GetByID(customerID); err != nil {
			return nil, nil, err
		}
		log.Printf("[loyalty] customer %d already initialized", customerID)
	}

	if referredByCode == "" {
		return cust, nil, nil
	}
	ref, err := s.referrals.CreateFromCode(referredByCode, customerID)
	if err != nil {
		return cust, nil, err
	}
	return cust, ref, nil
}

func (s *LoyaltyService) accrualRate() float64 {
	if v, err := s.settingRepo.Get(domain.SettingAccrualRate); err == nil && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return s.cfg.AccrualRate
}
