package domain

import "errors"

// Every failure in the loyalty core is one of these; handlers map them to HTTP
// status codes with errors.Is. None are fatal to the process.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrMissingReason       = errors.New("adjustment reason is required")

	ErrCustomerNotFound = errors.New("customer not found")

	ErrRewardNotFound = errors.New("reward not found")
	ErrRewardInactive = errors.New("reward is not active")
	ErrRewardExpired  = errors.New("reward is outside its validity window")
	ErrTierTooLow     = errors.New("customer tier below reward requirement")
	ErrOutOfStock     = errors.New("reward is out of stock")

	ErrSelfReferral         = errors.New("customers cannot refer themselves")
	ErrInvalidCode          = errors.New("referral code does not match an active customer")
	ErrReferralNotFound     = errors.New("referral not found")
	ErrInvalidReferralState = errors.New("referral is not in a state that allows this transition")

	// ErrConflict is returned when optimistic-concurrency retries are exhausted.
	ErrConflict = errors.New("concurrent update conflict, retry the operation")
)
