package domain

// Transaction kinds on the points ledger.
const (
	TxKindEarned     = "EARNED"
	TxKindSpent      = "SPENT"
	TxKindExpired    = "EXPIRED"
	TxKindAdjustment = "ADJUSTMENT"
)

// What a ledger transaction points back to.
const (
	RefTypeOrder      = "ORDER"
	RefTypeRedemption = "REDEMPTION"
	RefTypeReferral   = "REFERRAL"
	RefTypeManual     = "MANUAL"
)

// Referral lifecycle. Transitions are strictly forward:
// PENDING -> COMPLETED -> REWARDED.
const (
	ReferralStatusPending   = "PENDING"
	ReferralStatusCompleted = "COMPLETED"
	ReferralStatusRewarded  = "REWARDED"
)

const (
	RewardKindDiscount = "DISCOUNT"
	RewardKindProduct  = "PRODUCT"
	RewardKindService  = "SERVICE"
	RewardKindCashback = "CASHBACK"
)

const (
	AdjustDirectionAdd      = "ADD"
	AdjustDirectionSubtract = "SUBTRACT"
)

const (
	RoleAdmin   = "ADMIN"
	RoleSupport = "SUPPORT"
)

// Qualifying-points basis for tier resolution.
const (
	BasisLifetime = "lifetime"
	BasisBalance  = "balance"
)

// system_settings keys that override LoyaltyConfig defaults.
const (
	SettingAccrualRate         = "accrual_rate"
	SettingReferrerBonusPoints = "referrer_bonus_points"
	SettingReferredBonusPoints = "referred_bonus_points"
)

func ValidRewardKind(k string) bool {
	switch k {
	case RewardKindDiscount, RewardKindProduct, RewardKindService, RewardKindCashback:
		return true
	}
	return false
}
