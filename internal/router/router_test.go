package router

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/database"
	"loyalty/internal/domain"
	"loyalty/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		JWT: config.JWTConfig{
			AccessSecret: "test-secret",
			AccessExpiry: time.Hour,
			Issuer:       "loyalty-test",
		},
		Webhook: config.WebhookConfig{Secret: "hook-secret"},
		Loyalty: config.LoyaltyConfig{
			AccrualRate:         0.1, // 1 point per 10 currency units
			QualifyingBasis:     domain.BasisLifetime,
			ReferrerBonusPoints: 200,
			ReferredBonusPoints: 100,
			MaxTxRetries:        3,
		},
		Admin: config.AdminConfig{Email: "admin@test.local", Password: "secret123"},
	}
}

func setupEngine(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedTiers(db))
	cfg := testConfig()
	database.SeedAdmin(db, &cfg.Admin)
	return Setup(cfg, db), db, cfg
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(r *gin.Engine, secret, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", sign(secret, body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func httpDo(r *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if payload != nil {
		b, _ := json.Marshal(payload)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, cfg *config.Config) string {
	t.Helper()
	w := httpDo(r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    cfg.Admin.Email,
		"password": cfg.Admin.Password,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestWebhookSignatureRequired(t *testing.T) {
	r, _, _ := setupEngine(t)
	body, _ := json.Marshal(gin.H{"customer_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/customer-created", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReferralEndToEnd(t *testing.T) {
	r, db, cfg := setupEngine(t)

	// Customer A exists without a referral.
	w := postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var a models.Customer
	require.NoError(t, db.First(&a, 1).Error)
	require.NotEmpty(t, a.ReferralCode)

	// Customer B signs up with A's code: referral opens in PENDING.
	w = postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{
		"customer_id":      2,
		"referred_by_code": a.ReferralCode,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ref models.Referral
	require.NoError(t, db.Where("referred_id = ?", 2).First(&ref).Error)
	require.Equal(t, domain.ReferralStatusPending, ref.Status)
	require.Equal(t, int64(200), ref.ReferrerPoints)
	require.Equal(t, int64(100), ref.ReferredPoints)

	// B completes a 1000-unit first order: 100 order points, referral completes
	// and disburses (+200 to A, +100 to B).
	w = postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/order-completed", gin.H{
		"order_id":    "ord-b-1",
		"customer_id": 2,
		"paid_amount": 1000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Where("referred_id = ?", 2).First(&ref).Error)
	require.Equal(t, domain.ReferralStatusRewarded, ref.Status)
	require.True(t, ref.FirstOrderCompleted)

	var b models.Customer
	require.NoError(t, db.First(&b, 2).Error)
	require.Equal(t, int64(200), b.PointsBalance, "B: 100 order points + 100 referral bonus")
	require.NoError(t, db.First(&a, 1).Error)
	require.Equal(t, int64(200), a.PointsBalance, "A: 200 referral bonus")

	// Re-delivering the same order event changes nothing.
	w = postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/order-completed", gin.H{
		"order_id":    "ord-b-1",
		"customer_id": 2,
		"paid_amount": 1000,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&b, 2).Error)
	require.Equal(t, int64(200), b.PointsBalance)
}

func TestCustomerCreatedRedeliveryWithCode(t *testing.T) {
	r, db, cfg := setupEngine(t)

	w := postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var a models.Customer
	require.NoError(t, db.First(&a, 1).Error)

	payload := gin.H{"customer_id": 2, "referred_by_code": a.ReferralCode}
	w = postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", payload)
	require.Equal(t, http.StatusOK, w.Code)

	// The directory re-delivers the exact same event; it must be acknowledged, not
	// rejected, and must not open a second referral.
	w = postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", payload)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&models.Referral{}).Where("referred_id = ?", 2).Count(&count)
	require.Equal(t, int64(1), count)

	var ref models.Referral
	require.NoError(t, db.Where("referred_id = ?", 2).First(&ref).Error)
	require.Equal(t, domain.ReferralStatusPending, ref.Status)
}

func TestCustomerLoyaltyAndRedeemEndpoints(t *testing.T) {
	r, db, cfg := setupEngine(t)

	w := postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/order-completed", gin.H{
		"order_id": "o1", "customer_id": 1, "paid_amount": 5000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = httpDo(r, http.MethodGet, "/api/v1/customers/1/loyalty", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loyalty struct {
		PointsBalance int64 `json:"points_balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loyalty))
	require.Equal(t, int64(500), loyalty.PointsBalance)

	stock := int64(1)
	reward := &models.LoyaltyReward{
		Name: "Voucher", Kind: domain.RewardKindDiscount,
		PointsCost: 300, ValueCents: 1000, MinTierLevel: 1,
		StockQuantity: &stock, IsActive: true,
	}
	require.NoError(t, db.Create(reward).Error)

	w = httpDo(r, http.MethodPost, "/api/v1/customers/1/redeem", "", gin.H{"reward_id": reward.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = httpDo(r, http.MethodPost, "/api/v1/customers/1/redeem", "", gin.H{"reward_id": reward.ID})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httpDo(r, http.MethodGet, "/api/v1/customers/1/transactions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Transactions []models.PointsTransaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Transactions, 2)
}

func TestAdminEndpointsRequireAuth(t *testing.T) {
	r, _, cfg := setupEngine(t)

	w := httpDo(r, http.MethodPost, "/api/v1/admin/points/adjust", "", gin.H{
		"customer_id": 1, "amount": 100, "direction": "ADD", "reason": "test",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	token := login(t, r, cfg)
	postBody := gin.H{"customer_id": 1, "amount": 100, "direction": "ADD", "reason": "goodwill"}

	// Customer does not exist yet.
	w = httpDo(r, http.MethodPost, "/api/v1/admin/points/adjust", token, postBody)
	require.Equal(t, http.StatusNotFound, w.Code)

	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	w = httpDo(r, http.MethodPost, "/api/v1/admin/points/adjust", token, postBody)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAdjustReportsClampedApplication(t *testing.T) {
	r, _, cfg := setupEngine(t)
	token := login(t, r, cfg)

	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/order-completed", gin.H{
		"order_id": "o1", "customer_id": 1, "paid_amount": 3000, // 300 points
	})

	w := httpDo(r, http.MethodPost, "/api/v1/admin/points/adjust", token, gin.H{
		"customer_id": 1, "amount": 500, "direction": "SUBTRACT", "reason": "correction",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Requested int64 `json:"requested"`
		Applied   int64 `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(500), resp.Requested)
	require.Equal(t, int64(300), resp.Applied)
}

func TestManualReferralCompletion(t *testing.T) {
	r, db, cfg := setupEngine(t)
	token := login(t, r, cfg)

	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	var a models.Customer
	require.NoError(t, db.First(&a, 1).Error)
	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{
		"customer_id": 2, "referred_by_code": a.ReferralCode,
	})

	var ref models.Referral
	require.NoError(t, db.Where("referred_id = ?", 2).First(&ref).Error)

	w := httpDo(r, http.MethodPost, fmt.Sprintf("/api/v1/admin/referrals/%d/complete", ref.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&ref, ref.ID).Error)
	require.Equal(t, domain.ReferralStatusRewarded, ref.Status)
	require.NoError(t, db.First(&a, 1).Error)
	require.Equal(t, int64(200), a.PointsBalance)
}

func TestSelfAndInvalidReferralCodes(t *testing.T) {
	r, db, cfg := setupEngine(t)

	// Invalid code: customer row is still created, error is surfaced.
	w := postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{
		"customer_id": 1, "referred_by_code": "DOESNOTX",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var cust models.Customer
	require.NoError(t, db.First(&cust, 1).Error)

	// Self referral: the directory re-delivers with the customer's own code.
	w = postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{
		"customer_id": 1, "referred_by_code": cust.ReferralCode,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.Referral{}).Count(&count)
	require.Zero(t, count)
}

func TestStatsEndpoints(t *testing.T) {
	r, _, cfg := setupEngine(t)
	token := login(t, r, cfg)

	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/order-completed", gin.H{
		"order_id": "o1", "customer_id": 1, "paid_amount": 10000,
	})

	for _, path := range []string{
		"/api/v1/admin/stats/tiers",
		"/api/v1/admin/stats/referrers",
		"/api/v1/admin/stats/conversion",
		"/api/v1/admin/stats/totals",
	} {
		w := httpDo(r, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httpDo(r, http.MethodGet, "/api/v1/tiers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSettingsOverrideAccrualRate(t *testing.T) {
	r, _, cfg := setupEngine(t)
	token := login(t, r, cfg)

	w := httpDo(r, http.MethodPut, "/api/v1/admin/settings", token, gin.H{
		"key": domain.SettingAccrualRate, "value": "1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/customer-created", gin.H{"customer_id": 1})
	postWebhook(r, cfg.Webhook.Secret, "/api/v1/webhooks/order-completed", gin.H{
		"order_id": "o1", "customer_id": 1, "paid_amount": 50,
	})

	w = httpDo(r, http.MethodGet, "/api/v1/customers/1/loyalty", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loyalty struct {
		PointsBalance int64 `json:"points_balance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loyalty))
	require.Equal(t, int64(50), loyalty.PointsBalance, "override of 1 point per unit applies")
}
