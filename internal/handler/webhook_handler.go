package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"loyalty/config"
	"loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives the two inbound events from the external collaborators:
// completed orders from order management and signups from the customer directory.
// Bodies are HMAC-signed with the shared webhook secret when one is configured.
type WebhookHandler struct {
	cfg     *config.Config
	loyalty *service.LoyaltyService
}

func NewWebhookHandler(cfg *config.Config, loyalty *service.LoyaltyService) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, loyalty: loyalty}
}

// HandleOrderCompleted processes { "order_id", "customer_id", "paid_amount" }.
// POST /webhooks/order-completed
func (h *WebhookHandler) HandleOrderCompleted(c *gin.Context) {
	body, ok := h.readVerified(c)
	if !ok {
		return
	}
	var payload struct {
		OrderID    string `json:"order_id"`
		CustomerID uint   `json:"customer_id"`
		PaidAmount int64  `json:"paid_amount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.OrderID == "" || payload.CustomerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id and customer_id required"})
		return
	}
	res, err := h.loyalty.HandleOrderCompleted(payload.OrderID, payload.CustomerID, payload.PaidAmount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "result": res})
}

// HandleCustomerCreated processes { "customer_id", "referred_by_code"? }.
// POST /webhooks/customer-created
func (h *WebhookHandler) HandleCustomerCreated(c *gin.Context) {
	body, ok := h.readVerified(c)
	if !ok {
		return
	}
	var payload struct {
		CustomerID     uint   `json:"customer_id"`
		ReferredByCode string `json:"referred_by_code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.CustomerID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id required"})
		return
	}
	cust, ref, err := h.loyalty.HandleCustomerCreated(payload.CustomerID, payload.ReferredByCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "customer": cust, "referral": ref})
}

func (h *WebhookHandler) readVerified(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return nil, false
	}
	if h.cfg.Webhook.Secret != "" {
		sig := c.GetHeader("X-Webhook-Signature")
		if !h.verifySignature(body, sig) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return nil, false
		}
	}
	return body, true
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Webhook.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
