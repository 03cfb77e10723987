package handler

import (
	"net/http"
	"strconv"

	"loyalty/internal/repository"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerRepo *repository.CustomerRepository
	ledger       *repository.LedgerRepository
}

func NewCustomerHandler(customerRepo *repository.CustomerRepository, ledger *repository.LedgerRepository) *CustomerHandler {
	return &CustomerHandler{customerRepo: customerRepo, ledger: ledger}
}

// GetLoyalty returns the customer's balance, lifetime totals and tier.
// GET /customers/:id/loyalty
func (h *CustomerHandler) GetLoyalty(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	cust, err := h.customerRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer_id":         cust.ID,
		"points_balance":      cust.PointsBalance,
		"total_points_earned": cust.TotalPointsEarned,
		"total_points_spent":  cust.TotalPointsSpent,
		"tier":                cust.Tier,
		"referral_code":       cust.ReferralCode,
	})
}

// GetTransactions returns recent ledger history, newest first.
// GET /customers/:id/transactions
func (h *CustomerHandler) GetTransactions(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := h.ledger.History(id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list, "count": len(list)})
}

func paramUint(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}
