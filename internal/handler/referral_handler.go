package handler

import (
	"net/http"
	"strconv"
	"strings"

	"loyalty/internal/repository"
	"loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralRepo *repository.ReferralRepository
	referralSvc  *service.ReferralService
}

func NewReferralHandler(referralRepo *repository.ReferralRepository, referralSvc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralRepo: referralRepo, referralSvc: referralSvc}
}

// List returns referrals, optionally filtered by status.
// GET /admin/referrals?status=PENDING
func (h *ReferralHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := h.referralRepo.List(strings.ToUpper(c.Query("status")), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": list, "count": len(list)})
}

// MarkCompleted is the manual override: advances a PENDING referral to COMPLETED
// without an order event and disburses through the normal path.
// POST /admin/referrals/:id/complete
func (h *ReferralHandler) MarkCompleted(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	ref, err := h.referralSvc.ForceComplete(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral": ref})
}

// RetryDisbursement re-attempts payout for a referral stuck in COMPLETED.
// POST /admin/referrals/:id/disburse
func (h *ReferralHandler) RetryDisbursement(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	ref, err := h.referralSvc.RetryDisbursement(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referral": ref})
}
