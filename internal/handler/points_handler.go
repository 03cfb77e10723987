package handler

import (
	"log"
	"net/http"
	"strings"

	"loyalty/internal/middleware"
	"loyalty/internal/repository"
	"loyalty/internal/ws"

	"github.com/gin-gonic/gin"
)

// PointsHandler exposes the administrative ledger entry points. These go through
// the same ledger operations as the automated flows, so the balance invariants are
// enforced in one place.
type PointsHandler struct {
	ledger *repository.LedgerRepository
	feed   *ws.Hub
}

func NewPointsHandler(ledger *repository.LedgerRepository, feed *ws.Hub) *PointsHandler {
	return &PointsHandler{ledger: ledger, feed: feed}
}

// Adjust applies a manual correction. Subtractions clamp at zero; the response
// reports the requested and the actually-applied amounts so the caller can detect
// a partial application.
// POST /admin/points/adjust  { "customer_id", "amount", "direction", "reason" }
func (h *PointsHandler) Adjust(c *gin.Context) {
	var req struct {
		CustomerID uint   `json:"customer_id" binding:"required"`
		Amount     int64  `json:"amount" binding:"required"`
		Direction  string `json:"direction" binding:"required"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ptx, err := h.ledger.Adjust(req.CustomerID, req.Amount, strings.ToUpper(req.Direction), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	applied := ptx.PointsEarned
	if applied == 0 {
		applied = ptx.PointsSpent
	}
	log.Printf("[ledger] operator %d adjusted customer %d by %d (%s): %s",
		middleware.GetOperatorID(c), req.CustomerID, applied, req.Direction, req.Reason)
	h.feed.Broadcast("points.adjusted", req.CustomerID, ptx)
	c.JSON(http.StatusOK, gin.H{
		"transaction": ptx,
		"requested":   req.Amount,
		"applied":     applied,
	})
}

// Expire removes aged-out points, clamped to the current balance.
// POST /admin/points/expire  { "customer_id", "amount", "description" }
func (h *PointsHandler) Expire(c *gin.Context) {
	var req struct {
		CustomerID  uint   `json:"customer_id" binding:"required"`
		Amount      int64  `json:"amount" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description == "" {
		req.Description = "points expired"
	}
	ptx, err := h.ledger.Expire(req.CustomerID, req.Amount, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	h.feed.Broadcast("points.expired", req.CustomerID, ptx)
	c.JSON(http.StatusOK, gin.H{"transaction": ptx})
}
