package handler

import (
	"net/http"
	"strconv"

	"loyalty/internal/repository"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsRepo *repository.StatsRepository
	tierRepo  *repository.TierRepository
}

func NewStatsHandler(statsRepo *repository.StatsRepository, tierRepo *repository.TierRepository) *StatsHandler {
	return &StatsHandler{statsRepo: statsRepo, tierRepo: tierRepo}
}

// GET /admin/stats/tiers
func (h *StatsHandler) TierDistribution(c *gin.Context) {
	buckets, err := h.statsRepo.TierDistribution()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": buckets})
}

// GET /admin/stats/referrers?n=10
func (h *StatsHandler) TopReferrers(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("n", "10"))
	ranks, err := h.statsRepo.TopReferrers(n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrers": ranks})
}

// GET /admin/stats/conversion
func (h *StatsHandler) Conversion(c *gin.Context) {
	s, err := h.statsRepo.ReferralConversion()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /admin/stats/totals
func (h *StatsHandler) Totals(c *gin.Context) {
	t, err := h.statsRepo.Totals()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Tiers lists the tier table for UI display.
// GET /tiers
func (h *StatsHandler) Tiers(c *gin.Context) {
	tiers, err := h.tierRepo.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}
