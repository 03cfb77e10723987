package handler

import (
	"errors"
	"net/http"

	"loyalty/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondError maps the core's error taxonomy onto HTTP statuses. Anything outside
// the taxonomy is a storage-layer failure and reported as 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingReason),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrSelfReferral):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrRewardNotFound),
		errors.Is(err, domain.ErrReferralNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrRewardInactive),
		errors.Is(err, domain.ErrRewardExpired),
		errors.Is(err, domain.ErrTierTooLow),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidReferralState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
