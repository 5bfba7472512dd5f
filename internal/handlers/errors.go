package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hoopthreads/storefront/internal/apperr"
	"github.com/hoopthreads/storefront/internal/payments"
	"github.com/hoopthreads/storefront/internal/stats"
)

// respondError translates domain errors into HTTP responses. Expected
// failures carry their message to the client; anything else is logged and
// answered with a generic 500.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "msg": err.Error()})
	case apperr.IsInsufficientStock(err):
		c.JSON(http.StatusConflict, gin.H{"error": "insufficient_stock", "msg": err.Error()})
	case apperr.IsDuplicateReview(err):
		c.JSON(http.StatusConflict, gin.H{"error": "already_reviewed", "msg": err.Error()})
	case errors.Is(err, payments.ErrNotVerified),
		errors.Is(err, payments.ErrAmountMismatch),
		errors.Is(err, payments.ErrTransactionReused):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment_not_verified", "msg": err.Error()})
	case errors.Is(err, stats.ErrBudgetExhausted):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "stats_budget_exhausted"})
	default:
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
