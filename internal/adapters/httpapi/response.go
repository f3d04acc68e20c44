package httpapi

import (
	"errors"
	"net/http"

	"lot-auction-service/internal/domain/shared"

	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, shared.ErrItemNotFound):
		return http.StatusNotFound, "lot not found"
	case errors.Is(err, shared.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient balance"
	case errors.Is(err, shared.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, shared.ErrLotEnded):
		return http.StatusConflict, "bidding has ended"
	case errors.Is(err, shared.ErrLotStillOpen):
		return http.StatusConflict, "lot is still open"
	case errors.Is(err, shared.ErrActiveLotExists):
		return http.StatusConflict, "another lot was just created"
	case errors.Is(err, shared.ErrInvalidRequest),
		errors.Is(err, shared.ErrUserIDRequired),
		errors.Is(err, shared.ErrScheduleIDRequired),
		errors.Is(err, shared.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid request"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
