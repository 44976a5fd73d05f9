package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

// Error codes used in API error bodies.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

func SendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, types.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func SendValidationError(c *gin.Context, message string) {
	SendError(c, http.StatusBadRequest, ErrCodeValidation, message)
}

func SendNotFound(c *gin.Context, message string) {
	SendError(c, http.StatusNotFound, ErrCodeNotFound, message)
}

func SendUnauthorized(c *gin.Context, message string) {
	SendError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func SendTooManyRequests(c *gin.Context, message string) {
	SendError(c, http.StatusTooManyRequests, ErrCodeRateLimited, message)
}

func SendConflict(c *gin.Context, message string) {
	SendError(c, http.StatusConflict, ErrCodeConflict, message)
}

func SendInternalError(c *gin.Context, message string) {
	SendError(c, http.StatusInternalServerError, ErrCodeInternal, message)
}

func SendSuccess(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, types.SuccessResponse{
		Message: message,
		Data:    data,
	})
}
