package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/services"
	"github.com/herecomesthebride/boutique-api/utils"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps a service error onto the error envelope. Errors
// the services do not classify are reported with fallbackMessage.
func respondServiceError(c *gin.Context, err error, fallbackMessage string) {
	var validationErr *utils.ValidationError
	var uploadErr *services.UploadError

	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, validationErr.Code, validationErr.Message)
	case errors.As(err, &uploadErr):
		respondError(c, http.StatusBadGateway, "UPLOAD_FAILED", uploadErr.Message)
	case services.IsNotFound(err):
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	case services.IsAccessError(err):
		respondError(c, http.StatusForbidden, "ACCESS_DENIED", err.Error())
	case services.IsUnavailableError(err):
		respondError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", err.Error())
	default:
		zap.L().Error(fallbackMessage, zap.String("path", c.FullPath()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallbackMessage)
	}
}
