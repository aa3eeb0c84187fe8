package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/config"
	"github.com/herecomesthebride/boutique-api/middleware"
	"github.com/herecomesthebride/boutique-api/services"
	"go.uber.org/zap"
)

// GetAdminSession handles GET /api/v1/admin/session - confirms the caller is an
// administrator and returns their Auth0 profile
func GetAdminSession(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	auth0Service := services.NewAuth0Service(config.GetConfig().Auth0Domain)
	userInfo, err := auth0Service.GetUserInfo(c.Request.Context(), accessToken)
	switch {
	case services.IsTokenRejected(err):
		respondError(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Your session has expired, please sign in again")
		return
	case err != nil:
		zap.L().Warn("Failed to fetch admin profile", zap.String("user_id", userID), zap.Error(err))
		respondError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"userId":  userID,
			"email":   userInfo.Email,
			"name":    userInfo.Name,
			"picture": userInfo.Picture,
			"isAdmin": true,
		},
	})
}
