package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidstream-server/internal/models"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"

	currentUserKey = "currentUser"
)

// AuthMiddleware is the request gate for protected routes. It extracts the
// access token (cookie takes precedence over the Authorization header),
// verifies it and loads the account it names, so deleted accounts holding
// still-valid tokens are rejected. The sanitized user is attached to the
// request context for downstream handlers.
func (h *UserHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, models.ErrUnauthorized)
			return
		}

		claims, err := h.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			h.logger.Debug("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
			handleServiceError(c, err)
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, models.ErrUserNotFound) {
				h.logger.Warn("Valid access token for non-existent user", zap.String("userID", claims.UserID.String()))
				tokenVerificationsTotal.WithLabelValues("access", "failure").Inc()
				handleServiceError(c, models.ErrUnauthorized)
				return
			}
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("access", "success").Inc()
		user.PasswordHash = ""
		user.RefreshToken = ""
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// extractAccessToken pulls the access token from the request. A cookie-borne
// token wins over the Authorization header when both are present.
func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// mustCurrentUser returns the account attached by AuthMiddleware. A miss means
// the route was wired without the gate, which is a programming error.
func (h *UserHandler) mustCurrentUser(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get(currentUserKey)
	if !exists {
		h.logger.Error("Current user missing from context on protected route", zap.String("path", c.FullPath()))
		handleServiceError(c, models.ErrInternalServer)
		return nil, false
	}
	user, ok := raw.(*models.User)
	if !ok {
		h.logger.Error("Current user in context has unexpected type", zap.String("path", c.FullPath()))
		handleServiceError(c, models.ErrInternalServer)
		return nil, false
	}
	return user, true
}
