package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vidstream-server/internal/models"
	"vidstream-server/internal/service"
)

func (h *UserHandler) register(c *gin.Context) {
	input := service.RegisterInput{
		FullName: c.PostForm("fullName"),
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}
	if input.FullName == "" || input.Email == "" || input.Username == "" || input.Password == "" {
		abortBadRequest(c, "fullName, email, username and password are required")
		return
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		abortBadRequest(c, "Avatar file is required")
		return
	}

	// Uploads run only after the field checks above so malformed requests cost
	// no media-host round-trips. A duplicate username/email is still detected
	// later; objects uploaded for a rejected registration are unreferenced and
	// left to the media host's retention policy.
	input.AvatarURL, err = h.stageAndUpload(c, avatarFile, "avatar")
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if coverFile, err := c.FormFile("coverImage"); err == nil {
		input.CoverURL, err = h.stageAndUpload(c, coverFile, "cover")
		if err != nil {
			handleServiceError(c, err)
			return
		}
	}

	user, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (h *UserHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.identifier() == "" {
		abortBadRequest(c, "Email or username is required")
		return
	}

	user, pair, err := h.authService.Login(c.Request.Context(), req.identifier(), req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	loginsTotal.Inc()
	h.setAuthCookies(c, pair)
	user.PasswordHash = ""
	user.RefreshToken = ""

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *UserHandler) logout(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), user.ID); err != nil {
		handleServiceError(c, err)
		return
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "User logged out"})
}

// refreshToken exchanges a renewal token, taken from the cookie or the request
// body, for a fresh pair.
func (h *UserHandler) refreshToken(c *gin.Context) {
	tokenString, _ := c.Cookie(refreshTokenCookie)
	if tokenString == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			tokenString = req.RefreshToken
		}
	}
	if tokenString == "" {
		tokenVerificationsTotal.WithLabelValues("refresh", "failure").Inc()
		handleServiceError(c, models.ErrUnauthorized)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), tokenString)
	if err != nil {
		tokenVerificationsTotal.WithLabelValues("refresh", "failure").Inc()
		handleServiceError(c, err)
		return
	}

	refreshesTotal.Inc()
	tokenVerificationsTotal.WithLabelValues("refresh", "success").Inc()
	h.setAuthCookies(c, pair)

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *UserHandler) changePassword(c *gin.Context) {
	user, ok := h.mustCurrentUser(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// setAuthCookies writes both tokens as HttpOnly cookies so browser clients
// never touch them from script.
func (h *UserHandler) setAuthCookies(c *gin.Context, pair *models.TokenPair) {
	accessMaxAge := int(time.Until(time.Unix(pair.AccessExpiresAt, 0)).Seconds())
	refreshMaxAge := int(time.Until(time.Unix(pair.RefreshExpiresAt, 0)).Seconds())
	c.SetCookie(accessTokenCookie, pair.AccessToken, accessMaxAge, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, pair.RefreshToken, refreshMaxAge, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
}

func (h *UserHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(accessTokenCookie, "", -1, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
}

// stageAndUpload saves the multipart file into the staging directory, pushes
// it to the media host and returns the public URL. The staged file is removed
// on every path, success or failure.
func (h *UserHandler) stageAndUpload(c *gin.Context, file *multipart.FileHeader, kind string) (string, error) {
	if err := os.MkdirAll(h.cfg.UploadTempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload staging dir: %w", err)
	}

	localPath := filepath.Join(h.cfg.UploadTempDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, localPath); err != nil {
		mediaUploadsTotal.WithLabelValues(kind, "failure").Inc()
		return "", fmt.Errorf("failed to stage uploaded file: %w", err)
	}
	defer func() {
		// Best-effort cleanup; the primary operation has already resolved.
		if err := os.Remove(localPath); err != nil {
			h.logger.Warn("Failed to remove staged upload", zap.Error(err), zap.String("path", localPath))
		}
	}()

	url, err := h.media.Upload(c.Request.Context(), localPath, file.Header.Get("Content-Type"))
	if err != nil {
		mediaUploadsTotal.WithLabelValues(kind, "failure").Inc()
		return "", err
	}

	mediaUploadsTotal.WithLabelValues(kind, "success").Inc()
	return url, nil
}
