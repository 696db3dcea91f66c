package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vidstream-server/internal/config"
	"vidstream-server/internal/repository"
	"vidstream-server/internal/service"
	"vidstream-server/internal/storage"
	"vidstream-server/internal/token"
)

// UserHandler exposes the account API: registration, session lifecycle,
// profile operations, channel aggregates and watch history.
type UserHandler struct {
	authService    service.AuthService
	profileService service.ProfileService
	userRepo       repository.UserRepository
	tokens         *token.Manager
	media          storage.MediaStore
	cfg            *config.Config
	logger         *zap.Logger
}

func NewUserHandler(
	authService service.AuthService,
	profileService service.ProfileService,
	userRepo repository.UserRepository,
	tokens *token.Manager,
	media storage.MediaStore,
	cfg *config.Config,
	logger *zap.Logger,
) *UserHandler {
	return &UserHandler{
		authService:    authService,
		profileService: profileService,
		userRepo:       userRepo,
		tokens:         tokens,
		media:          media,
		cfg:            cfg,
		logger:         logger.Named("UserHandler"),
	}
}

// RegisterRoutes wires the account API. rateLimit guards the unauthenticated
// credential endpoints against brute force; protected routes rely on the gate
// instead.
func (h *UserHandler) RegisterRoutes(router *gin.Engine, rateLimit gin.HandlerFunc) {
	users := router.Group("/api/v1/users")
	{
		users.POST("/register", rateLimit, h.register)
		users.POST("/login", rateLimit, h.login)
		users.POST("/logout", h.AuthMiddleware(), h.logout)
		users.POST("/refresh-token", rateLimit, h.refreshToken)
		users.PATCH("/change-password", h.AuthMiddleware(), h.changePassword)

		users.GET("/current-user", h.AuthMiddleware(), h.getCurrentUser)
		users.PATCH("/update-account", h.AuthMiddleware(), h.updateAccount)
		users.PATCH("/avatar", h.AuthMiddleware(), h.updateAvatar)
		users.PATCH("/cover-image", h.AuthMiddleware(), h.updateCoverImage)

		users.GET("/c/:username", h.AuthMiddleware(), h.getChannelProfile)
		users.POST("/c/:username/subscribe", h.AuthMiddleware(), h.toggleSubscription)

		users.GET("/watch-history", h.AuthMiddleware(), h.getWatchHistory)
		users.POST("/watch-history", h.AuthMiddleware(), h.recordWatchEvent)
	}
}
