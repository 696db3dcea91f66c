package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vidstream-server/internal/models"
	"vidstream-server/internal/repository"
	"vidstream-server/internal/token"
)

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

// authServiceImpl implements the AuthService interface.
type authServiceImpl struct {
	userRepo repository.UserRepository
	tokens   *token.Manager
	pepper   string
	logger   *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(userRepo repository.UserRepository, tokens *token.Manager, pepper string, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
		pepper:   pepper,
		logger:   logger.Named("AuthService"),
	}
}

// Register creates a new account. Username and email are normalized to
// lowercase before the uniqueness checks so "Alice" and "alice" collide.
func (s *authServiceImpl) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.ToLower(strings.TrimSpace(input.Username))
	fullName := strings.TrimSpace(input.FullName)

	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if username == "" || input.Password == "" || fullName == "" {
		s.logger.Warn("Registration attempt with missing required fields", logFields...)
		return nil, fmt.Errorf("fullName, username and password are required: %w", models.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("invalid email format: %w", models.ErrValidation)
	}
	if input.AvatarURL == "" {
		s.logger.Warn("Registration attempt without avatar", logFields...)
		return nil, fmt.Errorf("avatar is required: %w", models.ErrValidation)
	}

	hashedPassword, err := hashPassword(input.Password, s.pepper)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashedPassword,
		AvatarURL:    input.AvatarURL,
		CoverURL:     input.CoverURL,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		// Duplicate username/email is already mapped to sentinel errors by the
		// repository; anything else is unexpected.
		if !errors.Is(err, models.ErrUserAlreadyExists) && !errors.Is(err, models.ErrEmailAlreadyExists) {
			s.logger.Error("Failed to create user via repository", append(logFields, zap.Error(err))...)
		}
		return nil, err
	}

	s.logger.Info("User registered successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates by email-or-username and issues a fresh token pair.
// The new refresh token overwrites any previously stored one, so earlier
// sessions lose their ability to renew.
func (s *authServiceImpl) Login(ctx context.Context, identifier, password string) (*models.User, *models.TokenPair, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	s.logger.Info("Login attempt", zap.String("identifier", identifier))

	if identifier == "" || password == "" {
		return nil, nil, fmt.Errorf("identifier and password are required: %w", models.ErrValidation)
	}

	user, err := s.userRepo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("identifier", identifier))
			return nil, nil, models.ErrUserNotFound
		}
		s.logger.Error("Login failed: error getting user from repository", zap.Error(err), zap.String("identifier", identifier))
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !checkPasswordHash(password, user.PasswordHash, s.pepper) {
		s.logger.Warn("Login failed: invalid password", zap.String("identifier", identifier), zap.String("userID", user.ID.String()))
		return nil, nil, models.ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("Failed to create tokens during login", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, nil, err
	}

	s.logger.Info("User logged in successfully", zap.String("userID", user.ID.String()))
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// stored token. A token that verifies but no longer matches the stored value
// was superseded by a later renewal (or stolen) and is rejected as reused.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	s.logger.Info("Token refresh attempt")

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh attempt with invalid token", zap.Error(err))
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Refresh token references unknown user", zap.String("userID", claims.UserID.String()))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error loading user during refresh", zap.Error(err), zap.String("userID", claims.UserID.String()))
		return nil, fmt.Errorf("failed to get user for refresh: %w", err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		s.logger.Warn("Refresh attempt with superseded or revoked token", zap.String("userID", user.ID.String()))
		return nil, models.ErrTokenReused
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		s.logger.Error("Failed to rotate tokens during refresh", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, err
	}

	s.logger.Info("Token refreshed successfully", zap.String("userID", user.ID.String()))
	return pair, nil
}

// Logout clears the stored refresh token. Safe to call repeatedly: clearing
// an already empty column is a no-op.
func (s *authServiceImpl) Logout(ctx context.Context, userID uuid.UUID) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Debug("Attempting to logout user by clearing refresh token")

	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Account deleted while holding a live access token; nothing to clear.
			log.Warn("Logout for non-existent user")
			return nil
		}
		log.Error("Failed to clear refresh token during logout", zap.Error(err))
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	log.Info("User logged out successfully")
	return nil
}

// ChangePassword verifies the old password, stores the new hash and clears
// the stored refresh token so sessions on other devices cannot renew after
// the change.
func (s *authServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	log := s.logger.With(zap.String("userID", userID.String()))
	log.Info("Attempting to change user password")

	if newPassword == "" {
		return fmt.Errorf("new password is required: %w", models.ErrValidation)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("Attempted password change for non-existent user")
		}
		return err
	}

	if !checkPasswordHash(oldPassword, user.PasswordHash, s.pepper) {
		log.Warn("Password change failed: old password mismatch")
		return models.ErrInvalidCredentials
	}

	newHash, err := hashPassword(newPassword, s.pepper)
	if err != nil {
		log.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return err
	}

	// Invalidate the renewal path for existing sessions. Outstanding access
	// tokens stay valid until their natural expiry.
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		log.Error("Failed to clear refresh token after password change", zap.Error(err))
	} else {
		log.Info("Refresh token cleared after password change")
	}

	log.Info("User password changed successfully")
	return nil
}

// issueTokenPair mints a new access/refresh pair and persists the refresh
// token on the account row, replacing any prior value.
func (s *authServiceImpl) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	accessToken, accessExp, err := s.tokens.NewAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, refreshExp, err := s.tokens.NewRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	user.RefreshToken = refreshToken

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// --- Helper Functions ---

// applyPepper applies HMAC-SHA256 using the pepper as the key.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// hashPassword generates a bcrypt hash of the password after applying the pepper.
func hashPassword(password, pepper string) (string, error) {
	pepperedPassword := applyPepper(password, pepper)
	bytes, err := bcrypt.GenerateFromPassword(pepperedPassword, bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPasswordHash compares a plain text password (after applying pepper) with a stored hash.
func checkPasswordHash(password, hash, pepper string) bool {
	pepperedPassword := applyPepper(password, pepper)
	err := bcrypt.CompareHashAndPassword([]byte(hash), pepperedPassword)
	return err == nil
}
