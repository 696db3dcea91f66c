package service

import (
	"context"

	"github.com/google/uuid"

	"vidstream-server/internal/models"
)

// RegisterInput carries the fields required to create an account. Avatar and
// cover URLs come from the media host; the avatar is mandatory.
type RegisterInput struct {
	FullName  string
	Email     string
	Username  string
	Password  string
	AvatarURL string
	CoverURL  string
}

// AuthService drives the session lifecycle: registration, login, token
// renewal, logout and password changes.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*models.User, *models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}
