package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vidstream-server/internal/models"
)

const issuer = "vidstream-server"

// AccessClaims carries the identity snapshot embedded in an access token.
// The claims are self-contained: the request gate can establish identity
// without a database round-trip, but they are not authoritative for current
// account state.
type AccessClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	jwt.RegisteredClaims
}

// RefreshClaims is the minimal payload of a refresh token: the account id only.
type RefreshClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager issues and verifies the two token classes. Access and refresh
// tokens are signed with distinct secrets and expiries so that an access
// token leak cannot be used to mint new sessions.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewManager creates a token Manager from the signing secrets and TTLs.
func NewManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// NewAccessToken signs a short-lived token embedding the user's identity
// claims. Returns the signed string and its expiry (unix seconds).
func (m *Manager) NewAccessToken(user *models.User) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(m.accessTTL)
	claims := &AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt.Unix(), nil
}

// NewRefreshToken signs a long-lived token carrying the account id only.
func (m *Manager) NewRefreshToken(userID uuid.UUID) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(m.refreshTTL)
	claims := &RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, expiresAt.Unix(), nil
}

// VerifyAccessToken parses and validates an access token string.
func (m *Manager) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.verify(tokenString, claims, m.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token string.
func (m *Manager) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.verify(tokenString, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return models.ErrTokenMalformed
		default:
			return models.ErrTokenInvalid
		}
	}

	if !token.Valid {
		return models.ErrTokenInvalid
	}
	return nil
}
