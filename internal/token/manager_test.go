package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstream-server/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "a@x.com",
		FullName: "Alice Example",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	user := testUser()

	signed, expiresAt, err := m.NewAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	assert.Greater(t, expiresAt, time.Now().Unix())

	claims, err := m.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.FullName, claims.FullName)
	assert.NotEmpty(t, claims.ID, "jti should be set")
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	userID := uuid.New()

	signed, expiresAt, err := m.NewRefreshToken(userID)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	claims, err := m.VerifyRefreshToken(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	user := testUser()

	access, _, err := m.NewAccessToken(user)
	require.NoError(t, err)
	refresh, _, err := m.NewRefreshToken(user.ID)
	require.NoError(t, err)

	// An access token must not verify as a refresh token and vice versa.
	_, err = m.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
	_, err = m.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestVerifyExpiredToken(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	signed, _, err := m.NewAccessToken(testUser())
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, models.ErrTokenExpired)

	refresh, _, err := m.NewRefreshToken(uuid.New())
	require.NoError(t, err)
	_, err = m.VerifyRefreshToken(refresh)
	assert.ErrorIs(t, err, models.ErrTokenExpired)
}

func TestVerifyMalformedToken(t *testing.T) {
	m := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)

	_, err := m.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, models.ErrTokenMalformed)

	_, err = m.VerifyRefreshToken("")
	assert.ErrorIs(t, err, models.ErrTokenMalformed)
}

func TestVerifyWrongSignature(t *testing.T) {
	m1 := NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	m2 := NewManager("other-access", "other-refresh", time.Minute, time.Hour)

	signed, _, err := m1.NewAccessToken(testUser())
	require.NoError(t, err)

	_, err = m2.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}
