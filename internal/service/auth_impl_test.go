package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vidstream-server/internal/models"
	"vidstream-server/internal/token"
)

const testPepper = "test-pepper"

func newTestAuthService(t *testing.T) (AuthService, *fakeUserRepo, *token.Manager) {
	t.Helper()
	repo := newFakeUserRepo()
	tokens := token.NewManager("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	svc := NewAuthService(repo, tokens, testPepper, zap.NewNop())
	return svc, repo, tokens
}

func registerTestUser(t *testing.T, svc AuthService) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		FullName:  "Test User",
		Email:     "test@example.com",
		Username:  "testuser",
		Password:  "password123",
		AvatarURL: "https://media.example.com/a.png",
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterInput{
			FullName:  "Alice Example",
			Email:     "Alice@Example.COM",
			Username:  "Alice",
			Password:  "secret123",
			AvatarURL: "https://media.example.com/alice.png",
		})
		require.NoError(t, err)
		assert.NotEqual(t, "", user.ID.String())
		assert.Equal(t, "alice", user.Username, "username should be normalized to lowercase")
		assert.Equal(t, "alice@example.com", user.Email, "email should be normalized to lowercase")
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "secret123", user.PasswordHash)

		stored, err := repo.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, stored.ID)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			FullName:  "Other Alice",
			Email:     "other@example.com",
			Username:  "ALICE",
			Password:  "secret123",
			AvatarURL: "https://media.example.com/other.png",
		})
		assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			FullName:  "Alias",
			Email:     "alice@example.com",
			Username:  "alias",
			Password:  "secret123",
			AvatarURL: "https://media.example.com/alias.png",
		})
		assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)
	})

	t.Run("MissingAvatar", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			FullName: "No Avatar",
			Email:    "noavatar@example.com",
			Username: "noavatar",
			Password: "secret123",
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			FullName:  "Bad Email",
			Email:     "not-an-email",
			Username:  "bademail",
			Password:  "secret123",
			AvatarURL: "https://media.example.com/b.png",
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("MissingRequiredFields", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			Email:     "empty@example.com",
			AvatarURL: "https://media.example.com/e.png",
		})
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()
	registerTestUser(t, svc)

	t.Run("SuccessByUsername", func(t *testing.T) {
		user, pair, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)
		assert.Equal(t, "testuser", user.Username)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Greater(t, pair.RefreshExpiresAt, pair.AccessExpiresAt)
	})

	t.Run("SuccessByEmail", func(t *testing.T) {
		user, _, err := svc.Login(ctx, "Test@Example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", user.Email)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "testuser", "wrong-password")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody", "password123")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "", "")
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("LoginRotatesStoredRefreshToken", func(t *testing.T) {
		_, first, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)

		// A second login overwrites the stored token, so the first session
		// can no longer renew.
		_, _, err = svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenReused)
	})
}

func TestRefresh(t *testing.T) {
	svc, repo, tokens := newTestAuthService(t)
	ctx := context.Background()
	user := registerTestUser(t, svc)

	t.Run("RotationInvalidatesOldToken", func(t *testing.T) {
		_, pair, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)

		rotated, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// The pre-rotation token still verifies cryptographically but no
		// longer matches the stored value.
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenReused)

		// The rotated token keeps working.
		_, err = svc.Refresh(ctx, rotated.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("MalformedToken", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		accessToken, _, err := tokens.NewAccessToken(user)
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, accessToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		ghostToken, _, err := tokens.NewRefreshToken(uuidMustNew(t))
		require.NoError(t, err)
		_, err = svc.Refresh(ctx, ghostToken)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("ClearedTokenRejected", func(t *testing.T) {
		_, pair, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)

		require.NoError(t, repo.UpdateRefreshToken(ctx, user.ID, ""))

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenReused)
	})
}

func TestLogout(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := registerTestUser(t, svc)

	t.Run("ClearsRefreshToken", func(t *testing.T) {
		_, pair, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, user.ID))

		stored, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.RefreshToken)

		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenReused)
	})

	t.Run("IdempotentForUnknownUser", func(t *testing.T) {
		assert.NoError(t, svc.Logout(ctx, uuidMustNew(t)))
	})
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()
	user := registerTestUser(t, svc)

	t.Run("WrongOldPassword", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "wrong", "newpassword1")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("EmptyNewPassword", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "password123", "")
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("SuccessClearsRefreshToken", func(t *testing.T) {
		_, pair, err := svc.Login(ctx, "testuser", "password123")
		require.NoError(t, err)

		require.NoError(t, svc.ChangePassword(ctx, user.ID, "password123", "newpassword1"))

		_, _, err = svc.Login(ctx, "testuser", "password123")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)

		_, _, err = svc.Login(ctx, "testuser", "newpassword1")
		assert.NoError(t, err)

		stored, err := repo.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		// The login above stored a fresh token; the pre-change one must be dead.
		assert.NotEqual(t, pair.RefreshToken, stored.RefreshToken)
		_, err = svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, models.ErrTokenReused)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		err := svc.ChangePassword(ctx, uuidMustNew(t), "password123", "newpassword1")
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := hashPassword("hunter2", testPepper)
	require.NoError(t, err)

	assert.True(t, checkPasswordHash("hunter2", hash, testPepper))
	assert.False(t, checkPasswordHash("hunter3", hash, testPepper))
	assert.False(t, checkPasswordHash("hunter2", hash, "other-pepper"), "hash must be bound to the pepper")

	again, err := hashPassword("hunter2", testPepper)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "bcrypt salts must differ per hash")
}
