package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/repositories/repositorytest"
)

func newTestService(t *testing.T) (Service, *repositorytest.Store) {
	t.Helper()
	store := repositorytest.NewStore()
	return NewService(store.UnitOfWork(), DefaultConfig("test-secret")), store
}

func register(t *testing.T, svc Service, email, role string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "hunter22",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("workers start approved, creators do not", func(t *testing.T) {
		svc, store := newTestService(t)

		worker := register(t, svc, "w@example.com", models.RoleWorker)
		assert.True(t, worker.IsApproved)
		assert.True(t, worker.IsActive)
		assert.NotEmpty(t, worker.ReferralCode)
		assert.NotEqual(t, "hunter22", worker.Password, "password must be hashed")

		creator := register(t, svc, "c@example.com", models.RoleCreator)
		assert.False(t, creator.IsApproved)

		// Registration opens a wallet.
		assert.True(t, store.Wallet(worker.ID).Balance.IsZero())
	})

	t.Run("email is normalized and unique", func(t *testing.T) {
		svc, _ := newTestService(t)
		register(t, svc, "dup@example.com", models.RoleWorker)

		_, err := svc.Register(ctx, RegisterRequest{
			Name:     "Copy",
			Email:    "  DUP@example.com ",
			Password: "hunter22",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("admin cannot be self-assigned", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, RegisterRequest{
			Name:     "Sneaky",
			Email:    "a@example.com",
			Password: "hunter22",
			Role:     models.RoleAdmin,
		})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a working token pair", func(t *testing.T) {
		svc, _ := newTestService(t)
		registered := register(t, svc, "w@example.com", models.RoleWorker)

		user, pair, err := svc.Login(ctx, "w@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		require.NotEmpty(t, pair.AccessToken)

		claims, err := svc.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.UserID)
		assert.Equal(t, models.RoleWorker, claims.Role)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		svc, _ := newTestService(t)
		register(t, svc, "w@example.com", models.RoleWorker)

		_, _, err := svc.Login(ctx, "w@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("disabled accounts cannot log in", func(t *testing.T) {
		svc, store := newTestService(t)
		user := register(t, svc, "w@example.com", models.RoleWorker)

		err := store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
			return r.Users.SetApproval(ctx, user.ID, true, false)
		})
		require.NoError(t, err)

		_, _, err = svc.Login(ctx, "w@example.com", "hunter22")
		assert.ErrorIs(t, err, ErrAccountDisabled)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	register(t, svc, "w@example.com", models.RoleWorker)
	_, pair, err := svc.Login(ctx, "w@example.com", "hunter22")
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = svc.ValidateToken(fresh.AccessToken)
	assert.NoError(t, err)

	_, err = svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePasswordRevokesTokens(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	user := register(t, svc, "w@example.com", models.RoleWorker)
	_, pair, err := svc.Login(ctx, "w@example.com", "hunter22")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong-current", "newpass99")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "hunter22", "newpass99"))

	// The old refresh token carries the previous version.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// The stored version moved past the one in the stale tokens.
	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, store.User(user.ID).TokenVersion, claims.TokenVersion)

	_, _, err = svc.Login(ctx, "w@example.com", "newpass99")
	assert.NoError(t, err)
}
