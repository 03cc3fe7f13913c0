package user

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/repositories/repositorytest"
	"gigpay/internal/services/ledger"
)

type fakeWalletCache struct {
	wallets map[uint]*models.Wallet
	hits    int
	misses  int
}

func newFakeWalletCache() *fakeWalletCache {
	return &fakeWalletCache{wallets: make(map[uint]*models.Wallet)}
}

func (c *fakeWalletCache) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	if w, ok := c.wallets[userID]; ok {
		c.hits++
		return w, nil
	}
	c.misses++
	return nil, errors.New("cache miss")
}

func (c *fakeWalletCache) CacheWallet(ctx context.Context, wallet *models.Wallet) error {
	c.wallets[wallet.UserID] = wallet
	return nil
}

func newTestService(t *testing.T) (Service, *repositorytest.Store, *fakeWalletCache) {
	t.Helper()
	store := repositorytest.NewStore()
	ledgerSvc := ledger.NewService(store.UnitOfWork(), nil, nil, ledger.DefaultConfig())
	cache := newFakeWalletCache()
	return NewService(store.UnitOfWork(), ledgerSvc, cache), store, cache
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	worker := store.SeedUser(models.RoleWorker)

	name := "Renamed"
	skills := "typing, surveys"
	updated, err := svc.UpdateProfile(ctx, worker.ID, UpdateProfileRequest{Name: &name, Skills: &skills})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "typing, surveys", updated.Skills)
	assert.Equal(t, "Renamed", store.User(worker.ID).Name)

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestGetWalletCacheAside(t *testing.T) {
	ctx := context.Background()
	svc, store, cache := newTestService(t)
	worker := store.SeedUser(models.RoleWorker)
	store.SetBalance(worker.ID, decimal.NewFromInt(40))

	wallet, err := svc.GetWallet(ctx, worker.ID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 1, cache.misses)

	// Second read comes from the cache.
	_, err = svc.GetWallet(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
}

func TestGetTransactionsScopedToUser(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	ledgerSvc := ledger.NewService(store.UnitOfWork(), nil, nil, ledger.DefaultConfig())
	mine := store.SeedUser(models.RoleWorker)
	other := store.SeedUser(models.RoleWorker)

	for _, id := range []uint{mine.ID, other.ID} {
		_, err := ledgerSvc.RecordEarning(ctx, ledger.EarningRequest{
			UserID:      id,
			Amount:      decimal.NewFromInt(10),
			Description: "test credit",
		})
		require.NoError(t, err)
	}

	// The filter cannot reach across users.
	txns, total, err := svc.GetTransactions(ctx, mine.ID, repositories.TransactionFilter{UserID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, mine.ID, txns[0].UserID)
}

func TestGetReferrals(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	referrer := store.SeedUser(models.RoleWorker)
	invited := store.SeedUser(models.RoleWorker)

	err := store.UnitOfWork().Do(ctx, func(r repositories.Repos) error {
		_, err := r.Users.SetReferredBy(ctx, invited.ID, referrer.ID)
		return err
	})
	require.NoError(t, err)

	info, err := svc.GetReferrals(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, store.User(referrer.ID).ReferralCode, info.Code)
	require.Len(t, info.Referrals, 1)
	assert.Equal(t, invited.ID, info.Referrals[0].ID)
}
