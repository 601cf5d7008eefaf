package alias_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/codepay/internal/testutil"
	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/domain/events"
	aliassvc "github.com/amirasaad/codepay/pkg/service/alias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*testutil.Env, *aliassvc.Service) {
	t.Helper()
	env := testutil.NewEnv(t)
	repo, err := env.Uow.AccountRepository()
	require.NoError(t, err)
	for _, a := range []*account.Account{
		{ID: "u-1", Kind: account.KindUser, Name: "Ana", Email: "ana@example.com", CreatedAt: testutil.Epoch, UpdatedAt: testutil.Epoch},
		{ID: "m-1", Kind: account.KindMerchant, Name: "Tienda", Email: "t@example.com", CreatedAt: testutil.Epoch, UpdatedAt: testutil.Epoch},
	} {
		require.NoError(t, repo.Create(context.Background(), a))
	}
	return env, aliassvc.New(env.Deps)
}

func TestCreate(t *testing.T) {
	env, svc := setup(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u-1", "phone", " 0991234567 ")
	require.NoError(t, err)
	assert.Equal(t, "0991234567", a.Value)
	assert.Len(t, env.Bus.PublishedOf(events.TypeAliasCreated), 1)

	_, err = svc.Create(ctx, "u-1", "phone", "0991234567")
	assert.ErrorIs(t, err, domain.ErrAliasInUse)

	_, err = svc.Create(ctx, "ghost", "phone", "0990000000")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Create(ctx, "m-1", "phone", "0990000000")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Create(ctx, "u-1", "", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestResolve_ReadsThroughCache(t *testing.T) {
	env, svc := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "u-1", "nick", "ana")
	require.NoError(t, err)

	require.NoError(t, env.Cache.Delete(ctx, "ana"))
	assert.Zero(t, env.Cache.Len())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.Resolve(ctx, "ana")
			assert.NoError(t, err)
			assert.Equal(t, "u-1", id)
		}()
	}
	wg.Wait()

	id, ok, err := env.Cache.Get(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u-1", id)

	// a cached entry wins over storage
	require.NoError(t, env.Cache.Set(ctx, "ana", "u-cached", time.Minute))
	id, err = svc.Resolve(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "u-cached", id)

	_, err = svc.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAliasNotFound)
}

func TestGet(t *testing.T) {
	_, svc := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "u-1", "email", "ana@alias")
	require.NoError(t, err)

	a, err := svc.Get(ctx, "ana@alias")
	require.NoError(t, err)
	assert.Equal(t, "u-1", a.UserID)
	assert.Equal(t, "email", a.Type)

	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrAliasNotFound)
}
