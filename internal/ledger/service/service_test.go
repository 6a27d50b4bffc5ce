package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/authority"
	"custodia/internal/ledger"
	"custodia/internal/ledger/service"
	dErrors "custodia/pkg/domain-errors"
)

const (
	treasurer = "alice"
	admin     = "oscar"
	holderA   = "holder-a"
	holderB   = "holder-b"
)

func newService(t *testing.T) (*service.Service, *ledger.InMemoryStore) {
	t.Helper()
	ctx := context.Background()
	roles := authority.NewInMemoryStore()
	require.NoError(t, roles.Grant(ctx, authority.RoleTreasuryController, treasurer))
	require.NoError(t, roles.Grant(ctx, authority.RoleOrgAdmin, admin))

	store := ledger.NewInMemoryStore()
	svc := service.NewService(store, roles, nil, nil, slog.Default())

	require.NoError(t, svc.SetAllowed(ctx, admin, holderA, true))
	require.NoError(t, svc.SetAllowed(ctx, admin, holderB, true))
	return svc, store
}

func TestMint(t *testing.T) {
	ctx := context.Background()

	t.Run("credits an allowed holder", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 10_000))

		bal, err := svc.BalanceOf(ctx, holderA)
		require.NoError(t, err)
		assert.Equal(t, int64(10_000), bal)

		state, err := svc.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(10_000), state.TotalSupply)
	})

	t.Run("requires treasury role", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.Mint(ctx, admin, holderA, 100)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("rejects disallowed destination", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.Mint(ctx, treasurer, "stranger", 100)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _ := newService(t)
		err := svc.Mint(ctx, treasurer, holderA, 0)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})
}

func TestBurn(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))

	require.NoError(t, svc.SetFrozen(ctx, admin, holderA, 800))
	err := svc.Burn(ctx, treasurer, holderA, 300)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation), "burn must respect the freeze")

	require.NoError(t, svc.Burn(ctx, treasurer, holderA, 200))
	bal, err := svc.BalanceOf(ctx, holderA)
	require.NoError(t, err)
	assert.Equal(t, int64(800), bal)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves available balance", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))
		require.NoError(t, svc.Transfer(ctx, holderA, holderB, 400))

		balA, err := svc.BalanceOf(ctx, holderA)
		require.NoError(t, err)
		balB, err := svc.BalanceOf(ctx, holderB)
		require.NoError(t, err)
		assert.Equal(t, int64(600), balA)
		assert.Equal(t, int64(400), balB)
	})

	t.Run("frozen funds are not available", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))
		require.NoError(t, svc.SetFrozen(ctx, admin, holderA, 700))

		err := svc.Transfer(ctx, holderA, holderB, 500)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})

	t.Run("both sides must be allowed", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))
		require.NoError(t, svc.SetAllowed(ctx, admin, holderB, false))

		err := svc.Transfer(ctx, holderA, holderB, 100)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("paused halts voluntary movement", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))
		require.NoError(t, svc.SetPaused(ctx, admin, true))

		err := svc.Transfer(ctx, holderA, holderB, 100)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))

		require.NoError(t, svc.SetPaused(ctx, admin, false))
		assert.NoError(t, svc.Transfer(ctx, holderA, holderB, 100))
	})
}

func TestSetFrozen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))

	t.Run("requires org admin", func(t *testing.T) {
		err := svc.SetFrozen(ctx, treasurer, holderA, 100)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("cannot exceed balance", func(t *testing.T) {
		err := svc.SetFrozen(ctx, admin, holderA, 2_000)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})

	t.Run("absolute, not cumulative", func(t *testing.T) {
		require.NoError(t, svc.SetFrozen(ctx, admin, holderA, 600))
		require.NoError(t, svc.SetFrozen(ctx, admin, holderA, 200))
		frozen, err := svc.FrozenOf(ctx, holderA)
		require.NoError(t, err)
		assert.Equal(t, int64(200), frozen)
	})
}

func TestForcedMove(t *testing.T) {
	ctx := context.Background()

	t.Run("bypasses source restriction, freeze and pause", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))
		require.NoError(t, svc.SetFrozen(ctx, admin, holderA, 1_000))
		require.NoError(t, svc.SetAllowed(ctx, admin, holderA, false))
		require.NoError(t, svc.SetPaused(ctx, admin, true))

		require.NoError(t, svc.ForcedMove(ctx, holderA, holderB, 400))

		balB, err := svc.BalanceOf(ctx, holderB)
		require.NoError(t, err)
		assert.Equal(t, int64(400), balB)
	})

	t.Run("destination must be allowed", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 1_000))
		require.NoError(t, svc.SetAllowed(ctx, admin, holderB, false))

		err := svc.ForcedMove(ctx, holderA, holderB, 400)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("raw balance must cover the amount", func(t *testing.T) {
		svc, _ := newService(t)
		require.NoError(t, svc.Mint(ctx, treasurer, holderA, 100))

		err := svc.ForcedMove(ctx, holderA, holderB, 400)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))

		balA, err := svc.BalanceOf(ctx, holderA)
		require.NoError(t, err)
		assert.Equal(t, int64(100), balA, "failed move leaves no partial effect")
	})
}

func TestReconcileFrozen(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	require.NoError(t, store.Mint(ctx, holderA, 1_000))
	require.NoError(t, store.SetFrozen(ctx, holderA, 900))

	require.NoError(t, svc.ReconcileFrozen(ctx, holderA, 500))
	frozen, err := svc.FrozenOf(ctx, holderA)
	require.NoError(t, err)
	assert.Equal(t, int64(500), frozen)

	err = svc.ReconcileFrozen(ctx, holderA, -1)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}
