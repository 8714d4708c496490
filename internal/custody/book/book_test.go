package book

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custody/pkg/domain"
)

func TestBook(t *testing.T) {
	ctx := context.Background()
	alice := id.Identity{1}
	bob := id.Identity{2}
	usdc := id.AssetID{9}

	t.Run("transfer moves funds", func(t *testing.T) {
		b := New()
		require.NoError(t, b.Mint(alice, usdc, 100))

		require.NoError(t, b.Transfer(ctx, alice, bob, usdc, 40))
		assert.Equal(t, uint64(60), b.Balance(alice, usdc))
		assert.Equal(t, uint64(40), b.Balance(bob, usdc))
	})

	t.Run("short source is rejected unchanged", func(t *testing.T) {
		b := New()
		require.NoError(t, b.Mint(alice, usdc, 10))

		err := b.Transfer(ctx, alice, bob, usdc, 11)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, uint64(10), b.Balance(alice, usdc))
		assert.Zero(t, b.Balance(bob, usdc))
	})

	t.Run("overflowing destination is rejected", func(t *testing.T) {
		b := New()
		require.NoError(t, b.Mint(alice, usdc, 1))
		require.NoError(t, b.Mint(bob, usdc, math.MaxUint64))

		assert.ErrorIs(t, b.Transfer(ctx, alice, bob, usdc, 1), ErrBalanceOverflow)
		assert.Equal(t, uint64(1), b.Balance(alice, usdc))
	})

	t.Run("cancelled context", func(t *testing.T) {
		b := New()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, b.Transfer(cctx, alice, bob, usdc, 0), context.Canceled)
	})
}
