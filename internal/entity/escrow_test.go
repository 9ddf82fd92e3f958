package entity

import (
	"math"
	"testing"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscrow_Fund(t *testing.T) {
	t.Run("Accumulates deposits", func(t *testing.T) {
		escrow := NewEscrow(0)

		require.NoError(t, escrow.Fund(alice, 100))
		require.NoError(t, escrow.Fund(bob, 100))

		assert.Equal(t, uint64(200), escrow.Balance)
		assert.Equal(t, []Deposit{{Payer: alice, Amount: 100}, {Payer: bob, Amount: 100}}, escrow.Deposits)
	})

	t.Run("Rejects overflow without changing the balance", func(t *testing.T) {
		escrow := &Escrow{Balance: math.MaxUint64}

		err := escrow.Fund(alice, 1)

		require.ErrorIs(t, err, apperror.ErrOverflow)
		assert.Equal(t, uint64(math.MaxUint64), escrow.Balance)
		assert.Empty(t, escrow.Deposits)
	})

	t.Run("Rejects funding a settled escrow", func(t *testing.T) {
		escrow := &Escrow{Settled: true}

		assert.ErrorIs(t, escrow.Fund(alice, 100), apperror.ErrAlreadySettled)
	})
}

func TestEscrow_Release(t *testing.T) {
	t.Run("Pays the whole balance exactly once", func(t *testing.T) {
		// Given: a funded escrow
		escrow := NewEscrow(3)
		require.NoError(t, escrow.Fund(alice, 100))
		require.NoError(t, escrow.Fund(bob, 100))

		// When: the pot is released to alice
		err := escrow.Release([]Payout{{Recipient: alice, Amount: 200}})

		// Then: the balance is drained and the escrow is settled
		require.NoError(t, err)
		assert.Zero(t, escrow.Balance)
		assert.True(t, escrow.Settled)

		// And: a second release is reported instead of ignored
		err = escrow.Release([]Payout{{Recipient: alice, Amount: 0}})
		require.ErrorIs(t, err, apperror.ErrAlreadySettled)
		assert.Len(t, escrow.Payouts, 1)
	})

	t.Run("Rejects payouts that do not match the balance", func(t *testing.T) {
		escrow := &Escrow{Balance: 200}

		err := escrow.Release([]Payout{{Recipient: alice, Amount: 150}})

		require.ErrorIs(t, err, apperror.ErrPayoutMismatch)
		assert.Equal(t, uint64(200), escrow.Balance)
		assert.False(t, escrow.Settled)
	})

	t.Run("Splits the pot on a draw", func(t *testing.T) {
		escrow := &Escrow{Balance: 200}

		err := escrow.Release([]Payout{{Recipient: alice, Amount: 100}, {Recipient: bob, Amount: 100}})

		require.NoError(t, err)
		assert.Zero(t, escrow.Balance)
	})
}

func TestEscrow_Clone(t *testing.T) {
	escrow := NewEscrow(1)
	require.NoError(t, escrow.Fund(alice, 5))

	clone := escrow.Clone()
	require.NoError(t, clone.Fund(bob, 5))

	assert.Len(t, escrow.Deposits, 1)
	assert.Equal(t, uint64(5), escrow.Balance)
}
