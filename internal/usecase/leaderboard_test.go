package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager/internal/repository"
)

func TestLeaderboard_Top(t *testing.T) {
	ctx := context.Background()

	t.Run("Ranks by win rate then games played", func(t *testing.T) {
		store := repository.NewMemoryStore()
		engine := NewGameEngine(newTestLogger(), store, nil, 0)
		board := NewLeaderboard(newTestLogger(), store)

		// Given: alice beats bob twice, carol beats bob once, and one game is still waiting
		playOut(ctx, t, engine, 100, topRowFor(alice, bob)...)
		playOut(ctx, t, engine, 100, topRowFor(alice, bob)...)
		playOut(ctx, t, engine, 50, topRowFor(carol, bob)...)
		_, err := engine.Create(ctx, "dave", 10, 0, entity.PlayerX)
		require.NoError(t, err)

		// When: the leaderboard is built
		entries, err := board.Top(ctx, 0)

		// Then: players without finished games are left out
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, alice, entries[0].Player)
		assert.InDelta(t, 100.0, entries[0].WinRate, 0.0001)
		assert.Equal(t, int64(400), entries[0].NetValue)

		assert.Equal(t, carol, entries[1].Player)

		assert.Equal(t, bob, entries[2].Player)
		assert.Zero(t, entries[2].WinRate)
		assert.Equal(t, int64(-250), entries[2].NetValue)
		assert.Equal(t, uint64(3), entries[2].Stats.GamesPlayed)
	})

	t.Run("Limit", func(t *testing.T) {
		store := repository.NewMemoryStore()
		engine := NewGameEngine(newTestLogger(), store, nil, 0)

		playOut(ctx, t, engine, 100, topRowFor(alice, bob)...)

		entries, err := NewLeaderboard(newTestLogger(), store).Top(ctx, 1)

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, alice, entries[0].Player)
	})

	t.Run("Empty store", func(t *testing.T) {
		entries, err := NewLeaderboard(newTestLogger(), repository.NewMemoryStore()).Top(ctx, 0)

		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
