package entity

import (
	"math"
	"testing"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerStats_RecordResult(t *testing.T) {
	t.Run("Accumulates across games", func(t *testing.T) {
		// Given: a fresh player
		var stats PlayerStats

		// When: they win a 100 game and lose a 200 game
		require.NoError(t, stats.RecordResult(ResultWon, 200))
		require.NoError(t, stats.RecordResult(ResultLost, 200))

		// Then: counters and totals add up
		assert.Equal(t, PlayerStats{
			GamesPlayed:    2,
			GamesWon:       1,
			GamesLost:      1,
			TotalValueWon:  200,
			TotalValueLost: 200,
		}, stats)
	})

	t.Run("Overflow leaves the stats unchanged", func(t *testing.T) {
		stats := PlayerStats{GamesPlayed: 1, GamesWon: 1, TotalValueWon: math.MaxUint64}
		before := stats

		err := stats.RecordResult(ResultWon, 1)

		require.ErrorIs(t, err, apperror.ErrOverflow)
		assert.Equal(t, before, stats)
	})

	t.Run("Rejects unknown results", func(t *testing.T) {
		var stats PlayerStats

		require.Error(t, stats.RecordResult(Result(9), 1))
		assert.Zero(t, stats.GamesPlayed)
	})
}

func TestPlayerStats_RecordDraw(t *testing.T) {
	var stats PlayerStats

	require.NoError(t, stats.RecordDraw())

	assert.Equal(t, PlayerStats{GamesPlayed: 1}, stats)
}

func TestPlayerStats_Ratios(t *testing.T) {
	stats := PlayerStats{GamesPlayed: 4, GamesWon: 1, GamesLost: 3, TotalValueWon: 200, TotalValueLost: 300}

	assert.InDelta(t, 25.0, stats.WinRate(), 0.0001)
	assert.Equal(t, int64(-100), stats.NetValue())
	assert.Zero(t, PlayerStats{}.WinRate())
	assert.Equal(t, int64(math.MaxInt64), PlayerStats{TotalValueWon: math.MaxUint64}.NetValue())
}
