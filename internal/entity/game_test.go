package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "alice"
	bob   = "bob"
)

func newOngoingGame(t *testing.T) *Game {
	t.Helper()

	game, err := NewGame(0, alice, 100, 0, PlayerX)
	require.NoError(t, err)
	require.NoError(t, game.Join(bob, 3, PlayerO))

	return game
}

func TestNewGame(t *testing.T) {
	t.Run("Creates a waiting game with the opening move", func(t *testing.T) {
		// When: alice opens with X at cell 0 staking 100
		game, err := NewGame(7, alice, 100, 0, PlayerX)

		// Then: the game waits for an opponent and it is player two's turn
		require.NoError(t, err)
		expectedGame := &Game{
			ID:              7,
			PlayerOne:       alice,
			PlayerOneMark:   PlayerX,
			IsPlayerOneTurn: false,
			Stake:           100,
			Board:           Board{0: PlayerX},
			Status:          StatusWaiting,
		}
		assert.Equal(t, expectedGame, game)
	})

	t.Run("Rejects a zero stake", func(t *testing.T) {
		_, err := NewGame(0, alice, 0, 0, PlayerX)
		assert.ErrorIs(t, err, apperror.ErrZeroStake)
	})

	t.Run("Rejects a stake whose pot would overflow", func(t *testing.T) {
		_, err := NewGame(0, alice, MaxStake+1, 0, PlayerX)
		assert.ErrorIs(t, err, apperror.ErrStakeTooLarge)
	})

	t.Run("Wraps board errors as invalid moves", func(t *testing.T) {
		_, err := NewGame(0, alice, 100, 9, PlayerX)
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.ErrorIs(t, err, ErrOutOfBounds)

		_, err = NewGame(0, alice, 100, 0, 3)
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.ErrorIs(t, err, ErrInvalidMark)
	})
}

func TestGameStatusMethods(t *testing.T) {
	assert.True(t, (&Game{Status: StatusFinished}).IsFinished())
	assert.True(t, (&Game{Status: StatusOngoing}).IsOngoing())
	assert.True(t, (&Game{Status: StatusWaiting}).IsWaiting())
}

func TestGame_ConfirmOngoingState(t *testing.T) {
	assert.NoError(t, (&Game{Status: StatusOngoing}).ConfirmOngoingState())
	assert.ErrorIs(t, (&Game{Status: StatusWaiting}).ConfirmOngoingState(), apperror.ErrGameIsNotStarted)
	assert.ErrorIs(t, (&Game{Status: StatusFinished}).ConfirmOngoingState(), apperror.ErrGameFinished)

	err := (&Game{Status: "unknown"}).ConfirmOngoingState()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown game status")
}

func TestGame_Join(t *testing.T) {
	t.Run("Seats player two and hands the turn to the creator", func(t *testing.T) {
		// Given: a waiting game opened by alice with X
		game, err := NewGame(0, alice, 100, 0, PlayerX)
		require.NoError(t, err)

		// When: bob joins with O at cell 1
		err = game.Join(bob, 1, PlayerO)

		// Then: bob is seated and alice moves next
		require.NoError(t, err)
		assert.Equal(t, bob, game.PlayerTwo)
		assert.True(t, game.IsPlayerOneTurn)
		assert.Equal(t, StatusOngoing, game.Status)
		assert.Equal(t, Board{0: PlayerX, 1: PlayerO}, game.Board)
	})

	t.Run("Rejects a second joiner", func(t *testing.T) {
		game := newOngoingGame(t)
		before := *game

		err := game.Join("carol", 5, PlayerO)

		require.ErrorIs(t, err, apperror.ErrAlreadyJoined)
		assert.Equal(t, before, *game)
	})

	t.Run("Rejects the creator joining their own game", func(t *testing.T) {
		game, err := NewGame(0, alice, 100, 0, PlayerX)
		require.NoError(t, err)

		err = game.Join(alice, 1, PlayerO)

		require.ErrorIs(t, err, apperror.ErrAlreadyJoined)
		assert.Empty(t, game.PlayerTwo)
	})

	t.Run("Rejects the creator's mark", func(t *testing.T) {
		game, err := NewGame(0, alice, 100, 0, PlayerO)
		require.NoError(t, err)
		before := *game

		err = game.Join(bob, 1, PlayerO)

		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, before, *game)
	})

	t.Run("Rejects an occupied cell without seating the joiner", func(t *testing.T) {
		game, err := NewGame(0, alice, 100, 0, PlayerX)
		require.NoError(t, err)
		before := *game

		err = game.Join(bob, 0, PlayerO)

		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.ErrorIs(t, err, ErrCellOccupied)
		assert.Equal(t, before, *game)
	})
}

func TestGame_Play(t *testing.T) {
	t.Run("Successful turn flips the turn", func(t *testing.T) {
		// Given: an ongoing game where it is alice's turn
		game := newOngoingGame(t)

		// When: alice plays X at cell 1
		status, err := game.Play(alice, 1, PlayerX)

		// Then: the board changes and it is bob's turn
		require.NoError(t, err)
		assert.Equal(t, Ongoing, status.Outcome)
		assert.False(t, game.IsPlayerOneTurn)
		assert.Equal(t, Board{0: PlayerX, 1: PlayerX, 3: PlayerO}, game.Board)
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		game := newOngoingGame(t)
		before := *game

		_, err := game.Play(bob, 4, PlayerO)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, before, *game)
	})

	t.Run("Error on an outsider playing", func(t *testing.T) {
		game := newOngoingGame(t)

		_, err := game.Play("mallory", 4, PlayerX)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Error on the opponent's mark", func(t *testing.T) {
		game := newOngoingGame(t)
		before := *game

		_, err := game.Play(alice, 4, PlayerO)

		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, before, *game)
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		game := newOngoingGame(t)
		before := *game

		_, err := game.Play(alice, 3, PlayerX)

		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		require.ErrorIs(t, err, ErrCellOccupied)
		assert.Equal(t, before, *game)
	})

	t.Run("Error before an opponent joined", func(t *testing.T) {
		game, err := NewGame(0, alice, 100, 0, PlayerX)
		require.NoError(t, err)

		_, err = game.Play(alice, 1, PlayerX)

		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Winning move finishes the game and keeps the turn", func(t *testing.T) {
		// Given: X at 0 and 1, O at 3 and 4, alice to move
		game := newOngoingGame(t)
		_, err := game.Play(alice, 1, PlayerX)
		require.NoError(t, err)
		_, err = game.Play(bob, 4, PlayerO)
		require.NoError(t, err)

		// When: alice completes the top row
		status, err := game.Play(alice, 2, PlayerX)

		// Then: alice wins and the game is closed
		require.NoError(t, err)
		assert.Equal(t, TerminalStatus{Outcome: Win, Mark: PlayerX}, status)
		assert.Equal(t, alice, game.Winner)
		assert.True(t, game.IsFinished())
		assert.True(t, game.IsPlayerOneTurn)

		_, err = game.Play(bob, 5, PlayerO)
		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Player two can win", func(t *testing.T) {
		game := newOngoingGame(t)
		for _, move := range []struct {
			player string
			index  int
			mark   Cell
		}{
			{alice, 1, PlayerX},
			{bob, 4, PlayerO},
			{alice, 8, PlayerX},
		} {
			_, err := game.Play(move.player, move.index, move.mark)
			require.NoError(t, err)
		}

		status, err := game.Play(bob, 5, PlayerO)

		require.NoError(t, err)
		assert.Equal(t, Win, status.Outcome)
		assert.Equal(t, bob, game.Winner)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: alice X at 0, bob O at 3
		game := newOngoingGame(t)

		// When: the remaining cells are filled without completing a line
		// X O X / O O X / X X O
		moves := []struct {
			player string
			index  int
			mark   Cell
		}{
			{alice, 2, PlayerX},
			{bob, 1, PlayerO},
			{alice, 5, PlayerX},
			{bob, 4, PlayerO},
			{alice, 7, PlayerX},
			{bob, 8, PlayerO},
		}
		for _, move := range moves {
			status, err := game.Play(move.player, move.index, move.mark)
			require.NoError(t, err)
			require.Equal(t, Ongoing, status.Outcome)
		}

		status, err := game.Play(alice, 6, PlayerX)

		// Then: the game is a draw with no winner
		require.NoError(t, err)
		assert.Equal(t, Draw, status.Outcome)
		assert.True(t, game.IsFinished())
		assert.Empty(t, game.Winner)
	})
}

func TestGame_View(t *testing.T) {
	game, err := NewGame(0, alice, 100, 0, PlayerX)
	require.NoError(t, err)

	view := game.View()
	assert.Nil(t, view.PlayerTwo)
	assert.Nil(t, view.Winner)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 0, 0, 0}, view.Board)

	require.NoError(t, game.Join(bob, 1, PlayerO))

	view = game.View()
	require.NotNil(t, view.PlayerTwo)
	assert.Equal(t, bob, *view.PlayerTwo)
}
