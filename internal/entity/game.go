package entity

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusOngoing  Status = "ongoing"
	StatusFinished Status = "finished"
)

// MaxStake - largest stake whose doubled pot still fits in uint64.
const MaxStake = math.MaxUint64 / 2

// Game - durable record of one wagered match.
// PlayerTwo and Winner are empty until set; both are written at most once.
type Game struct {
	ID              uint64 `json:"id"`
	PlayerOne       string `json:"player_one"`
	PlayerTwo       string `json:"player_two,omitempty"`
	PlayerOneMark   Cell   `json:"player_one_mark"`
	IsPlayerOneTurn bool   `json:"is_player_one_turn"`
	Stake           uint64 `json:"stake"`
	Board           Board  `json:"board"`
	Winner          string `json:"winner,omitempty"`
	Status          Status `json:"status"`
}

// ValidateStake - rejects stakes that cannot be escrowed.
func ValidateStake(stake uint64) error {
	if stake == 0 {
		return apperror.ErrZeroStake
	}

	if stake > MaxStake {
		return fmt.Errorf("%w: %d", apperror.ErrStakeTooLarge, stake)
	}

	return nil
}

// NewGame - builds a game with the creator's opening move already on the board.
// After the opening move it is player two's turn.
func NewGame(id uint64, creator string, stake uint64, index int, mark Cell) (*Game, error) {
	if err := ValidateStake(stake); err != nil {
		return nil, err
	}

	board, _, err := Board{}.ApplyMove(index, mark)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidMove, err)
	}

	return &Game{
		ID:              id,
		PlayerOne:       creator,
		PlayerOneMark:   mark,
		IsPlayerOneTurn: false,
		Stake:           stake,
		Board:           board,
		Status:          StatusWaiting,
	}, nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// Pot - escrowed value once both sides have paid in.
func (that *Game) Pot() uint64 {
	return that.Stake * 2
}

// MarkOf - mark assigned to player, ok is false for outsiders.
func (that *Game) MarkOf(player string) (Cell, bool) {
	switch {
	case player == that.PlayerOne:
		return that.PlayerOneMark, true
	case that.PlayerTwo != "" && player == that.PlayerTwo:
		return that.PlayerOneMark.Opposite(), true
	default:
		return EmptyCell, false
	}
}

// PlayerOf - identity owning mark.
func (that *Game) PlayerOf(mark Cell) string {
	if mark == that.PlayerOneMark {
		return that.PlayerOne
	}

	return that.PlayerTwo
}

// CurrentPlayer - identity whose move is expected.
func (that *Game) CurrentPlayer() string {
	if that.IsPlayerOneTurn {
		return that.PlayerOne
	}

	return that.PlayerTwo
}

// Opponent - the other seated player.
func (that *Game) Opponent(player string) string {
	if player == that.PlayerOne {
		return that.PlayerTwo
	}

	return that.PlayerOne
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("unknown game status: %s", that.Status)
	}
}

// Join - seats the second player with their first move.
// The game is left untouched when any check fails.
func (that *Game) Join(joiner string, index int, mark Cell) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if !that.IsWaiting() || that.PlayerTwo != "" {
		return fmt.Errorf("%w: game %d already has two players", apperror.ErrAlreadyJoined, that.ID)
	}

	if joiner == that.PlayerOne {
		return fmt.Errorf("%w: creator cannot join own game %d", apperror.ErrAlreadyJoined, that.ID)
	}

	board, _, err := that.Board.ApplyMove(index, mark)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidMove, err)
	}

	if want := that.PlayerOneMark.Opposite(); mark != want {
		return fmt.Errorf("%w: joiner must play %s", apperror.ErrInvalidMove, want)
	}

	that.Board = board
	that.PlayerTwo = joiner
	that.IsPlayerOneTurn = true
	that.Status = StatusOngoing

	return nil
}

// Play - applies mover's move. On a terminal board the game is finished
// and the winner recorded; otherwise the turn passes to the opponent.
func (that *Game) Play(mover string, index int, mark Cell) (TerminalStatus, error) {
	if err := that.ConfirmOngoingState(); err != nil {
		return TerminalStatus{}, err
	}

	if mover != that.CurrentPlayer() {
		return TerminalStatus{}, apperror.ErrNotYourTurn
	}

	board, status, err := that.Board.ApplyMove(index, mark)
	if err != nil {
		return TerminalStatus{}, fmt.Errorf("%w: %w", apperror.ErrInvalidMove, err)
	}

	if want, _ := that.MarkOf(mover); mark != want {
		return TerminalStatus{}, fmt.Errorf("%w: %s plays %s", apperror.ErrInvalidMove, mover, want)
	}

	that.Board = board

	switch status.Outcome {
	case Win:
		that.Winner = that.PlayerOf(status.Mark)
		that.Status = StatusFinished
	case Draw:
		that.Status = StatusFinished
	default:
		that.IsPlayerOneTurn = !that.IsPlayerOneTurn
	}

	return status, nil
}

// Clone - deep copy, safe to mutate independently.
func (that *Game) Clone() *Game {
	clone := *that
	return &clone
}

// GameView - read-only projection of a game record.
type GameView struct {
	ID              uint64  `json:"id"`
	PlayerOne       string  `json:"player_one"`
	PlayerTwo       *string `json:"player_two"`
	IsPlayerOneTurn bool    `json:"is_player_one_turn"`
	Stake           uint64  `json:"stake"`
	Board           []int   `json:"board"`
	Winner          *string `json:"winner"`
	Status          Status  `json:"status"`
}

func (that *Game) View() GameView {
	view := GameView{
		ID:              that.ID,
		PlayerOne:       that.PlayerOne,
		IsPlayerOneTurn: that.IsPlayerOneTurn,
		Stake:           that.Stake,
		Board:           that.Board.Cells(),
		Status:          that.Status,
	}

	if that.PlayerTwo != "" {
		playerTwo := that.PlayerTwo
		view.PlayerTwo = &playerTwo
	}

	if that.Winner != "" {
		winner := that.Winner
		view.Winner = &winner
	}

	return view
}
