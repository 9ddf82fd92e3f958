package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
)

type Type string

const (
	TypeGameCreated    Type = "game.created"
	TypeGameJoined     Type = "game.joined"
	TypeGameMove       Type = "game.move"
	TypeGameWon        Type = "game.won"
	TypeGameDraw       Type = "game.draw"
	TypeEscrowReleased Type = "escrow.released"
)

// Event - notification about a committed state change of one game.
type Event struct {
	ID         string           `json:"id"`
	Type       Type             `json:"type"`
	GameID     uint64           `json:"game_id"`
	Player     string           `json:"player,omitempty"`
	Game       *entity.GameView `json:"game,omitempty"`
	Payouts    []entity.Payout  `json:"payouts,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func New(eventType Type, player string, game *entity.Game) Event {
	view := game.View()

	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		GameID:     game.ID,
		Player:     player,
		Game:       &view,
		OccurredAt: time.Now().UTC(),
	}
}

// Released - escrow release event carrying the payouts made.
func Released(game *entity.Game, payouts []entity.Payout) Event {
	event := New(TypeEscrowReleased, "", game)
	event.Payouts = payouts

	return event
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Fanout - delivers every event to all publishers and joins their errors.
type Fanout []Publisher

func (that Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error

	for _, publisher := range that {
		if err := publisher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type Discard struct{}

func (Discard) Publish(context.Context, Event) error {
	return nil
}
