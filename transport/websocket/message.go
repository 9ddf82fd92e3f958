package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager/internal/events"
)

const actionSnapshot = "game:snapshot"

// Message - envelope of everything written to a subscriber.
// Action is an event type or game:snapshot.
type Message struct {
	Action  string          `json:"action"`
	GameID  uint64          `json:"game_id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func eventMessage(event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Message{
		Action:  string(event.Type),
		GameID:  event.GameID,
		Payload: payload,
	})
}

func snapshotMessage(view entity.GameView) ([]byte, error) {
	payload, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Message{
		Action:  actionSnapshot,
		GameID:  view.ID,
		Payload: payload,
	})
}
