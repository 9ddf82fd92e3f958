package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager/internal/events"
	"github.com/rocketscienceinc/tictactoe-wager/internal/repository"
)

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// GameEngine - runs the game state machine. Every transition commits the game
// record, its escrow and the players' stats in one store transaction.
type GameEngine struct {
	logger    *slog.Logger
	store     repository.Store
	publisher eventPublisher
	maxStake  uint64
}

// NewGameEngine - maxStake of zero (or above entity.MaxStake) means entity.MaxStake.
func NewGameEngine(logger *slog.Logger, store repository.Store, publisher eventPublisher, maxStake uint64) *GameEngine {
	if maxStake == 0 || maxStake > entity.MaxStake {
		maxStake = entity.MaxStake
	}

	if publisher == nil {
		publisher = events.Discard{}
	}

	return &GameEngine{
		logger:    logger.With("component", "game-engine"),
		store:     store,
		publisher: publisher,
		maxStake:  maxStake,
	}
}

// Create - opens a game with the creator's first move and escrows the stake.
func (that *GameEngine) Create(ctx context.Context, creator string, stake uint64, index int, mark entity.Cell) (uint64, error) {
	log := that.logger.With("method", "Create", "creator", creator)

	if err := that.validate(creator, stake); err != nil {
		return 0, err
	}

	var game *entity.Game

	err := that.store.Atomically(ctx, func(tx repository.Tx) error {
		id, err := tx.Games().NextID()
		if err != nil {
			return fmt.Errorf("failed to allocate game id: %w", err)
		}

		game, err = entity.NewGame(id, creator, stake, index, mark)
		if err != nil {
			return err
		}

		tx.Games().Save(game)

		return tx.Escrow().Fund(id, creator, stake)
	})
	if err != nil {
		return 0, that.fail(log, "failed to create game", err)
	}

	log.Info("game created", "game_id", game.ID, "stake", stake)
	that.publish(ctx, events.New(events.TypeGameCreated, creator, game))

	return game.ID, nil
}

// Join - seats the joiner as player two, places their first move and escrows the matching stake.
func (that *GameEngine) Join(ctx context.Context, id uint64, joiner string, index int, mark entity.Cell) error {
	log := that.logger.With("method", "Join", "game_id", id, "joiner", joiner)

	if joiner == "" {
		return apperror.ErrInvalidPlayer
	}

	var game *entity.Game

	err := that.store.Atomically(ctx, func(tx repository.Tx) error {
		var err error

		game, err = tx.Games().GetByID(id)
		if err != nil {
			return err
		}

		if err = game.Join(joiner, index, mark); err != nil {
			return err
		}

		if err = tx.Escrow().Fund(id, joiner, game.Stake); err != nil {
			return err
		}

		tx.Games().Save(game)

		return nil
	})
	if err != nil {
		return that.fail(log, "failed to join game", err)
	}

	log.Info("game joined")
	that.publish(ctx, events.New(events.TypeGameJoined, joiner, game))

	return nil
}

// Play - applies the mover's move. A terminal move settles the game in the same transaction.
func (that *GameEngine) Play(ctx context.Context, id uint64, mover string, index int, mark entity.Cell) error {
	log := that.logger.With("method", "Play", "game_id", id, "mover", mover)

	if mover == "" {
		return apperror.ErrInvalidPlayer
	}

	var (
		game    *entity.Game
		status  entity.TerminalStatus
		payouts []entity.Payout
	)

	err := that.store.Atomically(ctx, func(tx repository.Tx) error {
		var err error

		game, err = tx.Games().GetByID(id)
		if err != nil {
			return err
		}

		if status, err = game.Play(mover, index, mark); err != nil {
			return err
		}

		tx.Games().Save(game)

		if !status.IsTerminal() {
			payouts = nil
			return nil
		}

		payouts, err = settle(tx, game, status)

		return err
	})
	if err != nil {
		return that.fail(log, "failed to play", err)
	}

	that.publish(ctx, events.New(events.TypeGameMove, mover, game))

	switch status.Outcome {
	case entity.Win:
		log.Info("game won", "winner", game.Winner, "pot", game.Pot())
		that.publish(ctx, events.New(events.TypeGameWon, game.Winner, game))
	case entity.Draw:
		log.Info("game drawn", "stake", game.Stake)
		that.publish(ctx, events.New(events.TypeGameDraw, "", game))
	default:
		return nil
	}

	that.publish(ctx, events.Released(game, payouts))

	return nil
}

// settle - pays out the escrow and records the result for both players.
// The whole pot goes to the winner; a draw returns each player's stake.
func settle(tx repository.Tx, game *entity.Game, status entity.TerminalStatus) ([]entity.Payout, error) {
	var payouts []entity.Payout

	switch status.Outcome {
	case entity.Win:
		winner := game.Winner
		loser := game.Opponent(winner)

		payouts = []entity.Payout{{Recipient: winner, Amount: game.Pot()}}
		if err := tx.Escrow().Release(game.ID, payouts); err != nil {
			return nil, err
		}

		if err := tx.Stats().RecordResult(winner, entity.ResultWon, game.Pot()); err != nil {
			return nil, err
		}

		if err := tx.Stats().RecordResult(loser, entity.ResultLost, game.Stake); err != nil {
			return nil, err
		}
	case entity.Draw:
		payouts = []entity.Payout{
			{Recipient: game.PlayerOne, Amount: game.Stake},
			{Recipient: game.PlayerTwo, Amount: game.Stake},
		}
		if err := tx.Escrow().Release(game.ID, payouts); err != nil {
			return nil, err
		}

		for _, player := range []string{game.PlayerOne, game.PlayerTwo} {
			if err := tx.Stats().RecordDraw(player); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("cannot settle game %d with outcome %s", game.ID, status.Outcome)
	}

	return payouts, nil
}

// GetGame - returns the view of a game; ok is false when the game does not exist.
func (that *GameEngine) GetGame(ctx context.Context, id uint64) (entity.GameView, bool, error) {
	var game *entity.Game

	err := that.store.View(ctx, func(tx repository.Tx) error {
		var err error
		game, err = tx.Games().GetByID(id)
		return err
	})

	if errors.Is(err, apperror.ErrGameNotFound) {
		return entity.GameView{}, false, nil
	}

	if err != nil {
		return entity.GameView{}, false, fmt.Errorf("failed to get game: %w", err)
	}

	return game.View(), true, nil
}

// GetPlayerStats - unseen players have zero stats.
func (that *GameEngine) GetPlayerStats(ctx context.Context, player string) (entity.PlayerStats, error) {
	var stats entity.PlayerStats

	err := that.store.View(ctx, func(tx repository.Tx) error {
		var err error
		stats, err = tx.Stats().GetByID(player)
		return err
	})
	if err != nil {
		return entity.PlayerStats{}, fmt.Errorf("failed to get player stats: %w", err)
	}

	return stats, nil
}

// GetLatestGameID - number of games ever created; ids in [0, latest) exist.
func (that *GameEngine) GetLatestGameID(ctx context.Context) (uint64, error) {
	var latest uint64

	err := that.store.View(ctx, func(tx repository.Tx) error {
		var err error
		latest, err = tx.Games().LatestID()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get latest game id: %w", err)
	}

	return latest, nil
}

func (that *GameEngine) GetEscrow(ctx context.Context, id uint64) (*entity.Escrow, error) {
	var escrow *entity.Escrow

	err := that.store.View(ctx, func(tx repository.Tx) error {
		if _, err := tx.Games().GetByID(id); err != nil {
			return err
		}

		var err error
		escrow, err = tx.Escrow().GetByID(id)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}

	return escrow, nil
}

func (that *GameEngine) GetEscrowBalance(ctx context.Context, id uint64) (uint64, error) {
	escrow, err := that.GetEscrow(ctx, id)
	if err != nil {
		return 0, err
	}

	return escrow.Balance, nil
}

func (that *GameEngine) validate(creator string, stake uint64) error {
	if creator == "" {
		return apperror.ErrInvalidPlayer
	}

	if err := entity.ValidateStake(stake); err != nil {
		return err
	}

	if stake > that.maxStake {
		return fmt.Errorf("%w: %d exceeds %d", apperror.ErrStakeTooLarge, stake, that.maxStake)
	}

	return nil
}

// fail - logs invariant violations and storage failures; caller errors pass through quietly.
func (that *GameEngine) fail(log *slog.Logger, msg string, err error) error {
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindStateConflict:
		log.Debug(msg, "error", err)
		return err
	case apperror.KindInvariantViolation:
		log.Error("invariant violated", "error", err)
	default:
		log.Error(msg, "error", err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func (that *GameEngine) publish(ctx context.Context, event events.Event) {
	if err := that.publisher.Publish(ctx, event); err != nil {
		that.logger.Warn("failed to publish event", "type", event.Type, "game_id", event.GameID, "error", err)
	}
}
