package repository

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
)

// GameRecords - game records visible inside a transaction.
type GameRecords interface {
	// NextID reserves the next game id. The counter only moves if the transaction commits.
	NextID() (uint64, error)
	LatestID() (uint64, error)
	GetByID(id uint64) (*entity.Game, error)
	Save(game *entity.Game)
}

// EscrowLedger - custody of staked value per game.
type EscrowLedger interface {
	Fund(gameID uint64, payer string, amount uint64) error
	Release(gameID uint64, payouts []entity.Payout) error
	Balance(gameID uint64) (uint64, error)
	GetByID(gameID uint64) (*entity.Escrow, error)
}

// StatsBook - per-player cumulative statistics.
type StatsBook interface {
	GetByID(player string) (entity.PlayerStats, error)
	RecordResult(player string, result entity.Result, delta uint64) error
	RecordDraw(player string) error
}

// Tx - one unit of work. Everything written through it becomes visible
// together when the transaction commits, or not at all.
type Tx interface {
	Games() GameRecords
	Escrow() EscrowLedger
	Stats() StatsBook
}

// Store - transactional access to games, escrow and stats.
type Store interface {
	// Atomically runs fn and commits its writes if fn returns nil.
	Atomically(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against current state; writes are discarded.
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// loader reads committed state. Missing records report ok == false.
type loader interface {
	loadCounter() (uint64, error)
	loadGame(id uint64) (*entity.Game, bool, error)
	loadEscrow(gameID uint64) (*entity.Escrow, bool, error)
	loadStats(player string) (*entity.PlayerStats, bool, error)
}

// unitOfWork caches every record it reads and tracks which ones changed.
type unitOfWork struct {
	load loader

	counter      *uint64
	counterDirty bool

	games   map[uint64]*entity.Game
	escrows map[uint64]*entity.Escrow
	stats   map[string]*entity.PlayerStats

	dirtyGames   map[uint64]struct{}
	dirtyEscrows map[uint64]struct{}
	dirtyStats   map[string]struct{}
}

func newUnitOfWork(load loader) *unitOfWork {
	return &unitOfWork{
		load:         load,
		games:        make(map[uint64]*entity.Game),
		escrows:      make(map[uint64]*entity.Escrow),
		stats:        make(map[string]*entity.PlayerStats),
		dirtyGames:   make(map[uint64]struct{}),
		dirtyEscrows: make(map[uint64]struct{}),
		dirtyStats:   make(map[string]struct{}),
	}
}

func (that *unitOfWork) Games() GameRecords {
	return (*gameRecords)(that)
}

func (that *unitOfWork) Escrow() EscrowLedger {
	return (*escrowLedger)(that)
}

func (that *unitOfWork) Stats() StatsBook {
	return (*statsBook)(that)
}

func (that *unitOfWork) getCounter() (uint64, error) {
	if that.counter == nil {
		counter, err := that.load.loadCounter()
		if err != nil {
			return 0, fmt.Errorf("failed to load game counter: %w", err)
		}
		that.counter = &counter
	}

	return *that.counter, nil
}

func (that *unitOfWork) getGame(id uint64) (*entity.Game, error) {
	if game, ok := that.games[id]; ok {
		return game, nil
	}

	game, ok, err := that.load.loadGame(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game %d: %w", id, err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %d", apperror.ErrGameNotFound, id)
	}

	that.games[id] = game

	return game, nil
}

func (that *unitOfWork) getEscrow(gameID uint64) (*entity.Escrow, error) {
	if escrow, ok := that.escrows[gameID]; ok {
		return escrow, nil
	}

	escrow, ok, err := that.load.loadEscrow(gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load escrow of game %d: %w", gameID, err)
	}

	if !ok {
		escrow = entity.NewEscrow(gameID)
	}

	that.escrows[gameID] = escrow

	return escrow, nil
}

func (that *unitOfWork) getStats(player string) (*entity.PlayerStats, error) {
	if stats, ok := that.stats[player]; ok {
		return stats, nil
	}

	stats, ok, err := that.load.loadStats(player)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats of %s: %w", player, err)
	}

	if !ok {
		stats = &entity.PlayerStats{}
	}

	that.stats[player] = stats

	return stats, nil
}

type gameRecords unitOfWork

func (that *gameRecords) NextID() (uint64, error) {
	uow := (*unitOfWork)(that)

	id, err := uow.getCounter()
	if err != nil {
		return 0, err
	}

	next := id + 1
	uow.counter = &next
	uow.counterDirty = true

	return id, nil
}

func (that *gameRecords) LatestID() (uint64, error) {
	return (*unitOfWork)(that).getCounter()
}

func (that *gameRecords) GetByID(id uint64) (*entity.Game, error) {
	return (*unitOfWork)(that).getGame(id)
}

func (that *gameRecords) Save(game *entity.Game) {
	that.games[game.ID] = game
	that.dirtyGames[game.ID] = struct{}{}
}

type escrowLedger unitOfWork

func (that *escrowLedger) GetByID(gameID uint64) (*entity.Escrow, error) {
	return (*unitOfWork)(that).getEscrow(gameID)
}

func (that *escrowLedger) Balance(gameID uint64) (uint64, error) {
	escrow, err := that.GetByID(gameID)
	if err != nil {
		return 0, err
	}

	return escrow.Balance, nil
}

func (that *escrowLedger) Fund(gameID uint64, payer string, amount uint64) error {
	escrow, err := that.GetByID(gameID)
	if err != nil {
		return err
	}

	if err = escrow.Fund(payer, amount); err != nil {
		return fmt.Errorf("failed to fund escrow: %w", err)
	}

	that.dirtyEscrows[gameID] = struct{}{}

	return nil
}

func (that *escrowLedger) Release(gameID uint64, payouts []entity.Payout) error {
	escrow, err := that.GetByID(gameID)
	if err != nil {
		return err
	}

	if err = escrow.Release(payouts); err != nil {
		return fmt.Errorf("failed to release escrow: %w", err)
	}

	that.dirtyEscrows[gameID] = struct{}{}

	return nil
}

type statsBook unitOfWork

func (that *statsBook) GetByID(player string) (entity.PlayerStats, error) {
	stats, err := (*unitOfWork)(that).getStats(player)
	if err != nil {
		return entity.PlayerStats{}, err
	}

	return *stats, nil
}

func (that *statsBook) RecordResult(player string, result entity.Result, delta uint64) error {
	stats, err := (*unitOfWork)(that).getStats(player)
	if err != nil {
		return err
	}

	if err = stats.RecordResult(result, delta); err != nil {
		return fmt.Errorf("failed to record result of %s: %w", player, err)
	}

	that.dirtyStats[player] = struct{}{}

	return nil
}

func (that *statsBook) RecordDraw(player string) error {
	stats, err := (*unitOfWork)(that).getStats(player)
	if err != nil {
		return err
	}

	if err = stats.RecordDraw(); err != nil {
		return fmt.Errorf("failed to record draw of %s: %w", player, err)
	}

	that.dirtyStats[player] = struct{}{}

	return nil
}
