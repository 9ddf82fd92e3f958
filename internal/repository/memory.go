package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore - Store kept in process memory. Transactions are serialized by one lock.
type MemoryStore struct {
	mu sync.RWMutex

	counter uint64
	games   map[uint64]*entity.Game
	escrows map[uint64]*entity.Escrow
	stats   map[string]*entity.PlayerStats
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[uint64]*entity.Game),
		escrows: make(map[uint64]*entity.Escrow),
		stats:   make(map[string]*entity.PlayerStats),
	}
}

func (that *MemoryStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	uow := newUnitOfWork((*memoryLoader)(that))
	if err := fn(uow); err != nil {
		return err
	}

	if uow.counterDirty {
		that.counter = *uow.counter
	}

	for id := range uow.dirtyGames {
		that.games[id] = uow.games[id].Clone()
	}

	for id := range uow.dirtyEscrows {
		that.escrows[id] = uow.escrows[id].Clone()
	}

	for player := range uow.dirtyStats {
		stats := *uow.stats[player]
		that.stats[player] = &stats
	}

	return nil
}

func (that *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	return fn(newUnitOfWork((*memoryLoader)(that)))
}

func (that *MemoryStore) Close() error {
	return nil
}

// memoryLoader hands out copies so uncommitted changes never reach the maps.
type memoryLoader MemoryStore

func (that *memoryLoader) loadCounter() (uint64, error) {
	return that.counter, nil
}

func (that *memoryLoader) loadGame(id uint64) (*entity.Game, bool, error) {
	game, ok := that.games[id]
	if !ok {
		return nil, false, nil
	}

	return game.Clone(), true, nil
}

func (that *memoryLoader) loadEscrow(gameID uint64) (*entity.Escrow, bool, error) {
	escrow, ok := that.escrows[gameID]
	if !ok {
		return nil, false, nil
	}

	return escrow.Clone(), true, nil
}

func (that *memoryLoader) loadStats(player string) (*entity.PlayerStats, bool, error) {
	stats, ok := that.stats[player]
	if !ok {
		return nil, false, nil
	}

	clone := *stats

	return &clone, true, nil
}
