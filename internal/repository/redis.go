package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
)

const (
	counterKey = "game:seq"

	DefaultMaxRetries = 16
)

func gameKey(id uint64) string {
	return "game:" + strconv.FormatUint(id, 10)
}

func escrowKey(gameID uint64) string {
	return "escrow:" + strconv.FormatUint(gameID, 10)
}

func statsKey(player string) string {
	return "stats:" + player
}

var _ Store = (*RedisStore)(nil)

// RedisStore - Store backed by Redis. Transactions are optimistic:
// every key read is WATCHed and the writes go out in one MULTI/EXEC.
type RedisStore struct {
	client     *redis.Client
	maxRetries int
}

func NewRedisStore(client *redis.Client, maxRetries int) *RedisStore {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &RedisStore{
		client:     client,
		maxRetries: maxRetries,
	}
}

func (that *RedisStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for attempt := 0; attempt < that.maxRetries; attempt++ {
		err := that.client.Watch(ctx, func(rtx *redis.Tx) error {
			uow := newUnitOfWork(&redisLoader{ctx: ctx, cmd: rtx, watch: rtx})
			if err := fn(uow); err != nil {
				return err
			}

			_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				return flushRedis(ctx, pipe, uow)
			})

			return err
		})

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return err
	}

	return fmt.Errorf("%w: gave up after %d attempts", apperror.ErrConcurrentUpdate, that.maxRetries)
}

func (that *RedisStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return fn(newUnitOfWork(&redisLoader{ctx: ctx, cmd: that.client}))
}

func (that *RedisStore) Close() error {
	if err := that.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func flushRedis(ctx context.Context, pipe redis.Pipeliner, uow *unitOfWork) error {
	if uow.counterDirty {
		pipe.Set(ctx, counterKey, strconv.FormatUint(*uow.counter, 10), 0)
	}

	for id := range uow.dirtyGames {
		if err := setJSON(ctx, pipe, gameKey(id), uow.games[id]); err != nil {
			return err
		}
	}

	for id := range uow.dirtyEscrows {
		if err := setJSON(ctx, pipe, escrowKey(id), uow.escrows[id]); err != nil {
			return err
		}
	}

	for player := range uow.dirtyStats {
		if err := setJSON(ctx, pipe, statsKey(player), uow.stats[player]); err != nil {
			return err
		}
	}

	return nil
}

func setJSON(ctx context.Context, pipe redis.Pipeliner, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal %s: %w", key, err)
	}

	pipe.Set(ctx, key, data, 0)

	return nil
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type redisWatcher interface {
	Watch(ctx context.Context, keys ...string) *redis.StatusCmd
}

// redisLoader reads keys one by one; with a watcher set each key is WATCHed before it is read.
type redisLoader struct {
	ctx   context.Context
	cmd   redisGetter
	watch redisWatcher
}

func (that *redisLoader) get(key string) ([]byte, bool, error) {
	if that.watch != nil {
		if err := that.watch.Watch(that.ctx, key).Err(); err != nil {
			return nil, false, fmt.Errorf("failed to watch %s: %w", key, err)
		}
	}

	response, err := that.cmd.Get(that.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return response, true, nil
}

func (that *redisLoader) loadCounter() (uint64, error) {
	response, ok, err := that.get(counterKey)
	if err != nil || !ok {
		return 0, err
	}

	counter, err := strconv.ParseUint(string(response), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse game counter: %w", err)
	}

	return counter, nil
}

func (that *redisLoader) loadGame(id uint64) (*entity.Game, bool, error) {
	var game entity.Game

	ok, err := that.getJSON(gameKey(id), &game)
	if err != nil || !ok {
		return nil, false, err
	}

	return &game, true, nil
}

func (that *redisLoader) loadEscrow(gameID uint64) (*entity.Escrow, bool, error) {
	var escrow entity.Escrow

	ok, err := that.getJSON(escrowKey(gameID), &escrow)
	if err != nil || !ok {
		return nil, false, err
	}

	return &escrow, true, nil
}

func (that *redisLoader) loadStats(player string) (*entity.PlayerStats, bool, error) {
	var stats entity.PlayerStats

	ok, err := that.getJSON(statsKey(player), &stats)
	if err != nil || !ok {
		return nil, false, err
	}

	return &stats, true, nil
}

func (that *redisLoader) getJSON(key string, value any) (bool, error) {
	response, ok, err := that.get(key)
	if err != nil || !ok {
		return false, err
	}

	if err = json.Unmarshal(response, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}

	return true, nil
}
