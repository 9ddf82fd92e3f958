package usecase

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager/internal/repository"
)

type LeaderboardEntry struct {
	Player   string             `json:"player"`
	Stats    entity.PlayerStats `json:"stats"`
	WinRate  float64            `json:"win_rate"`
	NetValue int64              `json:"net_value"`
}

// Leaderboard - ranks every player that finished at least one game.
type Leaderboard struct {
	logger *slog.Logger
	store  repository.Store
}

func NewLeaderboard(logger *slog.Logger, store repository.Store) *Leaderboard {
	return &Leaderboard{
		logger: logger.With("component", "leaderboard"),
		store:  store,
	}
}

// Top - walks games [0, latest), ranks their players by win rate then games played.
// Records that cannot be read are skipped. A limit of zero returns everyone.
func (that *Leaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	log := that.logger.With("method", "Top")

	var entries []LeaderboardEntry

	err := that.store.View(ctx, func(tx repository.Tx) error {
		latest, err := tx.Games().LatestID()
		if err != nil {
			return fmt.Errorf("failed to get latest game id: %w", err)
		}

		seen := make(map[string]struct{})
		var players []string

		for id := range latest {
			if err = ctx.Err(); err != nil {
				return err
			}

			game, err := tx.Games().GetByID(id)
			if err != nil {
				log.Warn("skipping unreadable game", "game_id", id, "error", err)
				continue
			}

			for _, player := range []string{game.PlayerOne, game.PlayerTwo} {
				if _, ok := seen[player]; ok || player == "" {
					continue
				}

				seen[player] = struct{}{}
				players = append(players, player)
			}
		}

		for _, player := range players {
			stats, err := tx.Stats().GetByID(player)
			if err != nil {
				log.Warn("skipping unreadable stats", "player", player, "error", err)
				continue
			}

			if stats.GamesPlayed == 0 {
				continue
			}

			entries = append(entries, LeaderboardEntry{
				Player:   player,
				Stats:    stats,
				WinRate:  stats.WinRate(),
				NetValue: stats.NetValue(),
			})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		if c := cmp.Compare(b.WinRate, a.WinRate); c != 0 {
			return c
		}

		return cmp.Compare(b.Stats.GamesPlayed, a.Stats.GamesPlayed)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
