package entity

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
)

type Result uint8

const (
	ResultWon Result = iota + 1
	ResultLost
)

// PlayerStats - cumulative results of one player. The zero value is a player with no finished games.
type PlayerStats struct {
	GamesPlayed    uint64 `json:"games_played"`
	GamesWon       uint64 `json:"games_won"`
	GamesLost      uint64 `json:"games_lost"`
	TotalValueWon  uint64 `json:"total_value_won"`
	TotalValueLost uint64 `json:"total_value_lost"`
}

// RecordResult - counts a decisive game. delta is added to the value won or lost.
// Nothing changes when an accumulator would overflow.
func (that *PlayerStats) RecordResult(result Result, delta uint64) error {
	next := *that

	var err error
	if next.GamesPlayed, err = increment(next.GamesPlayed, 1); err != nil {
		return err
	}

	switch result {
	case ResultWon:
		if next.GamesWon, err = increment(next.GamesWon, 1); err != nil {
			return err
		}
		if next.TotalValueWon, err = increment(next.TotalValueWon, delta); err != nil {
			return err
		}
	case ResultLost:
		if next.GamesLost, err = increment(next.GamesLost, 1); err != nil {
			return err
		}
		if next.TotalValueLost, err = increment(next.TotalValueLost, delta); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown result: %d", result)
	}

	*that = next

	return nil
}

// RecordDraw - a draw counts as played, neither won nor lost.
func (that *PlayerStats) RecordDraw() error {
	played, err := increment(that.GamesPlayed, 1)
	if err != nil {
		return err
	}

	that.GamesPlayed = played

	return nil
}

// WinRate - percentage of played games that were won.
func (that PlayerStats) WinRate() float64 {
	if that.GamesPlayed == 0 {
		return 0
	}

	return float64(that.GamesWon) / float64(that.GamesPlayed) * 100
}

// NetValue - value won minus value lost, clamped to the int64 range.
func (that PlayerStats) NetValue() int64 {
	if that.TotalValueWon >= that.TotalValueLost {
		diff := that.TotalValueWon - that.TotalValueLost
		if diff > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(diff)
	}

	diff := that.TotalValueLost - that.TotalValueWon
	if diff > math.MaxInt64 {
		return math.MinInt64
	}

	return -int64(diff)
}

func increment(value, delta uint64) (uint64, error) {
	sum, carry := bits.Add64(value, delta, 0)
	if carry != 0 {
		return value, apperror.ErrOverflow
	}

	return sum, nil
}
