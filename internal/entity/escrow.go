package entity

import (
	"fmt"
	"math/bits"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
)

type Deposit struct {
	Payer  string `json:"payer"`
	Amount uint64 `json:"amount"`
}

type Payout struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// Escrow - custody of the value staked on one game.
// Balance is stake after create, the full pot after join and zero once settled.
type Escrow struct {
	GameID   uint64    `json:"game_id"`
	Balance  uint64    `json:"balance"`
	Settled  bool      `json:"settled"`
	Deposits []Deposit `json:"deposits,omitempty"`
	Payouts  []Payout  `json:"payouts,omitempty"`
}

func NewEscrow(gameID uint64) *Escrow {
	return &Escrow{GameID: gameID}
}

// Fund - takes amount from payer into custody.
func (that *Escrow) Fund(payer string, amount uint64) error {
	if that.Settled {
		return fmt.Errorf("%w: game %d", apperror.ErrAlreadySettled, that.GameID)
	}

	if amount == 0 {
		return apperror.ErrZeroStake
	}

	balance, carry := bits.Add64(that.Balance, amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: escrow of game %d", apperror.ErrOverflow, that.GameID)
	}

	that.Balance = balance
	that.Deposits = append(that.Deposits, Deposit{Payer: payer, Amount: amount})

	return nil
}

// Release - pays the whole balance out exactly once.
// The payouts must add up to the balance; a second call fails with ErrAlreadySettled.
func (that *Escrow) Release(payouts []Payout) error {
	if that.Settled {
		return fmt.Errorf("%w: game %d", apperror.ErrAlreadySettled, that.GameID)
	}

	var total uint64
	for _, payout := range payouts {
		sum, carry := bits.Add64(total, payout.Amount, 0)
		if carry != 0 {
			return fmt.Errorf("%w: payouts of game %d", apperror.ErrOverflow, that.GameID)
		}
		total = sum
	}

	if total != that.Balance {
		return fmt.Errorf("%w: paying %d out of %d", apperror.ErrPayoutMismatch, total, that.Balance)
	}

	that.Balance = 0
	that.Settled = true
	that.Payouts = append(that.Payouts, payouts...)

	return nil
}

func (that *Escrow) Clone() *Escrow {
	clone := *that
	clone.Deposits = append([]Deposit(nil), that.Deposits...)
	clone.Payouts = append([]Payout(nil), that.Payouts...)

	return &clone
}
