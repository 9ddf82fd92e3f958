package apperror

import "errors"

// Code - stable numeric identity of an error, shared with API consumers.
type Code uint16

const (
	CodeZeroStake        Code = 100
	CodeInvalidMove      Code = 101
	CodeGameNotFound     Code = 102
	CodeAlreadyJoined    Code = 103
	CodeNotYourTurn      Code = 104
	CodeGameFinished     Code = 105
	CodeGameNotStarted   Code = 106
	CodeStakeTooLarge    Code = 107
	CodeInvalidPlayer    Code = 108
	CodeAlreadySettled   Code = 110
	CodeOverflow         Code = 111
	CodeConcurrentUpdate Code = 112
	CodePayoutMismatch   Code = 113
)

// Kind groups errors by who has to react to them.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindStateConflict
	KindInvariantViolation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStateConflict:
		return "state_conflict"
	case KindInvariantViolation:
		return "invariant_violation"
	default:
		return "internal"
	}
}

type Error struct {
	Code    Code
	Kind    Kind
	Message string
}

func (that *Error) Error() string {
	return that.Message
}

func newError(code Code, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

var (
	ErrZeroStake     = newError(CodeZeroStake, KindValidation, "stake must be greater than zero")
	ErrStakeTooLarge = newError(CodeStakeTooLarge, KindValidation, "stake is too large")
	ErrInvalidMove   = newError(CodeInvalidMove, KindValidation, "invalid move")
	ErrInvalidPlayer = newError(CodeInvalidPlayer, KindValidation, "player identity is required")

	ErrGameNotFound     = newError(CodeGameNotFound, KindStateConflict, "game not found")
	ErrAlreadyJoined    = newError(CodeAlreadyJoined, KindStateConflict, "game cannot be joined")
	ErrNotYourTurn      = newError(CodeNotYourTurn, KindStateConflict, "it's not your turn")
	ErrGameFinished     = newError(CodeGameFinished, KindStateConflict, "game is already finished")
	ErrGameIsNotStarted = newError(CodeGameNotStarted, KindStateConflict, "game is not started")
	ErrConcurrentUpdate = newError(CodeConcurrentUpdate, KindStateConflict, "game was updated concurrently")

	ErrAlreadySettled = newError(CodeAlreadySettled, KindInvariantViolation, "escrow is already settled")
	ErrOverflow       = newError(CodeOverflow, KindInvariantViolation, "value overflow")
	ErrPayoutMismatch = newError(CodePayoutMismatch, KindInvariantViolation, "payouts do not match escrow balance")
)

// Lookup - returns the first *Error in the chain of err.
func Lookup(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// CodeOf - returns the code of err, ok is false for errors outside the taxonomy.
func CodeOf(err error) (Code, bool) {
	appErr, ok := Lookup(err)
	if !ok {
		return 0, false
	}

	return appErr.Code, true
}

// KindOf - returns KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	appErr, ok := Lookup(err)
	if !ok {
		return KindInternal
	}

	return appErr.Kind
}
