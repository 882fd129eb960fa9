package game

import "errors"

var (
	// ErrInvalidBet is returned for a bet that is not positive, exceeds
	// the balance, or is placed outside the betting phase.
	ErrInvalidBet = errors.New("invalid bet")

	// ErrIllegalTransition is returned for an action the current state
	// does not allow, such as hitting during the dealer turn.
	ErrIllegalTransition = errors.New("illegal transition")

	// ErrGameOver is returned once the balance has reached zero.
	ErrGameOver = errors.New("game over")
)
