package game

import "fmt"

// Ledger tracks the player's balance across rounds and the bet on the
// current one.
type Ledger struct {
	balance     int
	bet         int
	lastSettled int // round number of the most recent settlement
}

// NewLedger creates a ledger for a new session
func NewLedger(balance int) *Ledger {
	if balance < 0 {
		balance = 0
	}
	return &Ledger{balance: balance}
}

// Balance returns the current balance
func (l *Ledger) Balance() int {
	return l.balance
}

// Bet returns the amount bet on the current round
func (l *Ledger) Bet() int {
	return l.bet
}

// LastSettled returns the number of the most recently settled round
func (l *Ledger) LastSettled() int {
	return l.lastSettled
}

// GameOver reports whether the balance is exhausted
func (l *Ledger) GameOver() bool {
	return l.balance == 0
}

// PlaceBet adds amount to the current bet. The total bet may not exceed the
// balance, so a lost round can never take the balance below zero.
func (l *Ledger) PlaceBet(amount int) error {
	if l.GameOver() {
		return ErrGameOver
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount %d must be positive", ErrInvalidBet, amount)
	}
	if l.bet+amount > l.balance {
		return fmt.Errorf("%w: bet %d exceeds balance %d", ErrInvalidBet, l.bet+amount, l.balance)
	}
	l.bet += amount
	return nil
}

// ClearBet removes the current bet
func (l *Ledger) ClearBet() {
	l.bet = 0
}

// Settle applies the outcome of round to the balance. It returns false and
// changes nothing if that round was already settled.
func (l *Ledger) Settle(round int, o Outcome) bool {
	if round <= l.lastSettled {
		return false
	}
	l.lastSettled = round

	switch o.Winner {
	case PlayerWins:
		l.balance += l.bet
	case DealerWins:
		l.balance -= l.bet
		if l.balance < 0 {
			l.balance = 0
		}
	}
	return true
}

// LedgerSnapshot is the ledger's observable state
type LedgerSnapshot struct {
	Balance    int `json:"balance"`
	CurrentBet int `json:"currentBet"`
}

// Snapshot returns the balance and bet
func (l *Ledger) Snapshot() LedgerSnapshot {
	return LedgerSnapshot{Balance: l.balance, CurrentBet: l.bet}
}
