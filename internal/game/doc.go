// Package game implements the rules of single-player blackjack.
//
// The main type is Table, a state machine that owns the deck and both hands
// for one round at a time, and a Ledger that carries the player's balance
// across rounds.
//
// # Basic Usage
//
//	ledger := game.NewLedger(1000)
//	t := game.NewTable(ledger, game.WithRNG(randutil.New(42)))
//	_ = t.PlaceBet(100)
//	_ = t.ConfirmBet()
//	_ = t.Hit()
//	_ = t.Stand()
//	snap := t.Snapshot()
//	_ = t.NewRound()
//
// Rejected actions return ErrInvalidBet, ErrIllegalTransition or ErrGameOver
// and leave the state untouched, so callers can log and carry on.
//
// # Deterministic Testing
//
// WithRNG seeds the random draw. WithDeck replaces the deck factory so a test
// can stage the exact cards dealt:
//
//	t := game.NewTable(ledger, game.WithDeck(func() *deck.Deck {
//	    return deck.NewOrdered(deck.MustParseCards("Th9c7d Ks")...)
//	}))
//
// Cards are dealt in the order player, player, dealer, then as requested.
package game
