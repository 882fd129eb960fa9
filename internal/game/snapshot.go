package game

import "github.com/lox/blackjack/internal/deck"

// Snapshot is a read-only copy of everything a front end needs to render
// the table
type Snapshot struct {
	Round          int         `json:"round"`
	State          RoundState  `json:"state"`
	PlayerHand     []deck.Card `json:"playerHand"`
	DealerHand     []deck.Card `json:"dealerHand"`
	PlayerValue    int         `json:"playerValue"`
	DealerValue    int         `json:"dealerValue"`
	Outcome        Outcome     `json:"outcome"`
	Balance        int         `json:"balance"`
	CurrentBet     int         `json:"currentBet"`
	GameOver       bool        `json:"gameOver"`
	CardsRemaining int         `json:"cardsRemaining"`
}

// ValidActions lists the actions the table would accept in this state
func (s Snapshot) ValidActions() []Action {
	if s.GameOver {
		return nil
	}
	switch s.State {
	case Betting:
		actions := []Action{ActionBet, ActionClear}
		if s.CurrentBet > 0 {
			actions = append(actions, ActionDeal)
		}
		return actions
	case PlayerTurn:
		return []Action{ActionHit, ActionStand}
	case Settled:
		return []Action{ActionNew}
	default:
		return nil
	}
}

// Allows reports whether a is currently valid
func (s Snapshot) Allows(a Action) bool {
	for _, candidate := range s.ValidActions() {
		if candidate == a {
			return true
		}
	}
	return false
}
