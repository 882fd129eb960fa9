package game

import "github.com/lox/blackjack/internal/deck"

// DealerStandsOn is the value at which the dealer stops drawing
const DealerStandsOn = 17

// Drawer supplies cards to a hand
type Drawer interface {
	Draw() (deck.Card, error)
}

// DealerPolicy is the house rule for completing the dealer's hand. Soft
// and hard totals are treated alike.
type DealerPolicy struct {
	StandOn int
}

// DefaultDealerPolicy returns the policy that stands on all 17s
func DefaultDealerPolicy() DealerPolicy {
	return DealerPolicy{StandOn: DealerStandsOn}
}

// ShouldDraw reports whether the dealer must take another card
func (p DealerPolicy) ShouldDraw(h Hand) bool {
	return h.Value() < p.standOn()
}

// Play draws into h until the policy says stop. Cards drawn before an
// error are kept in the hand.
func (p DealerPolicy) Play(h *Hand, d Drawer) error {
	for p.ShouldDraw(*h) {
		card, err := d.Draw()
		if err != nil {
			return err
		}
		h.Add(card)
	}
	return nil
}

func (p DealerPolicy) standOn() int {
	if p.StandOn <= 0 {
		return DealerStandsOn
	}
	return p.StandOn
}
