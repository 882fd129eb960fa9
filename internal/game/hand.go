package game

import (
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

// BlackjackValue is the best possible hand value
const BlackjackValue = 21

// Hand is the ordered cards held by the player or the dealer
type Hand []deck.Card

// NewHand creates a hand from cards
func NewHand(cards ...deck.Card) Hand {
	h := make(Hand, 0, len(cards))
	return append(h, cards...)
}

// Add appends a drawn card
func (h *Hand) Add(c deck.Card) {
	*h = append(*h, c)
}

// Value returns the blackjack value of the hand. Aces count 11 and are
// reduced to 1 one at a time only while the hand would otherwise bust.
func (h Hand) Value() int {
	value, _ := h.evaluate()
	return value
}

// IsSoft reports whether an ace in the hand is still counted as 11
func (h Hand) IsSoft() bool {
	_, softAces := h.evaluate()
	return softAces > 0
}

// IsBust reports whether the hand is over 21
func (h Hand) IsBust() bool {
	return h.Value() > BlackjackValue
}

func (h Hand) evaluate() (value, softAces int) {
	for _, c := range h {
		value += CardValue(c)
		if c.IsAce() {
			softAces++
		}
	}
	for value > BlackjackValue && softAces > 0 {
		value -= 10
		softAces--
	}
	return value, softAces
}

// CardValue returns the initial contribution of a card: faces are 10, aces 11
func CardValue(c deck.Card) int {
	switch {
	case c.IsAce():
		return 11
	case c.IsFaceCard():
		return 10
	default:
		return int(c.Rank)
	}
}

// Cards returns a copy of the hand's cards
func (h Hand) Cards() []deck.Card {
	out := make([]deck.Card, len(h))
	copy(out, h)
	return out
}

// String returns the cards separated by spaces (e.g., "A♠ 10♥")
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
