package deck

import (
	"errors"
	rand "math/rand/v2"
)

// Size is the number of cards in a full deck
const Size = 52

// ErrDeckExhausted is returned when drawing from an empty deck
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is a single 52-card deck that cards are drawn from without
// replacement. A random deck draws a uniformly random remaining card; an
// ordered deck draws from the front, which lets tests stage exact hands.
type Deck struct {
	cards []Card
	order []Card // initial order for ordered decks, nil for random decks
	rng   *rand.Rand
}

// New creates a full deck that draws using rng.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("rng is required for a random deck")
	}
	d := &Deck{
		cards: make([]Card, 0, Size),
		rng:   rng,
	}
	d.Reset()
	return d
}

// NewOrdered creates a deck that deals the given cards front to back.
// Cards that do not appear in the list follow in standard order, so the deck
// always holds the 52 distinct cards.
func NewOrdered(top ...Card) *Deck {
	order := make([]Card, 0, Size)
	seen := make(map[Card]bool, Size)
	for _, c := range top {
		if !c.Valid() || seen[c] {
			continue
		}
		seen[c] = true
		order = append(order, c)
	}
	for _, c := range standardOrder() {
		if !seen[c] {
			order = append(order, c)
		}
	}

	d := &Deck{
		cards: make([]Card, 0, Size),
		order: order,
	}
	d.Reset()
	return d
}

func standardOrder() []Card {
	cards := make([]Card, 0, Size)
	for _, suit := range Suits {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// Draw removes and returns one card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrDeckExhausted
	}

	i := 0
	if d.rng != nil {
		i = d.rng.IntN(len(d.cards))
	}
	card := d.cards[i]
	d.cards = append(d.cards[:i], d.cards[i+1:]...)
	return card, nil
}

// Reset restores the deck to a full 52 cards, discarding what was left.
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	if d.order != nil {
		d.cards = append(d.cards, d.order...)
		return
	}
	d.cards = append(d.cards, standardOrder()...)
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
