package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in deck order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the single-letter code used in card text ("s", "h", "d", "c")
func (s Suit) Letter() string {
	switch s {
	case Spades:
		return "s"
	case Hearts:
		return "h"
	case Diamonds:
		return "d"
	case Clubs:
		return "c"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the rank as printed on the card face
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// letter is the single-character form used in compact card text
func (r Rank) letter() string {
	if r == Ten {
		return "T"
	}
	return r.String()
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the display form of a card (e.g., "A♠", "10♥")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Code returns the compact text form of a card (e.g., "As", "Th")
func (c Card) Code() string {
	return c.Rank.letter() + c.Suit.Letter()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// IsFaceCard returns true if the card is a face card (J, Q, K)
func (c Card) IsFaceCard() bool {
	return c.Rank >= Jack && c.Rank <= King
}

// Valid reports whether the card is one of the 52 standard cards
func (c Card) Valid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Spades && c.Suit <= Clubs
}

// MarshalText encodes the card in its compact text form.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card: rank %d suit %d", c.Rank, c.Suit)
	}
	return []byte(c.Code()), nil
}

// UnmarshalText decodes a card from its compact text form.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses a single card such as "As", "Th" or "10h"
func ParseCard(s string) (Card, error) {
	cards, err := ParseCards(s)
	if err != nil {
		return Card{}, err
	}
	if len(cards) != 1 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}
	return cards[0], nil
}

// ParseCards parses a run of cards such as "AsKd10h" or "As Kd Th".
// Ranks and suits are case insensitive.
func ParseCards(s string) ([]Card, error) {
	s = strings.ToUpper(strings.NewReplacer(" ", "", ",", "").Replace(s))
	cards := []Card{}

	for len(s) > 0 {
		var rank Rank
		width := 1
		switch {
		case strings.HasPrefix(s, "10"):
			rank, width = Ten, 2
		case s[0] >= '2' && s[0] <= '9':
			rank = Rank(s[0] - '0')
		case s[0] == 'T':
			rank = Ten
		case s[0] == 'J':
			rank = Jack
		case s[0] == 'Q':
			rank = Queen
		case s[0] == 'K':
			rank = King
		case s[0] == 'A':
			rank = Ace
		default:
			return nil, fmt.Errorf("invalid rank: %c", s[0])
		}
		s = s[width:]

		if len(s) == 0 {
			return nil, fmt.Errorf("missing suit after rank %s", rank)
		}
		var suit Suit
		switch s[0] {
		case 'S':
			suit = Spades
		case 'H':
			suit = Hearts
		case 'D':
			suit = Diamonds
		case 'C':
			suit = Clubs
		default:
			return nil, fmt.Errorf("invalid suit: %c", s[0])
		}
		s = s[1:]

		cards = append(cards, NewCard(suit, rank))
	}

	return cards, nil
}

// MustParseCards is like ParseCards but panics on error. Intended for tests.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}
