package game

import "fmt"

// Winner identifies who took the round
type Winner int

const (
	NoWinner Winner = iota // round not decided yet
	PlayerWins
	DealerWins
	Push
)

// String returns the string representation of a winner
func (w Winner) String() string {
	switch w {
	case NoWinner:
		return "none"
	case PlayerWins:
		return "player"
	case DealerWins:
		return "dealer"
	case Push:
		return "push"
	default:
		return "unknown"
	}
}

// MarshalText encodes the winner as its string form
func (w Winner) MarshalText() ([]byte, error) {
	if w < NoWinner || w > Push {
		return nil, fmt.Errorf("unknown winner %d", int(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText decodes a winner written by MarshalText
func (w *Winner) UnmarshalText(text []byte) error {
	for _, candidate := range []Winner{NoWinner, PlayerWins, DealerWins, Push} {
		if candidate.String() == string(text) {
			*w = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown winner %q", text)
}

// Outcome is the result of a round
type Outcome struct {
	Winner  Winner `json:"winner"`
	Message string `json:"message"`
}

// Decided reports whether the outcome has been set
func (o Outcome) Decided() bool {
	return o.Winner != NoWinner
}

// Round result messages
const (
	MsgBothBust      = "Both Bust! It's a Draw!"
	MsgPlayerBust    = "Player Bust! Dealer Wins!"
	MsgDealerBust    = "Dealer Bust! Player Wins!"
	MsgPlayerWins    = "Player Wins!"
	MsgDealerWins    = "Dealer Wins!"
	MsgDraw          = "It's a Draw!"
	MsgBlackjack     = "Blackjack! Player Wins!"
	MsgDeckExhausted = "Deck Exhausted! Round Void."
)

var (
	playerBustOutcome = Outcome{Winner: DealerWins, Message: MsgPlayerBust}
	blackjackOutcome  = Outcome{Winner: PlayerWins, Message: MsgBlackjack}
	voidOutcome       = Outcome{Winner: Push, Message: MsgDeckExhausted}
)

// CompareHands decides a round that reached the dealer turn
func CompareHands(player, dealer Hand) Outcome {
	pv, dv := player.Value(), dealer.Value()

	switch {
	case pv > BlackjackValue && dv > BlackjackValue:
		return Outcome{Winner: Push, Message: MsgBothBust}
	case pv > BlackjackValue:
		return Outcome{Winner: DealerWins, Message: MsgPlayerBust}
	case dv > BlackjackValue:
		return Outcome{Winner: PlayerWins, Message: MsgDealerBust}
	case pv > dv:
		return Outcome{Winner: PlayerWins, Message: MsgPlayerWins}
	case pv < dv:
		return Outcome{Winner: DealerWins, Message: MsgDealerWins}
	default:
		return Outcome{Winner: Push, Message: MsgDraw}
	}
}
