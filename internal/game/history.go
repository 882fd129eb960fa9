package game

import (
	"fmt"
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

// RoundRecord summarises a settled round
type RoundRecord struct {
	Round        int         `json:"round"`
	PlayerHand   []deck.Card `json:"playerHand"`
	DealerHand   []deck.Card `json:"dealerHand"`
	PlayerValue  int         `json:"playerValue"`
	DealerValue  int         `json:"dealerValue"`
	Bet          int         `json:"bet"`
	Outcome      Outcome     `json:"outcome"`
	BalanceAfter int         `json:"balanceAfter"`
}

// Net returns the balance change caused by the round
func (r RoundRecord) Net() int {
	switch r.Outcome.Winner {
	case PlayerWins:
		return r.Bet
	case DealerWins:
		return -r.Bet
	default:
		return 0
	}
}

// String formats the record as a single log line
func (r RoundRecord) String() string {
	return fmt.Sprintf("#%d bet $%d | player %s (%d) | dealer %s (%d) | %s | balance $%d",
		r.Round, r.Bet,
		Hand(r.PlayerHand), r.PlayerValue,
		Hand(r.DealerHand), r.DealerValue,
		r.Outcome.Message, r.BalanceAfter)
}

// RoundLog keeps the most recent settled rounds of a session in memory.
// It subscribes to RoundEndEvent.
type RoundLog struct {
	limit   int
	records []RoundRecord
	totals  Totals
}

// Totals counts results over every round the log has seen
type Totals struct {
	Rounds      int `json:"rounds"`
	PlayerWins  int `json:"playerWins"`
	DealerWins  int `json:"dealerWins"`
	Pushes      int `json:"pushes"`
	Blackjacks  int `json:"blackjacks"`
	PlayerBusts int `json:"playerBusts"`
	DealerBusts int `json:"dealerBusts"`
	Net         int `json:"net"`
}

// String formats the totals as a single line
func (t Totals) String() string {
	return fmt.Sprintf("%d rounds: %d won, %d lost, %d pushed, net %+d",
		t.Rounds, t.PlayerWins, t.DealerWins, t.Pushes, t.Net)
}

// Add returns the sum of two sets of totals
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Rounds:      t.Rounds + o.Rounds,
		PlayerWins:  t.PlayerWins + o.PlayerWins,
		DealerWins:  t.DealerWins + o.DealerWins,
		Pushes:      t.Pushes + o.Pushes,
		Blackjacks:  t.Blackjacks + o.Blackjacks,
		PlayerBusts: t.PlayerBusts + o.PlayerBusts,
		DealerBusts: t.DealerBusts + o.DealerBusts,
		Net:         t.Net + o.Net,
	}
}

// NewRoundLog creates a log that retains up to limit records; limit <= 0
// keeps everything.
func NewRoundLog(limit int) *RoundLog {
	return &RoundLog{limit: limit}
}

// OnEvent implements EventSubscriber
func (l *RoundLog) OnEvent(event GameEvent) {
	if e, ok := event.(RoundEndEvent); ok {
		l.Add(e.Record)
	}
}

// Add records a settled round
func (l *RoundLog) Add(r RoundRecord) {
	l.records = append(l.records, r)
	if l.limit > 0 && len(l.records) > l.limit {
		l.records = l.records[len(l.records)-l.limit:]
	}

	l.totals.Rounds++
	l.totals.Net += r.Net()
	switch r.Outcome.Winner {
	case PlayerWins:
		l.totals.PlayerWins++
	case DealerWins:
		l.totals.DealerWins++
	case Push:
		l.totals.Pushes++
	}
	switch r.Outcome.Message {
	case MsgBlackjack:
		l.totals.Blackjacks++
	case MsgPlayerBust:
		l.totals.PlayerBusts++
	case MsgDealerBust:
		l.totals.DealerBusts++
	case MsgBothBust:
		l.totals.PlayerBusts++
		l.totals.DealerBusts++
	}
}

// Records returns retained records, oldest first
func (l *RoundLog) Records() []RoundRecord {
	out := make([]RoundRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Totals returns counts over every recorded round
func (l *RoundLog) Totals() Totals {
	return l.totals
}

// Summary renders the retained records one per line
func (l *RoundLog) Summary() string {
	var sb strings.Builder
	for _, r := range l.records {
		sb.WriteString(r.String())
		sb.WriteString("\n")
	}
	sb.WriteString(l.totals.String())
	sb.WriteString("\n")
	return sb.String()
}
