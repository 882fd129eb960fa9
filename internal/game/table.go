package game

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
)

// Table runs rounds of blackjack for one player against the dealer. It
// owns the deck, both hands and the round state; balance lives in the
// Ledger, which outlives individual rounds.
//
// A Table is not safe for concurrent use. Every action runs to completion
// before returning.
type Table struct {
	ledger  *Ledger
	policy  DealerPolicy
	newDeck func() *deck.Deck
	logger  *log.Logger
	bus     EventBus

	deck    *deck.Deck
	player  Hand
	dealer  Hand
	state   RoundState
	outcome Outcome
	round   int
	settled bool
}

// NewTable creates a table in the betting state. Either WithRNG or WithDeck
// is required so that the draw source is always explicit.
func NewTable(ledger *Ledger, opts ...TableOption) *Table {
	if ledger == nil {
		panic("ledger is required")
	}

	cfg := &tableConfig{policy: DefaultDealerPolicy()}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.newDeck == nil {
		if cfg.rng == nil {
			panic("rng or deck factory is required for table creation")
		}
		rng := cfg.rng
		cfg.newDeck = func() *deck.Deck { return deck.New(rng) }
	}
	if cfg.logger == nil {
		cfg.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.bus == nil {
		cfg.bus = NewEventBus()
	}

	t := &Table{
		ledger:  ledger,
		policy:  cfg.policy,
		newDeck: cfg.newDeck,
		logger:  cfg.logger.WithPrefix("table"),
		bus:     cfg.bus,
	}
	t.reset()
	return t
}

// reset prepares a fresh round, keeping the ledger balance
func (t *Table) reset() {
	t.deck = t.newDeck()
	t.player = nil
	t.dealer = nil
	t.state = Betting
	t.outcome = Outcome{}
	t.settled = false
	t.round = t.ledger.LastSettled() + 1
	t.ledger.ClearBet()
}

// EventBus returns the bus table events are published on
func (t *Table) EventBus() EventBus {
	return t.bus
}

// Ledger returns the session ledger
func (t *Table) Ledger() *Ledger {
	return t.ledger
}

// State returns the current round state
func (t *Table) State() RoundState {
	return t.state
}

// PlaceBet adds amount to the current bet
func (t *Table) PlaceBet(amount int) error {
	if t.ledger.GameOver() {
		return ErrGameOver
	}
	if t.state != Betting {
		return fmt.Errorf("%w: cannot bet during %s", ErrInvalidBet, t.state)
	}
	if err := t.ledger.PlaceBet(amount); err != nil {
		t.logger.Debug("Bet rejected", "amount", amount, "error", err)
		return err
	}
	t.logger.Debug("Bet placed", "amount", amount, "total", t.ledger.Bet())
	return nil
}

// ClearBet removes the current bet
func (t *Table) ClearBet() error {
	if t.state != Betting {
		return t.illegal(ActionClear)
	}
	t.ledger.ClearBet()
	return nil
}

// ConfirmBet locks the bet and deals two cards to the player and one to the
// dealer. An opening 21 wins immediately.
func (t *Table) ConfirmBet() error {
	if t.ledger.GameOver() {
		return ErrGameOver
	}
	if t.state != Betting {
		return t.illegal(ActionDeal)
	}
	if t.ledger.Bet() == 0 {
		return fmt.Errorf("%w: no bet placed", ErrInvalidBet)
	}

	t.state = PlayerTurn
	t.logger.Info("Round started", "round", t.round, "bet", t.ledger.Bet(), "balance", t.ledger.Balance())
	t.bus.Publish(RoundStartEvent{
		Round:     t.round,
		Bet:       t.ledger.Bet(),
		Balance:   t.ledger.Balance(),
		timestamp: time.Now(),
	})

	for _, seat := range []Seat{SeatPlayer, SeatPlayer, SeatDealer} {
		if err := t.dealTo(seat); err != nil {
			return t.void(err)
		}
	}

	if t.player.Value() == BlackjackValue {
		t.finish(blackjackOutcome)
	}
	return nil
}

// Hit draws one card for the player. Going over 21 loses the round and
// reaching exactly 21 wins it, both without a dealer turn.
func (t *Table) Hit() error {
	if t.state != PlayerTurn {
		return t.illegal(ActionHit)
	}
	if err := t.dealTo(SeatPlayer); err != nil {
		return t.void(err)
	}

	switch v := t.player.Value(); {
	case v > BlackjackValue:
		t.finish(playerBustOutcome)
	case v == BlackjackValue:
		t.finish(blackjackOutcome)
	}
	return nil
}

// Stand ends the player turn. The dealer draws a second card, completes the
// hand under the dealer policy and the hands are compared.
func (t *Table) Stand() error {
	if t.state != PlayerTurn {
		return t.illegal(ActionStand)
	}
	t.state = DealerTurn

	if err := t.dealTo(SeatDealer); err != nil {
		return t.void(err)
	}
	if err := t.policy.Play(&t.dealer, seatDrawer{t: t, seat: SeatDealer}); err != nil {
		return t.void(err)
	}

	t.finish(CompareHands(t.player, t.dealer))
	return nil
}

// NewRound clears the table for the next bet with a fresh deck
func (t *Table) NewRound() error {
	if t.state != Settled {
		return t.illegal(ActionNew)
	}
	if t.ledger.GameOver() {
		return ErrGameOver
	}
	t.reset()
	t.logger.Debug("New round", "round", t.round, "balance", t.ledger.Balance())
	return nil
}

// ProcessAction dispatches a by name; amount is used only by ActionBet
func (t *Table) ProcessAction(a Action, amount int) error {
	switch a {
	case ActionBet:
		return t.PlaceBet(amount)
	case ActionClear:
		return t.ClearBet()
	case ActionDeal:
		return t.ConfirmBet()
	case ActionHit:
		return t.Hit()
	case ActionStand:
		return t.Stand()
	case ActionNew:
		return t.NewRound()
	default:
		return fmt.Errorf("%w: unknown action %q", ErrIllegalTransition, a)
	}
}

// Snapshot returns the observable state of the table
func (t *Table) Snapshot() Snapshot {
	return Snapshot{
		Round:          t.round,
		State:          t.state,
		PlayerHand:     t.player.Cards(),
		DealerHand:     t.dealer.Cards(),
		PlayerValue:    t.player.Value(),
		DealerValue:    t.dealer.Value(),
		Outcome:        t.outcome,
		Balance:        t.ledger.Balance(),
		CurrentBet:     t.ledger.Bet(),
		GameOver:       t.ledger.GameOver(),
		CardsRemaining: t.deck.Remaining(),
	}
}

func (t *Table) dealTo(seat Seat) error {
	card, err := t.draw(seat)
	if err != nil {
		return err
	}
	t.hand(seat).Add(card)
	t.announce(seat, card, t.hand(seat).Value())
	return nil
}

func (t *Table) draw(seat Seat) (deck.Card, error) {
	card, err := t.deck.Draw()
	if err != nil {
		return deck.Card{}, fmt.Errorf("dealing to %s: %w", seat, err)
	}
	return card, nil
}

func (t *Table) hand(seat Seat) *Hand {
	if seat == SeatDealer {
		return &t.dealer
	}
	return &t.player
}

func (t *Table) announce(seat Seat, card deck.Card, value int) {
	t.logger.Debug("Dealt card", "seat", seat, "card", card, "value", value)
	t.bus.Publish(CardDealtEvent{
		Round:     t.round,
		Seat:      seat,
		Card:      card,
		HandValue: value,
		timestamp: time.Now(),
	})
}

// seatDrawer lets the dealer policy draw through the table so every card
// it takes is logged and published. The policy appends the card itself.
type seatDrawer struct {
	t    *Table
	seat Seat
}

func (d seatDrawer) Draw() (deck.Card, error) {
	card, err := d.t.draw(d.seat)
	if err != nil {
		return deck.Card{}, err
	}
	next := append(d.t.hand(d.seat).Cards(), card)
	d.t.announce(d.seat, card, Hand(next).Value())
	return card, nil
}

// void settles a round the deck could not complete as a push
func (t *Table) void(err error) error {
	t.logger.Error("Round voided", "round", t.round, "error", err)
	t.finish(voidOutcome)
	return err
}

func (t *Table) finish(o Outcome) {
	t.outcome = o
	t.state = Settled
	t.settle()
}

// settle applies the outcome to the ledger exactly once per round
func (t *Table) settle() {
	if t.settled {
		return
	}
	t.settled = true

	bet := t.ledger.Bet()
	if !t.ledger.Settle(t.round, t.outcome) {
		t.logger.Warn("Round already settled", "round", t.round)
		return
	}

	t.logger.Info("Round settled",
		"round", t.round,
		"winner", t.outcome.Winner,
		"player", t.player.Value(),
		"dealer", t.dealer.Value(),
		"bet", bet,
		"balance", t.ledger.Balance())

	t.bus.Publish(RoundEndEvent{
		Record: RoundRecord{
			Round:        t.round,
			PlayerHand:   t.player.Cards(),
			DealerHand:   t.dealer.Cards(),
			PlayerValue:  t.player.Value(),
			DealerValue:  t.dealer.Value(),
			Bet:          bet,
			Outcome:      t.outcome,
			BalanceAfter: t.ledger.Balance(),
		},
		timestamp: time.Now(),
	})

	if t.ledger.GameOver() {
		t.logger.Info("Game over", "round", t.round)
		t.bus.Publish(GameOverEvent{Round: t.round, timestamp: time.Now()})
	}
}

func (t *Table) illegal(a Action) error {
	return fmt.Errorf("%w: %s during %s", ErrIllegalTransition, a, t.state)
}
