package game

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stacked returns a table whose every round deals cards in the given order:
// player, player, dealer, then hits, then the dealer's draws.
func stacked(t *testing.T, balance int, cards string, opts ...TableOption) *Table {
	t.Helper()
	top := deck.MustParseCards(cards)
	opts = append([]TableOption{
		WithDeck(func() *deck.Deck { return deck.NewOrdered(top...) }),
		WithLogger(log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})),
	}, opts...)
	return NewTable(NewLedger(balance), opts...)
}

func startRound(t *testing.T, tbl *Table, bet int) {
	t.Helper()
	require.NoError(t, tbl.PlaceBet(bet))
	require.NoError(t, tbl.ConfirmBet())
}

func TestNewTableStartsBetting(t *testing.T) {
	t.Parallel()
	tbl := NewTable(NewLedger(1000), WithRNG(randutil.New(1)))
	snap := tbl.Snapshot()

	assert.Equal(t, Betting, snap.State)
	assert.Equal(t, 1, snap.Round)
	assert.Empty(t, snap.PlayerHand)
	assert.Empty(t, snap.DealerHand)
	assert.Equal(t, 1000, snap.Balance)
	assert.Equal(t, 0, snap.CurrentBet)
	assert.Equal(t, deck.Size, snap.CardsRemaining)
	assert.False(t, snap.Outcome.Decided())
	assert.Equal(t, []Action{ActionBet, ActionClear}, snap.ValidActions())
}

func TestNewTableRequiresDrawSource(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewTable(NewLedger(10)) })
	assert.Panics(t, func() { NewTable(nil, WithRNG(randutil.New(1))) })
}

func TestOpeningDeal(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "Th9c7d")
	startRound(t, tbl, 100)

	snap := tbl.Snapshot()
	assert.Equal(t, PlayerTurn, snap.State)
	assert.Equal(t, deck.MustParseCards("Th9c"), snap.PlayerHand)
	assert.Equal(t, deck.MustParseCards("7d"), snap.DealerHand, "dealer's second card is not dealt yet")
	assert.Equal(t, 19, snap.PlayerValue)
	assert.Equal(t, 7, snap.DealerValue)
	assert.Equal(t, deck.Size-3, snap.CardsRemaining)
	assert.Equal(t, []Action{ActionHit, ActionStand}, snap.ValidActions())
}

func TestScenarioPlayerStandsAndWins(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "Th9c7dKs")
	startRound(t, tbl, 100)
	require.NoError(t, tbl.Stand())

	snap := tbl.Snapshot()
	assert.Equal(t, Settled, snap.State)
	assert.Equal(t, deck.MustParseCards("7dKs"), snap.DealerHand)
	assert.Equal(t, 17, snap.DealerValue)
	assert.Equal(t, Outcome{Winner: PlayerWins, Message: MsgPlayerWins}, snap.Outcome)
	assert.Equal(t, 1100, snap.Balance)
}

func TestScenarioOpeningBlackjack(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "KsAh5d")
	startRound(t, tbl, 100)

	snap := tbl.Snapshot()
	assert.Equal(t, Settled, snap.State)
	assert.Equal(t, Outcome{Winner: PlayerWins, Message: MsgBlackjack}, snap.Outcome)
	assert.Len(t, snap.DealerHand, 1, "no dealer turn")
	assert.Equal(t, 1100, snap.Balance)

	assert.True(t, errors.Is(tbl.Hit(), ErrIllegalTransition))
	assert.True(t, errors.Is(tbl.Stand(), ErrIllegalTransition))
	assert.Equal(t, 1100, tbl.Snapshot().Balance)
}

func TestScenarioPlayerBusts(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "Th8c7d5s")
	startRound(t, tbl, 100)
	require.NoError(t, tbl.Hit())

	snap := tbl.Snapshot()
	assert.Equal(t, Settled, snap.State)
	assert.Equal(t, 23, snap.PlayerValue)
	assert.Equal(t, Outcome{Winner: DealerWins, Message: MsgPlayerBust}, snap.Outcome)
	assert.Len(t, snap.DealerHand, 1, "dealer does not play after a bust")
	assert.Equal(t, 900, snap.Balance)
}

func TestHitToTwentyOneWins(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "5s6c9d4h6h")
	startRound(t, tbl, 50)
	require.NoError(t, tbl.Hit())
	assert.Equal(t, PlayerTurn, tbl.State(), "15 keeps playing")
	require.NoError(t, tbl.Hit())

	snap := tbl.Snapshot()
	assert.Equal(t, 21, snap.PlayerValue)
	assert.Equal(t, Outcome{Winner: PlayerWins, Message: MsgBlackjack}, snap.Outcome)
	assert.Equal(t, 1050, snap.Balance)
}

func TestScenarioGameOver(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 100, "Th8c7d5s")
	startRound(t, tbl, 100)
	require.NoError(t, tbl.Hit())

	snap := tbl.Snapshot()
	assert.Equal(t, 0, snap.Balance)
	assert.True(t, snap.GameOver)
	assert.Empty(t, snap.ValidActions())

	assert.True(t, errors.Is(tbl.PlaceBet(1), ErrGameOver))
	assert.True(t, errors.Is(tbl.NewRound(), ErrGameOver))
	assert.Equal(t, Settled, tbl.State())
}

func TestStandOutcomes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cards   string
		outcome Outcome
		balance int
	}{
		{"dealer busts", "Th8c6d9s7h", Outcome{PlayerWins, MsgDealerBust}, 1100},
		{"dealer higher", "Th7c9dTs", Outcome{DealerWins, MsgDealerWins}, 900},
		{"equal totals push", "Th8c9d9s", Outcome{Push, MsgDraw}, 1000},
		{"soft seventeen stands", "Th8cAd6s", Outcome{PlayerWins, MsgPlayerWins}, 1100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := stacked(t, 1000, tt.cards)
			startRound(t, tbl, 100)
			require.NoError(t, tbl.Stand())

			snap := tbl.Snapshot()
			assert.Equal(t, tt.outcome, snap.Outcome)
			assert.Equal(t, tt.balance, snap.Balance)
			assert.GreaterOrEqual(t, snap.DealerValue, DealerStandsOn)
		})
	}
}

func TestCompareHands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		player, dealer string
		want           Outcome
	}{
		{"TsQs5s", "ThKh3c", Outcome{Push, MsgBothBust}},
		{"TsQs5s", "ThKh", Outcome{DealerWins, MsgPlayerBust}},
		{"TsQs", "ThKh5c", Outcome{PlayerWins, MsgDealerBust}},
		{"TsQs", "Th9h", Outcome{PlayerWins, MsgPlayerWins}},
		{"TsQs", "AhKh", Outcome{DealerWins, MsgDealerWins}},
		{"TsQs", "ThKh", Outcome{Push, MsgDraw}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareHands(hand(tt.player), hand(tt.dealer)), "%s vs %s", tt.player, tt.dealer)
	}
}

func TestSettlementRunsOnce(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "Th9c7dKs")
	startRound(t, tbl, 100)
	require.NoError(t, tbl.Stand())
	require.Equal(t, 1100, tbl.Snapshot().Balance)

	tbl.settle()
	tbl.finish(tbl.outcome)
	assert.Equal(t, 1100, tbl.Snapshot().Balance)
	assert.False(t, tbl.Ledger().Settle(tbl.round, tbl.outcome))
	assert.Equal(t, 1100, tbl.Snapshot().Balance)
}

func TestNewRoundKeepsBalance(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "Th9c7dKs")
	startRound(t, tbl, 100)
	require.NoError(t, tbl.Stand())
	require.NoError(t, tbl.NewRound())

	snap := tbl.Snapshot()
	assert.Equal(t, Betting, snap.State)
	assert.Equal(t, 2, snap.Round)
	assert.Empty(t, snap.PlayerHand)
	assert.Empty(t, snap.DealerHand)
	assert.Equal(t, 0, snap.CurrentBet)
	assert.Equal(t, 1100, snap.Balance)
	assert.Equal(t, deck.Size, snap.CardsRemaining, "fresh deck")
	assert.False(t, snap.Outcome.Decided())

	startRound(t, tbl, 200)
	require.NoError(t, tbl.Stand())
	assert.Equal(t, 1300, tbl.Snapshot().Balance, "second round settles too")
}

func TestIllegalTransitions(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "Th9c7dKs")

	assert.True(t, errors.Is(tbl.Hit(), ErrIllegalTransition))
	assert.True(t, errors.Is(tbl.Stand(), ErrIllegalTransition))
	assert.True(t, errors.Is(tbl.NewRound(), ErrIllegalTransition))
	assert.True(t, errors.Is(tbl.ConfirmBet(), ErrInvalidBet), "deal without a bet")

	startRound(t, tbl, 100)
	assert.True(t, errors.Is(tbl.PlaceBet(10), ErrInvalidBet), "bet outside betting")
	assert.True(t, errors.Is(tbl.ClearBet(), ErrIllegalTransition))
	assert.True(t, errors.Is(tbl.ConfirmBet(), ErrIllegalTransition))
	assert.True(t, errors.Is(tbl.NewRound(), ErrIllegalTransition))
	assert.Equal(t, 100, tbl.Snapshot().CurrentBet)

	assert.True(t, errors.Is(tbl.ProcessAction(Action("split"), 0), ErrIllegalTransition))
}

func TestBetBuilding(t *testing.T) {
	t.Parallel()
	tbl := stacked(t, 1000, "")

	require.NoError(t, tbl.ProcessAction(ActionBet, 10))
	require.NoError(t, tbl.ProcessAction(ActionBet, 100))
	assert.Equal(t, 110, tbl.Snapshot().CurrentBet)
	assert.Contains(t, tbl.Snapshot().ValidActions(), ActionDeal)

	assert.True(t, errors.Is(tbl.PlaceBet(1000), ErrInvalidBet))
	assert.Equal(t, 110, tbl.Snapshot().CurrentBet, "rejected bet is a no-op")

	require.NoError(t, tbl.ProcessAction(ActionClear, 0))
	assert.Equal(t, 0, tbl.Snapshot().CurrentBet)
	assert.False(t, tbl.Snapshot().Allows(ActionDeal))
}

func TestDeckExhaustionVoidsRound(t *testing.T) {
	t.Parallel()
	short := func() *deck.Deck {
		d := deck.NewOrdered()
		for d.Remaining() > 2 {
			_, _ = d.Draw()
		}
		return d
	}
	tbl := NewTable(NewLedger(1000), WithDeck(short))
	startBal := tbl.Snapshot().Balance

	require.NoError(t, tbl.PlaceBet(100))
	err := tbl.ConfirmBet()
	require.Error(t, err)
	assert.True(t, errors.Is(err, deck.ErrDeckExhausted))

	snap := tbl.Snapshot()
	assert.Equal(t, Settled, snap.State)
	assert.Equal(t, Outcome{Push, MsgDeckExhausted}, snap.Outcome)
	assert.Equal(t, startBal, snap.Balance)
	assert.NoError(t, tbl.NewRound())
}

func TestSeededTablesAreDeterministic(t *testing.T) {
	t.Parallel()
	play := func() Snapshot {
		tbl := NewTable(NewLedger(1000), WithRNG(randutil.New(77)))
		startRound(t, tbl, 100)
		if tbl.State() == PlayerTurn {
			require.NoError(t, tbl.Stand())
		}
		return tbl.Snapshot()
	}
	assert.Equal(t, play(), play())
}

func TestEventsPublished(t *testing.T) {
	t.Parallel()
	var types []EventType
	var dealt []Seat
	bus := NewEventBus()
	bus.Subscribe(EventSubscriberFunc(func(e GameEvent) {
		types = append(types, e.EventType())
		if cd, ok := e.(CardDealtEvent); ok {
			dealt = append(dealt, cd.Seat)
		}
	}))
	roundLog := NewRoundLog(0)
	bus.Subscribe(roundLog)

	tbl := stacked(t, 100, "Th6c7dTs", WithEventBus(bus))
	startRound(t, tbl, 100)
	require.NoError(t, tbl.Stand())

	assert.Equal(t, []EventType{
		EventTypeRoundStart,
		EventTypeCardDealt, EventTypeCardDealt, EventTypeCardDealt,
		EventTypeCardDealt,
		EventTypeRoundEnd,
		EventTypeGameOver,
	}, types)
	assert.Equal(t, []Seat{SeatPlayer, SeatPlayer, SeatDealer, SeatDealer}, dealt)

	records := roundLog.Records()
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Round)
	assert.Equal(t, 100, records[0].Bet)
	assert.Equal(t, 16, records[0].PlayerValue)
	assert.Equal(t, 17, records[0].DealerValue)
	assert.Equal(t, MsgDealerWins, records[0].Outcome.Message)
	assert.Equal(t, 0, records[0].BalanceAfter)
}
