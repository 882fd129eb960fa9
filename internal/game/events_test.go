package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversInSubscriptionOrder(t *testing.T) {
	t.Parallel()
	bus := NewEventBus()

	var got []string
	bus.Subscribe(EventSubscriberFunc(func(e GameEvent) { got = append(got, "first:"+e.EventType().String()) }))
	bus.Subscribe(EventSubscriberFunc(func(e GameEvent) { got = append(got, "second:"+e.EventType().String()) }))

	bus.Publish(RoundStartEvent{Round: 1, Bet: 10, Balance: 100})
	bus.Publish(GameOverEvent{Round: 1})

	assert.Equal(t, []string{
		"first:round_start",
		"second:round_start",
		"first:game_over",
		"second:game_over",
	}, got)
}

func TestEventBusWithoutSubscribers(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { NewEventBus().Publish(GameOverEvent{Round: 3}) })
}

func TestTableEventSequence(t *testing.T) {
	t.Parallel()
	bus := NewEventBus()
	var events []GameEvent
	bus.Subscribe(EventSubscriberFunc(func(e GameEvent) { events = append(events, e) }))

	// player 16, dealer 7 then 10 to 17; dealer stands and wins
	tbl := stacked(t, 10, "Th6c7dTs", WithEventBus(bus))
	startRound(t, tbl, 10)
	require.NoError(t, tbl.Stand())

	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType())
		assert.False(t, e.Timestamp().IsZero(), "%s has no timestamp", e.EventType())
	}
	assert.Equal(t, []EventType{
		EventTypeRoundStart,
		EventTypeCardDealt,
		EventTypeCardDealt,
		EventTypeCardDealt,
		EventTypeCardDealt,
		EventTypeRoundEnd,
		EventTypeGameOver,
	}, types)

	last := events[4].(CardDealtEvent)
	assert.Equal(t, SeatDealer, last.Seat)
	assert.Equal(t, 17, last.HandValue)

	end := events[5].(RoundEndEvent)
	assert.Equal(t, DealerWins, end.Record.Outcome.Winner)
	assert.Equal(t, 0, end.Record.BalanceAfter)
}
