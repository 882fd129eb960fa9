package game

import (
	"time"

	"github.com/lox/blackjack/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeRoundStart EventType = "round_start"
	EventTypeCardDealt  EventType = "card_dealt"
	EventTypeRoundEnd   EventType = "round_end"
	EventTypeGameOver   EventType = "game_over"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs at the table
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// Seat identifies who a card was dealt to
type Seat string

const (
	SeatPlayer Seat = "player"
	SeatDealer Seat = "dealer"
)

// RoundStartEvent is published when a bet is confirmed and the deal begins
type RoundStartEvent struct {
	Round     int
	Bet       int
	Balance   int
	timestamp time.Time
}

func (e RoundStartEvent) EventType() EventType { return EventTypeRoundStart }
func (e RoundStartEvent) Timestamp() time.Time { return e.timestamp }

// CardDealtEvent is published for every card drawn from the deck
type CardDealtEvent struct {
	Round     int
	Seat      Seat
	Card      deck.Card
	HandValue int // value of the receiving hand after the card
	timestamp time.Time
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }
func (e CardDealtEvent) Timestamp() time.Time { return e.timestamp }

// RoundEndEvent is published once per round when it is settled
type RoundEndEvent struct {
	Record    RoundRecord
	timestamp time.Time
}

func (e RoundEndEvent) EventType() EventType { return EventTypeRoundEnd }
func (e RoundEndEvent) Timestamp() time.Time { return e.timestamp }

// GameOverEvent is published when settlement leaves the balance at zero
type GameOverEvent struct {
	Round     int
	timestamp time.Time
}

func (e GameOverEvent) EventType() EventType { return EventTypeGameOver }
func (e GameOverEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber receives published events. Delivery is synchronous from
// inside a table action, so subscribers must not call back into the table.
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventSubscriberFunc adapts a function to EventSubscriber
type EventSubscriberFunc func(event GameEvent)

// OnEvent calls f(event)
func (f EventSubscriberFunc) OnEvent(event GameEvent) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus delivers events to subscribers in subscription order
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
