package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// MessageType represents a WebSocket message type
type MessageType string

const (
	// Client to server
	MessageTypeAction  MessageType = "action"
	MessageTypeHistory MessageType = "history"

	// Server to client
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeRounds   MessageType = "rounds"
	MessageTypeError    MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Error codes sent in ErrorData
const (
	CodeInvalidBet        = "invalid_bet"
	CodeIllegalTransition = "illegal_transition"
	CodeGameOver          = "game_over"
	CodeDeckExhausted     = "deck_exhausted"
	CodeInvalidMessage    = "invalid_message"
)

// ErrInvalidMessage is reported for messages the server could not act on
var ErrInvalidMessage = errors.New("invalid message")

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// ActionData asks the table to perform one action. Amount is only read for
// bets.
type ActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

// ErrorData reports a rejected message along with the unchanged table state
type ErrorData struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
}

// RoundsData carries the settled rounds of a session
type RoundsData struct {
	Records []game.RoundRecord `json:"records"`
	Totals  game.Totals        `json:"totals"`
}

// ErrorCode maps a table error to its wire code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, deck.ErrDeckExhausted):
		return CodeDeckExhausted
	case errors.Is(err, game.ErrGameOver):
		return CodeGameOver
	case errors.Is(err, game.ErrInvalidBet):
		return CodeInvalidBet
	case errors.Is(err, game.ErrIllegalTransition):
		return CodeIllegalTransition
	default:
		return CodeInvalidMessage
	}
}

// CodeError maps a wire code back to the error it was derived from
func CodeError(code string) error {
	switch code {
	case CodeDeckExhausted:
		return deck.ErrDeckExhausted
	case CodeGameOver:
		return game.ErrGameOver
	case CodeInvalidBet:
		return game.ErrInvalidBet
	case CodeIllegalTransition:
		return game.ErrIllegalTransition
	default:
		return ErrInvalidMessage
	}
}
