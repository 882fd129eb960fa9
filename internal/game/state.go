package game

import "fmt"

// RoundState is the phase of the current round
type RoundState int

const (
	Betting RoundState = iota
	PlayerTurn
	DealerTurn
	Settled
)

// String returns the string representation of a round state
func (s RoundState) String() string {
	switch s {
	case Betting:
		return "Betting"
	case PlayerTurn:
		return "Player Turn"
	case DealerTurn:
		return "Dealer Turn"
	case Settled:
		return "Settled"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the state as a stable lower-case token
func (s RoundState) MarshalText() ([]byte, error) {
	switch s {
	case Betting:
		return []byte("betting"), nil
	case PlayerTurn:
		return []byte("player_turn"), nil
	case DealerTurn:
		return []byte("dealer_turn"), nil
	case Settled:
		return []byte("settled"), nil
	}
	return nil, fmt.Errorf("unknown round state %d", int(s))
}

// UnmarshalText decodes a token written by MarshalText
func (s *RoundState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "betting":
		*s = Betting
	case "player_turn":
		*s = PlayerTurn
	case "dealer_turn":
		*s = DealerTurn
	case "settled":
		*s = Settled
	default:
		return fmt.Errorf("unknown round state %q", text)
	}
	return nil
}
