package simulator

import "github.com/lox/blackjack/internal/game"

// Strategy chooses the player's action during the player turn
type Strategy interface {
	Decide(snap game.Snapshot) game.Action
}

// HitBelow hits while the player total is below its value, mirroring a
// dealer-style fixed threshold
type HitBelow int

// Decide implements Strategy
func (h HitBelow) Decide(snap game.Snapshot) game.Action {
	if snap.PlayerValue < int(h) {
		return game.ActionHit
	}
	return game.ActionStand
}
