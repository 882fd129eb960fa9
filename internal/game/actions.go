package game

import (
	"fmt"
	"strings"
)

// Action is a player command accepted by the table
type Action string

const (
	ActionBet   Action = "bet"
	ActionClear Action = "clear"
	ActionDeal  Action = "deal"
	ActionHit   Action = "hit"
	ActionStand Action = "stand"
	ActionNew   Action = "new"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// ParseAction converts user or wire input to an Action. "confirm" and
// "reset" are accepted as aliases.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bet":
		return ActionBet, nil
	case "clear":
		return ActionClear, nil
	case "deal", "confirm":
		return ActionDeal, nil
	case "hit":
		return ActionHit, nil
	case "stand":
		return ActionStand, nil
	case "new", "reset":
		return ActionNew, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}
