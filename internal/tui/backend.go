package tui

import (
	"context"
	"sync"

	"github.com/lox/blackjack/internal/game"
)

// Backend is the table the interface plays against, either in process or
// over the network
type Backend interface {
	Do(ctx context.Context, action game.Action, amount int) (game.Snapshot, error)
	Snapshot() game.Snapshot
	History(ctx context.Context) ([]game.RoundRecord, game.Totals, error)
}

// Local plays against a table in this process
type Local struct {
	mu     sync.Mutex
	table  *game.Table
	rounds *game.RoundLog
}

// NewLocal wraps table and records every round it settles
func NewLocal(table *game.Table) *Local {
	l := &Local{table: table, rounds: game.NewRoundLog(0)}
	table.EventBus().Subscribe(l.rounds)
	return l
}

// Do performs action on the table
func (l *Local) Do(_ context.Context, action game.Action, amount int) (game.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.table.ProcessAction(action, amount)
	return l.table.Snapshot(), err
}

// Snapshot returns the table state
func (l *Local) Snapshot() game.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.table.Snapshot()
}

// History returns every settled round
func (l *Local) History(context.Context) ([]game.RoundRecord, game.Totals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rounds.Records(), l.rounds.Totals(), nil
}
