// Package simulator plays many automated blackjack sessions in parallel and
// aggregates their results.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for running simulations
type Config struct {
	Sessions        int
	Rounds          int // per session; a session also ends when the player is broke
	Bet             int
	StartingBalance int
	StandOn         int // the player hits below this total
	Seed            int64
	Workers         int
	DealerPolicy    game.DealerPolicy
	Logger          *log.Logger
}

// Validate checks that the configuration can run
func (c Config) Validate() error {
	switch {
	case c.Sessions <= 0:
		return fmt.Errorf("sessions must be positive: %d", c.Sessions)
	case c.Rounds <= 0:
		return fmt.Errorf("rounds must be positive: %d", c.Rounds)
	case c.Bet <= 0:
		return fmt.Errorf("bet must be positive: %d", c.Bet)
	case c.StartingBalance <= 0:
		return fmt.Errorf("starting balance must be positive: %d", c.StartingBalance)
	case c.StandOn < 2 || c.StandOn > game.BlackjackValue:
		return fmt.Errorf("stand-on must be between 2 and %d: %d", game.BlackjackValue, c.StandOn)
	}
	return nil
}

// SessionResult is the outcome of one simulated session
type SessionResult struct {
	Index        int
	Seed         int64
	Rounds       int
	FinalBalance int
	Broke        bool
	Totals       game.Totals
}

// Results aggregates every session of a run
type Results struct {
	Sessions []SessionResult
	Totals   game.Totals
	Net      statistics.Sample // per-session balance change
	Broke    int
	Seed     int64
	Duration time.Duration
}

// AverageBalance returns the mean final balance across sessions
func (r *Results) AverageBalance() float64 {
	if len(r.Sessions) == 0 {
		return 0
	}
	sum := 0
	for _, s := range r.Sessions {
		sum += s.FinalBalance
	}
	return float64(sum) / float64(len(r.Sessions))
}

// WinRate returns the fraction of rounds the player won
func (r *Results) WinRate() float64 {
	if r.Totals.Rounds == 0 {
		return 0
	}
	return float64(r.Totals.PlayerWins) / float64(r.Totals.Rounds)
}

// Validate checks that balances and round counts agree with the totals
func (r *Results) Validate() error {
	if got := int(r.Net.Sum); got != r.Totals.Net {
		return fmt.Errorf("ledger mismatch: sessions moved %d, rounds settled %d", got, r.Totals.Net)
	}
	t := r.Totals
	if t.PlayerWins+t.DealerWins+t.Pushes != t.Rounds {
		return fmt.Errorf("round mismatch: %d wins, %d losses, %d pushes over %d rounds",
			t.PlayerWins, t.DealerWins, t.Pushes, t.Rounds)
	}
	return nil
}

// Summary renders the aggregated results
func (r *Results) Summary() string {
	var b strings.Builder
	t := r.Totals
	rounds := max(t.Rounds, 1)
	pct := func(n int) float64 { return 100 * float64(n) / float64(rounds) }

	fmt.Fprintf(&b, "Sessions:        %d (seed %d)\n", len(r.Sessions), r.Seed)
	fmt.Fprintf(&b, "Rounds:          %d\n", t.Rounds)
	fmt.Fprintf(&b, "Player wins:     %d (%.1f%%)\n", t.PlayerWins, pct(t.PlayerWins))
	fmt.Fprintf(&b, "Dealer wins:     %d (%.1f%%)\n", t.DealerWins, pct(t.DealerWins))
	fmt.Fprintf(&b, "Pushes:          %d (%.1f%%)\n", t.Pushes, pct(t.Pushes))
	fmt.Fprintf(&b, "Blackjacks:      %d\n", t.Blackjacks)
	fmt.Fprintf(&b, "Player busts:    %d\n", t.PlayerBusts)
	fmt.Fprintf(&b, "Dealer busts:    %d\n", t.DealerBusts)
	fmt.Fprintf(&b, "Net:             %+d\n", t.Net)
	lo, hi := r.Net.ConfidenceInterval95()
	fmt.Fprintf(&b, "Net per session: %+.2f ± %.2f (95%% CI %.2f to %.2f)\n", r.Net.Mean(), r.Net.StdDev(), lo, hi)
	fmt.Fprintf(&b, "Session P10/P50/P90: %+.0f / %+.0f / %+.0f\n",
		r.Net.Percentile(0.1), r.Net.Median(), r.Net.Percentile(0.9))
	fmt.Fprintf(&b, "Broke sessions:  %d\n", r.Broke)
	fmt.Fprintf(&b, "Average balance: %.2f\n", r.AverageBalance())
	return b.String()
}

// Simulator runs blackjack session simulations
type Simulator struct {
	config Config
	logger *log.Logger
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Logger == nil {
		config.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if config.Workers <= 0 {
		config.Workers = min(runtime.NumCPU(), 8)
	}
	if config.DealerPolicy.StandOn == 0 {
		config.DealerPolicy = game.DefaultDealerPolicy()
	}
	return &Simulator{config: config, logger: config.Logger.WithPrefix("simulator")}
}

// Run plays every session and aggregates the results. Session i always uses
// the same seed for a given base seed, regardless of worker count.
func (s *Simulator) Run(ctx context.Context) (*Results, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	base := randutil.Resolve(s.config.Seed)
	sessions := make([]SessionResult, s.config.Sessions)

	s.logger.Info("Starting simulation",
		"sessions", s.config.Sessions,
		"rounds", s.config.Rounds,
		"workers", s.config.Workers,
		"seed", base)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range sessions {
		seed := randutil.Derive(base, i)
		g.Go(func() error {
			result, err := s.playSession(ctx, i, seed)
			if err != nil {
				return fmt.Errorf("session %d: %w", i, err)
			}
			sessions[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := &Results{Sessions: sessions, Seed: base}
	for _, r := range sessions {
		results.Totals = results.Totals.Add(r.Totals)
		results.Net.Add(float64(r.FinalBalance - s.config.StartingBalance))
		if r.Broke {
			results.Broke++
		}
	}
	results.Duration = time.Since(start)
	if err := results.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Simulation complete",
		"rounds", results.Totals.Rounds,
		"net", results.Totals.Net,
		"broke", results.Broke,
		"duration", results.Duration)
	return results, nil
}

// playSession plays rounds on a fresh table until the round limit or the
// player goes broke
func (s *Simulator) playSession(ctx context.Context, index int, seed int64) (SessionResult, error) {
	ledger := game.NewLedger(s.config.StartingBalance)
	table := game.NewTable(ledger,
		game.WithRNG(randutil.New(seed)),
		game.WithDealerPolicy(s.config.DealerPolicy),
		game.WithLogger(s.logger.With("session", index)),
	)
	rounds := game.NewRoundLog(1)
	table.EventBus().Subscribe(rounds)
	player := HitBelow(s.config.StandOn)

	for played := 0; played < s.config.Rounds && !ledger.GameOver(); played++ {
		if err := ctx.Err(); err != nil {
			return SessionResult{}, err
		}
		if err := s.playRound(table, player); err != nil {
			return SessionResult{}, err
		}
	}

	totals := rounds.Totals()
	s.logger.Debug("Session finished", "session", index, "rounds", totals.Rounds, "balance", ledger.Balance())
	return SessionResult{
		Index:        index,
		Seed:         seed,
		Rounds:       totals.Rounds,
		FinalBalance: ledger.Balance(),
		Broke:        ledger.GameOver(),
		Totals:       totals,
	}, nil
}

func (s *Simulator) playRound(table *game.Table, player Strategy) error {
	if table.State() == game.Settled {
		if err := table.NewRound(); err != nil {
			return err
		}
	}

	bet := min(s.config.Bet, table.Ledger().Balance())
	if err := table.PlaceBet(bet); err != nil {
		return err
	}
	if err := table.ConfirmBet(); err != nil {
		return voided(err)
	}

	for table.State() == game.PlayerTurn {
		if err := table.ProcessAction(player.Decide(table.Snapshot()), 0); err != nil {
			return voided(err)
		}
	}
	return nil
}

// voided ignores deck exhaustion, which settles the round as a push
func voided(err error) error {
	if errors.Is(err, deck.ErrDeckExhausted) {
		return nil
	}
	return err
}
