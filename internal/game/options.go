package game

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
)

// TableOption configures a Table during creation.
type TableOption func(*tableConfig)

type tableConfig struct {
	rng     *rand.Rand
	newDeck func() *deck.Deck
	policy  DealerPolicy
	logger  *log.Logger
	bus     EventBus
}

// WithRNG draws cards at random using rng
func WithRNG(rng *rand.Rand) TableOption {
	return func(c *tableConfig) {
		c.rng = rng
	}
}

// WithDeck sets the factory called for every round's fresh deck. It
// overrides WithRNG.
func WithDeck(newDeck func() *deck.Deck) TableOption {
	return func(c *tableConfig) {
		c.newDeck = newDeck
	}
}

// WithDealerPolicy replaces the default stand-on-17 policy
func WithDealerPolicy(p DealerPolicy) TableOption {
	return func(c *tableConfig) {
		c.policy = p
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) TableOption {
	return func(c *tableConfig) {
		c.logger = logger
	}
}

// WithEventBus publishes table events on bus
func WithEventBus(bus EventBus) TableOption {
	return func(c *tableConfig) {
		c.bus = bus
	}
}
