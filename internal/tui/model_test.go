package tui

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/client"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/server"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Backend = (*client.Client)(nil)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func localBackend(balance int, cards string) *Local {
	top := deck.MustParseCards(cards)
	table := game.NewTable(game.NewLedger(balance),
		game.WithDeck(func() *deck.Deck { return deck.NewOrdered(top...) }),
		game.WithLogger(testLogger()),
	)
	return NewLocal(table)
}

func newModel(backend Backend, opts Options) *Model {
	if opts.Chips == nil {
		opts.Chips = []int{1, 10, 100}
	}
	opts.Logger = testLogger()
	m := New(backend, opts)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// press sends one key and runs the resulting commands to completion
func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := m.Update(msg)
		run(m, cmd)
	}
}

func run(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func TestModelPlaysRound(t *testing.T) {
	t.Parallel()
	m := newModel(localBackend(1000, "Th 9c 7d Ts"), Options{})
	assert.Contains(t, m.View(), "Balance $1000")
	assert.Contains(t, m.View(), "No rounds played yet")

	press(m, "3")
	assert.Equal(t, 100, m.Snapshot().CurrentBet)
	assert.Equal(t, "Bet $100. Press enter to deal", m.Status())

	press(m, "enter")
	require.Equal(t, game.PlayerTurn, m.Snapshot().State)
	view := m.View()
	assert.Contains(t, view, "10♥ 9♣  (19)")
	assert.Contains(t, view, "7♦ ??  (7)")

	press(m, "s")
	snap := m.Snapshot()
	require.Equal(t, game.Settled, snap.State)
	assert.Equal(t, 1100, snap.Balance)
	assert.Equal(t, "Player Wins! +$100 Press n for a new round", m.Status())

	view = m.View()
	assert.Contains(t, view, "#1 bet $100")
	assert.Contains(t, view, "1 rounds: 1 won, 0 lost, 0 pushed, net +100")

	press(m, "n")
	assert.Equal(t, game.Betting, m.Snapshot().State)
	assert.Equal(t, 2, m.Snapshot().Round)
	assert.Equal(t, "Place your bet", m.Status())
}

func TestModelIgnoresUnavailableKeys(t *testing.T) {
	t.Parallel()
	m := newModel(localBackend(50, "Th 9c 7d Ts"), Options{})

	press(m, "h", "s", "n", "enter", "r")
	assert.Equal(t, game.Betting, m.Snapshot().State)
	assert.Equal(t, "Place your bet", m.Status())

	press(m, "3")
	assert.Equal(t, 0, m.Snapshot().CurrentBet, "chip above balance is disabled")
	assert.Contains(t, m.View(), "[3] $100")

	press(m, "2", "2", "2", "2", "2", "2")
	assert.Equal(t, 50, m.Snapshot().CurrentBet, "bets stop at the balance")

	press(m, "c")
	assert.Equal(t, 0, m.Snapshot().CurrentBet)
	assert.Equal(t, "Bet cleared", m.Status())
}

func TestModelSoftHand(t *testing.T) {
	t.Parallel()
	m := newModel(localBackend(1000, "As 6c 9d"), Options{})
	press(m, "2", "enter")
	assert.Contains(t, m.View(), "A♠ 6♣  (soft 17)")
}

func TestModelOpeningBlackjack(t *testing.T) {
	t.Parallel()
	m := newModel(localBackend(1000, "As Kh 9d"), Options{})
	press(m, "2", "enter")
	assert.Equal(t, game.Settled, m.Snapshot().State)
	assert.Equal(t, "Blackjack! Player Wins! +$10 Press n for a new round", m.Status())
}

func TestModelGameOverRestart(t *testing.T) {
	t.Parallel()
	restarts := 0
	m := newModel(localBackend(100, "Th 6c 7d Ts"), Options{
		NewSession: func(context.Context) (Backend, error) {
			restarts++
			return localBackend(1000, ""), nil
		},
	})

	press(m, "3", "enter", "s")
	require.True(t, m.Snapshot().GameOver)
	assert.Equal(t, "Dealer Wins! -$100 Game over! Press r to restart or q to quit", m.Status())

	press(m, "n", "3")
	assert.True(t, m.Snapshot().GameOver, "no play after game over")

	press(m, "r")
	assert.Equal(t, 1, restarts)
	assert.False(t, m.Snapshot().GameOver)
	assert.Equal(t, 1000, m.Snapshot().Balance)
	assert.Contains(t, m.View(), "No rounds played yet")
}

func TestModelGameOverWithoutRestart(t *testing.T) {
	t.Parallel()
	m := newModel(localBackend(100, "Th 6c 7d Ts"), Options{})
	press(m, "3", "enter", "s", "r")
	assert.True(t, m.Snapshot().GameOver)
	assert.Contains(t, m.Status(), "Press q to quit")
}

func TestModelQuit(t *testing.T) {
	t.Parallel()
	m := newModel(localBackend(1000, ""), Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModelHelpToggle(t *testing.T) {
	t.Parallel()
	m := newModel(localBackend(1000, ""), Options{})
	assert.NotContains(t, m.View(), "bet $100")
	press(m, "?")
	assert.Contains(t, m.View(), "bet $100")
}

func TestModelRemoteBackend(t *testing.T) {
	t.Parallel()
	top := deck.MustParseCards("Th 9c 7d Ts")
	srv := server.NewServer(testLogger(),
		server.WithDeck(func() *deck.Deck { return deck.NewOrdered(top...) }))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := client.Connect(ctx, ts.URL, testLogger())
	require.NoError(t, err)

	m := newModel(c, Options{})
	press(m, "3", "enter", "s")
	assert.Equal(t, 1100, m.Snapshot().Balance)
	assert.Contains(t, m.View(), "1 rounds: 1 won")

	press(m, "q")
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("quitting did not close the connection")
	}
}
