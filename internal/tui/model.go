// Package tui is the terminal front end. It renders a Backend's table and
// maps keys to table actions.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

const defaultTimeout = 10 * time.Second

// Options configures a Model
type Options struct {
	// Chips are the bet amounts bound to the number keys
	Chips []int
	// NewSession starts over after the game is lost. Nil disables restart.
	NewSession func(ctx context.Context) (Backend, error)
	// Timeout bounds each backend request
	Timeout time.Duration
	Logger  *log.Logger
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusError
)

// Model is the Bubble Tea model for a blackjack session
type Model struct {
	backend Backend
	opts    Options
	logger  *log.Logger

	keys keyMap
	help help.Model
	log  viewport.Model

	snap       game.Snapshot
	status     string
	statusKind statusKind
	busy       bool

	width    int
	height   int
	quitting bool
}

type actionResultMsg struct {
	action game.Action
	amount int
	snap   game.Snapshot
	err    error
}

type historyMsg struct {
	records []game.RoundRecord
	totals  game.Totals
	err     error
}

type sessionMsg struct {
	backend Backend
	err     error
}

// New creates a model playing against backend
func New(backend Backend, opts Options) *Model {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	vp := viewport.New(60, 6)
	vp.SetContent(InfoStyle.Render("No rounds played yet"))

	m := &Model{
		backend: backend,
		opts:    opts,
		logger:  opts.Logger.WithPrefix("tui"),
		keys:    newKeyMap(opts.Chips),
		help:    help.New(),
		log:     vp,
		snap:    backend.Snapshot(),
		status:  "Place your bet",
	}
	m.updateKeys()
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Snapshot returns the table state currently displayed
func (m *Model) Snapshot() game.Snapshot {
	return m.snap
}

// Status returns the status line text
func (m *Model) Status() string {
	return m.status
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeLog()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case actionResultMsg:
		return m, m.handleResult(msg)

	case historyMsg:
		if msg.err != nil {
			m.logger.Warn("Failed to load history", "error", msg.err)
			return m, nil
		}
		m.setHistory(msg.records, msg.totals)
		return m, nil

	case sessionMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(statusError, "Could not start a new session: %v", msg.err)
			return m, nil
		}
		m.closeBackend()
		m.backend = msg.backend
		m.snap = msg.backend.Snapshot()
		m.log.SetContent(InfoStyle.Render("No rounds played yet"))
		m.setStatus(statusInfo, "New session with $%d. Place your bet", m.snap.Balance)
		m.updateKeys()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.closeBackend()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeLog()
		return nil
	case key.Matches(msg, m.keys.Up):
		m.log.ScrollUp(1)
		return nil
	case key.Matches(msg, m.keys.Down):
		m.log.ScrollDown(1)
		return nil
	}

	if m.busy {
		return nil
	}

	for i, binding := range m.keys.Chips {
		if key.Matches(msg, binding) {
			return m.act(game.ActionBet, m.opts.Chips[i])
		}
	}

	switch {
	case key.Matches(msg, m.keys.Clear):
		return m.act(game.ActionClear, 0)
	case key.Matches(msg, m.keys.Deal):
		return m.act(game.ActionDeal, 0)
	case key.Matches(msg, m.keys.Hit):
		return m.act(game.ActionHit, 0)
	case key.Matches(msg, m.keys.Stand):
		return m.act(game.ActionStand, 0)
	case key.Matches(msg, m.keys.New):
		return m.act(game.ActionNew, 0)
	case key.Matches(msg, m.keys.Restart):
		return m.restart()
	}
	return nil
}

func (m *Model) act(action game.Action, amount int) tea.Cmd {
	m.busy = true
	backend, timeout := m.backend, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := backend.Do(ctx, action, amount)
		return actionResultMsg{action: action, amount: amount, snap: snap, err: err}
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	backend, timeout := m.backend, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		records, totals, err := backend.History(ctx)
		return historyMsg{records: records, totals: totals, err: err}
	}
}

func (m *Model) restart() tea.Cmd {
	if m.opts.NewSession == nil || !m.snap.GameOver {
		return nil
	}
	m.busy = true
	newSession, timeout := m.opts.NewSession, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		backend, err := newSession(ctx)
		return sessionMsg{backend: backend, err: err}
	}
}

func (m *Model) handleResult(msg actionResultMsg) tea.Cmd {
	m.busy = false
	prev := m.snap
	m.snap = msg.snap
	m.updateKeys()

	if msg.err != nil {
		m.logger.Debug("Action rejected", "action", msg.action, "amount", msg.amount, "error", msg.err)
		m.setStatus(statusError, "%s", describeError(msg.err))
		if errors.Is(msg.err, deck.ErrDeckExhausted) {
			return m.fetchHistory()
		}
		return nil
	}

	switch {
	case m.snap.State == game.Settled && prev.State != game.Settled:
		m.describeOutcome()
		return m.fetchHistory()
	case msg.action == game.ActionBet:
		m.setStatus(statusInfo, "Bet $%d. Press enter to deal", m.snap.CurrentBet)
	case msg.action == game.ActionClear:
		m.setStatus(statusInfo, "Bet cleared")
	case msg.action == game.ActionDeal, msg.action == game.ActionHit:
		m.setStatus(statusInfo, "Hit or stand?")
	case msg.action == game.ActionNew:
		m.setStatus(statusInfo, "Place your bet")
	}
	return nil
}

func (m *Model) describeOutcome() {
	o := m.snap.Outcome
	kind := statusInfo
	delta := ""
	switch o.Winner {
	case game.PlayerWins:
		kind = statusSuccess
		delta = fmt.Sprintf(" +$%d", m.snap.CurrentBet)
	case game.DealerWins:
		kind = statusError
		delta = fmt.Sprintf(" -$%d", m.snap.CurrentBet)
	}

	if m.snap.GameOver {
		hint := "Press q to quit"
		if m.opts.NewSession != nil {
			hint = "Press r to restart or q to quit"
		}
		m.setStatus(statusError, "%s%s Game over! %s", o.Message, delta, hint)
		return
	}
	m.setStatus(kind, "%s%s Press n for a new round", o.Message, delta)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, game.ErrGameOver):
		return "Game over"
	case errors.Is(err, deck.ErrDeckExhausted):
		return game.MsgDeckExhausted
	case errors.Is(err, game.ErrInvalidBet), errors.Is(err, game.ErrIllegalTransition):
		return capitalize(err.Error())
	default:
		return "Error: " + err.Error()
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m *Model) setStatus(kind statusKind, format string, args ...any) {
	m.statusKind = kind
	m.status = fmt.Sprintf(format, args...)
}

func (m *Model) setHistory(records []game.RoundRecord, totals game.Totals) {
	if len(records) == 0 {
		m.log.SetContent(InfoStyle.Render("No rounds played yet"))
		return
	}
	lines := make([]string, 0, len(records)+1)
	for _, r := range records {
		line := r.String()
		switch r.Outcome.Winner {
		case game.PlayerWins:
			line = SuccessStyle.Render(line)
		case game.DealerWins:
			line = ErrorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, WarningStyle.Render(totals.String()))
	m.log.SetContent(strings.Join(lines, "\n"))
	m.log.GotoBottom()
}

// updateKeys enables the bindings the table would accept
func (m *Model) updateKeys() {
	m.keys.Clear.SetEnabled(m.snap.Allows(game.ActionClear))
	m.keys.Deal.SetEnabled(m.snap.Allows(game.ActionDeal))
	m.keys.Hit.SetEnabled(m.snap.Allows(game.ActionHit))
	m.keys.Stand.SetEnabled(m.snap.Allows(game.ActionStand))
	m.keys.New.SetEnabled(m.snap.Allows(game.ActionNew))
	m.keys.Restart.SetEnabled(m.snap.GameOver && m.opts.NewSession != nil)

	available := m.snap.Balance - m.snap.CurrentBet
	for i := range m.keys.Chips {
		m.keys.Chips[i].SetEnabled(m.snap.Allows(game.ActionBet) && m.opts.Chips[i] <= available)
	}
}

func (m *Model) closeBackend() {
	if c, ok := m.backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			m.logger.Debug("Failed to close backend", "error", err)
		}
	}
}

func (m *Model) resizeLog() {
	if m.width == 0 {
		return
	}
	m.log.Width = max(m.width-2, 10)
	m.log.Height = max(m.height-lipgloss.Height(m.renderTable())-2, 3)
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTable(),
		LogStyle.Render(m.log.View()),
	)
}

func (m *Model) renderTable() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("BLACKJACK"))
	fmt.Fprintf(&b, "  Round %d  ", m.snap.Round)
	b.WriteString(BalanceStyle.Render(fmt.Sprintf("Balance $%d", m.snap.Balance)))
	if m.snap.CurrentBet > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("  Bet $%d", m.snap.CurrentBet)))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderHand("Dealer", m.snap.DealerHand, m.snap.DealerValue, m.snap.State == game.PlayerTurn))
	b.WriteString("\n")
	b.WriteString(m.renderHand("Player", m.snap.PlayerHand, m.snap.PlayerValue, false))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if chips := m.renderChips(); chips != "" {
		b.WriteString(chips)
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHand(label string, cards []deck.Card, value int, holeDown bool) string {
	if len(cards) == 0 {
		return HandLabelStyle.Render(label) + InfoStyle.Render("-")
	}

	parts := make([]string, 0, len(cards)+1)
	for _, c := range cards {
		parts = append(parts, formatCard(c))
	}
	if holeDown {
		parts = append(parts, HiddenCardStyle.Render("??"))
	}

	total := fmt.Sprintf("(%d)", value)
	if game.Hand(cards).IsSoft() && value < game.BlackjackValue {
		total = fmt.Sprintf("(soft %d)", value)
	}
	return HandLabelStyle.Render(label) + strings.Join(parts, " ") + "  " + total
}

func formatCard(c deck.Card) string {
	if c.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

func (m *Model) renderStatus() string {
	switch m.statusKind {
	case statusSuccess:
		return SuccessStyle.Render(m.status)
	case statusError:
		return ErrorStyle.Render(m.status)
	default:
		return WarningStyle.Render(m.status)
	}
}

func (m *Model) renderChips() string {
	if !m.snap.Allows(game.ActionBet) || len(m.keys.Chips) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.keys.Chips))
	for i, binding := range m.keys.Chips {
		label := fmt.Sprintf("[%s] $%d", binding.Help().Key, m.opts.Chips[i])
		if binding.Enabled() {
			parts = append(parts, ChipStyle.Render(label))
		} else {
			parts = append(parts, InfoStyle.Render(label))
		}
	}
	return "Chips: " + strings.Join(parts, "  ")
}
