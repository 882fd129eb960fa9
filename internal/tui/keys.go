package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
)

// maxChipKeys is how many chips get number keys
const maxChipKeys = 9

type keyMap struct {
	Chips   []key.Binding
	Clear   key.Binding
	Deal    key.Binding
	Hit     key.Binding
	Stand   key.Binding
	New     key.Binding
	Restart key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap(chips []int) keyMap {
	km := keyMap{
		Clear: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear bet")),
		Deal:  key.NewBinding(key.WithKeys("enter", "d"), key.WithHelp("enter", "deal")),
		Hit:   key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hit")),
		Stand: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stand")),
		New:   key.NewBinding(key.WithKeys("n", " "), key.WithHelp("n", "new round")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart"),
			key.WithDisabled()),
		Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll log")),
		Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll log")),
		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
	for i, chip := range chips {
		if i == maxChipKeys {
			break
		}
		k := strconv.Itoa(i + 1)
		km.Chips = append(km.Chips, key.NewBinding(key.WithKeys(k), key.WithHelp(k, fmt.Sprintf("bet $%d", chip))))
	}
	return km
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Deal, k.Hit, k.Stand, k.New, k.Restart, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		k.Chips,
		{k.Clear, k.Deal, k.Hit, k.Stand},
		{k.New, k.Restart, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}
