package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/blackjack/internal/client"
	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/tui"
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(0, 1).
	Bold(true)

const connectTimeout = 10 * time.Second

type CLI struct {
	Config   string `short:"c" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Seed     int64  `help:"Deck seed, overrides config (0 for random)"`
	Balance  int    `short:"b" help:"Starting balance, overrides config"`
	Remote   string `short:"r" help:"Play on a blackjack-server at this address instead of locally"`
	NoColor  bool   `help:"Disable colours"`
	LogFile  string `help:"Debug log file, overrides config"`
	LogLevel string `help:"Log level, overrides config"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Description("Play blackjack against the dealer in your terminal."))

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		ctx.Exit(1)
	}
	if cli.Seed != 0 {
		cfg.Game.Seed = cli.Seed
	}
	if cli.Balance != 0 {
		cfg.Game.StartingBalance = cli.Balance
	}
	if cli.LogFile != "" {
		cfg.UI.LogFile = cli.LogFile
	}
	if cli.LogLevel != "" {
		cfg.UI.LogLevel = cli.LogLevel
	}
	if cli.NoColor {
		cfg.UI.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	if err := run(cfg, cli.Remote); err != nil {
		log.Error("Game failed", "error", err)
		ctx.Exit(1)
	}
	ctx.Exit(0)
}

func run(cfg *config.Config, remote string) error {
	// the terminal belongs to Bubble Tea, so logs go to a file
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	level, _ := log.ParseLevel(cfg.UI.LogLevel)
	logger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "MAIN",
		Level:           level,
	})

	if cfg.UI.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	newSession := localSession(cfg, logger)
	if remote != "" {
		newSession = remoteSession(remote, logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	backend, err := newSession(ctx)
	cancel()
	if err != nil {
		return err
	}

	model := tui.New(backend, tui.Options{
		Chips:      cfg.Game.Chips,
		NewSession: newSession,
		Logger:     logger,
	})
	logger.Info("Starting game", "remote", remote != "", "balance", backend.Snapshot().Balance)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run interface: %w", err)
	}

	snap := model.Snapshot()
	fmt.Println(titleStyle.Render(" ♠ ♥ Blackjack ♦ ♣ "))
	fmt.Printf("Final balance: $%d\n", snap.Balance)
	logger.Info("Game finished", "balance", snap.Balance, "round", snap.Round)
	return nil
}

func localSession(cfg *config.Config, logger *log.Logger) func(context.Context) (tui.Backend, error) {
	seed := randutil.Resolve(cfg.Game.Seed)
	sessions := 0
	return func(context.Context) (tui.Backend, error) {
		rng := randutil.New(randutil.Derive(seed, sessions))
		sessions++
		logger.Info("New local session", "seed", seed, "session", sessions)
		table := game.NewTable(game.NewLedger(cfg.Game.StartingBalance),
			game.WithRNG(rng),
			game.WithLogger(logger),
		)
		return tui.NewLocal(table), nil
	}
}

func remoteSession(addr string, logger *log.Logger) func(context.Context) (tui.Backend, error) {
	return func(ctx context.Context) (tui.Backend, error) {
		c, err := client.Connect(ctx, addr, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
