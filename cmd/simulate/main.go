package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/simulator"
)

var titleStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(0, 1).
	Bold(true)

type CLI struct {
	Sessions       int    `default:"1000" help:"Number of sessions to simulate"`
	Rounds         int    `default:"100" help:"Maximum rounds per session"`
	Bet            int    `default:"10" help:"Bet per round"`
	Balance        int    `default:"1000" help:"Starting balance per session"`
	StandOn        int    `default:"17" help:"Player stands at or above this total"`
	DealerStandsOn int    `default:"17" help:"Dealer stands at or above this total"`
	Seed           int64  `default:"0" help:"RNG seed (0 for random)"`
	Workers        int    `default:"0" help:"Parallel workers (0 for one per CPU)"`
	Output         string `short:"o" type:"path" help:"Write full results as JSON to this file"`
	Verbose        bool   `short:"v" help:"Verbose logging"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli, kong.Description("Simulate blackjack sessions with a fixed-threshold player."))

	logger := log.New(os.Stderr)
	logger.SetLevel(log.WarnLevel)
	if cli.Verbose {
		logger.SetLevel(log.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sim := simulator.New(simulator.Config{
		Sessions:        cli.Sessions,
		Rounds:          cli.Rounds,
		Bet:             cli.Bet,
		StartingBalance: cli.Balance,
		StandOn:         cli.StandOn,
		Seed:            cli.Seed,
		Workers:         cli.Workers,
		DealerPolicy:    game.DealerPolicy{StandOn: cli.DealerStandsOn},
		Logger:          logger,
	})

	results, err := sim.Run(ctx)
	if err != nil {
		logger.Error("Simulation failed", "error", err)
		kctx.Exit(1)
	}

	fmt.Println(titleStyle.Render(" ♠ ♥ Blackjack Simulation ♦ ♣ "))
	fmt.Println()
	fmt.Print(results.Summary())
	fmt.Printf("Win rate:        %.2f%%\n", 100*results.WinRate())
	fmt.Printf("Elapsed:         %v\n", results.Duration)

	if cli.Output != "" {
		if err := fileutil.WriteJSON(cli.Output, results); err != nil {
			logger.Error("Failed to write results", "error", err)
			kctx.Exit(1)
		}
		fmt.Printf("Results written to %s\n", cli.Output)
	}
}
