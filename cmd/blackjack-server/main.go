package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/server"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Seed     int64  `long:"seed" help:"Base deck seed (overrides config, 0 for random)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Seed != 0 {
		cfg.Game.Seed = CLI.Seed
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	addr := cfg.ServerAddress()
	if CLI.Addr != "" {
		addr = CLI.Addr
	}

	logger := log.New(os.Stderr)
	level, _ := log.ParseLevel(cfg.Server.LogLevel)
	logger.SetLevel(level)

	logger.Info("Starting Blackjack Server",
		"addr", addr,
		"balance", cfg.Game.StartingBalance,
		"idle_timeout", cfg.IdleTimeout())

	srv := server.NewServer(logger,
		server.WithIdleTimeout(cfg.IdleTimeout()),
		server.WithStartingBalance(cfg.Game.StartingBalance),
		server.WithSeed(cfg.Game.Seed),
	)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	if err := srv.Start(addr); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}
