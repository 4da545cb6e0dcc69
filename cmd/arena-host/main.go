package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/botarena/holdem/internal/server"
)

var CLI struct {
	Config       string `short:"c" long:"config" help:"Path to HCL configuration file"`
	Addr         string `short:"a" long:"addr" help:"Address to bind to (overrides config)"`
	Port         int    `short:"p" long:"port" help:"Port to bind to (overrides config)"`
	LogLevel     string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	MoveTimeMS   int    `long:"move-time-ms" help:"Decision clock per move in milliseconds (overrides config)"`
	HandControl  string `long:"hand-control" help:"Hand start policy: auto or operator (overrides config)"`
	Presentation bool   `long:"presentation" help:"Pace spectator delivery for a live audience"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Command line overrides beat both the file and the environment.
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.Port != 0 {
		cfg.Server.Port = CLI.Port
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.MoveTimeMS != 0 {
		cfg.Table.MoveTimeMS = CLI.MoveTimeMS
	}
	if CLI.HandControl != "" {
		cfg.Table.HandControl = CLI.HandControl
	}
	if CLI.Presentation {
		cfg.Table.Presentation = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting arena host",
		"addr", cfg.ListenAddress(),
		"table", cfg.Table.ID,
		"seats", cfg.Table.Seats,
		"blinds", fmt.Sprintf("%d/%d", cfg.Table.SmallBlind, cfg.Table.BigBlind),
		"hand_control", cfg.Table.HandControl)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("Shutting down host...")
		cancel()
	}()

	host := server.NewServer(cfg, nil, logger)
	if err := host.Run(runCtx); err != nil && err != context.Canceled {
		logger.Error("Host failed", "error", err)
		ctx.Exit(1)
	}
}
