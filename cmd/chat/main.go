package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"golang.org/x/term"

	"llm-chat/internal/config"
	"llm-chat/internal/integrations/gateway"
	"llm-chat/internal/ui/chat"
)

var configPath = flag.String("config", "", "path to a TOML config file")

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadClient(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	client, err := gateway.NewClient(cfg.GatewayURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runPipe(client, cfg)
	}

	m, err := chat.New(chat.Options{
		Completer: client,
		Models:    cfg.Models,
		Model:     cfg.DefaultModel,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if fm, ok := final.(chat.Model); ok {
		fm.Shutdown()
	}
	if err != nil {
		logger.Error("chat exited", "err", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runPipe sends all of stdin as a single message and prints the reply.
func runPipe(client *gateway.Client, cfg config.Client) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	s, err := chat.RunOnce(ctx, client, cfg.Models, cfg.DefaultModel, string(input))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if s.Err != "" {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "error: "+s.Err)
		return 1
	}
	if n := len(s.Transcript); n > 1 {
		color.New(color.FgCyan, color.Bold).Fprintf(os.Stdout, "%s: ", s.Model)
		fmt.Fprintln(os.Stdout, s.Transcript[n-1].Content)
	}
	return 0
}

func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { _ = f.Close() }, nil
}
