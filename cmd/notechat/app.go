package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/pbrown/notechat/internal/anthropic"
	"github.com/pbrown/notechat/internal/chat"
	"github.com/pbrown/notechat/internal/checkpoint"
	"github.com/pbrown/notechat/internal/config"
	"github.com/pbrown/notechat/internal/conversation"
	"github.com/pbrown/notechat/internal/debuglog"
	"github.com/pbrown/notechat/internal/notefile"
	"github.com/pbrown/notechat/internal/openai"
	"github.com/pbrown/notechat/internal/phrases"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// SuccessMessage is printed after a reply has been written
const SuccessMessage = "Response added to the file successfully."

// PendingFileName is the pending ledger inside the state directory
const PendingFileName = "pending.txt"

// App encapsulates CLI state and dependencies for testability
type App struct {
	stdout  io.Writer
	stderr  io.Writer
	clients map[string]chat.Client // Provider clients; nil builds them from config
	rng     *rand.Rand             // Phrase picker; nil uses a time-seeded source
}

// NewApp creates a new App with default stdout/stderr
func NewApp() *App {
	return &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// Run parses args (including the program name) and performs one command
func (a *App) Run(ctx context.Context, args []string) int {
	var opts Options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "notechat"
	parser.Usage = "[OPTIONS] <file> [model]"

	if len(args) > 0 {
		args = args[1:]
	}
	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			fmt.Fprintln(a.stdout, flagErr.Message)
			return exitOK
		}
		return a.usage(parser, err.Error())
	}
	if len(rest) > 0 {
		return a.usage(parser, fmt.Sprintf("unexpected arguments: %s", strings.Join(rest, " ")))
	}
	if opts.Args.File == "" && !opts.Pending {
		return a.usage(parser, "missing note file")
	}

	configPath := opts.Config
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxTokens
	}

	logger := debuglog.New(cfg.StateDir, cfg.DebugLevel)
	ledger := checkpoint.NewLedger(filepath.Join(cfg.StateDir, PendingFileName))

	if opts.Pending {
		return a.runPending(ledger)
	}

	driver := conversation.NewDriver(conversation.Options{
		Client:            chat.NewRouter(a.providerClients(cfg)),
		Notes:             notefile.NewManager(),
		Logger:            logger,
		Ledger:            ledger,
		RunID:             logger.RunID(),
		DefaultModel:      cfg.Model,
		MaxOutputTokens:   cfg.MaxOutputTokens,
		SystemInstruction: cfg.SystemInstruction,
	})

	if opts.Recover {
		return a.runRecover(driver, opts.Args.File, opts.Args.Model)
	}

	if _, err := driver.Run(ctx, opts.Args.File, opts.Args.Model); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}

	fmt.Fprintln(a.stdout, SuccessMessage)
	if phrase, err := phrases.Pick(cfg.PhrasesPath, a.rng); err == nil {
		fmt.Fprintln(a.stdout, phrase)
	}
	return exitOK
}

func (a *App) usage(parser *flags.Parser, msg string) int {
	fmt.Fprintf(a.stderr, "error: %s\n", msg)
	parser.WriteHelp(a.stderr)
	return exitUsage
}

func (a *App) runPending(ledger *checkpoint.Ledger) int {
	entries, err := ledger.List()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: reading pending ledger: %v\n", err)
		return exitFailure
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No pending calls.")
		return exitOK
	}
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\n", e.Path, e.Model, e.Started.Format(time.RFC3339), e.RunID)
	}
	return exitOK
}

func (a *App) runRecover(driver *conversation.Driver, path, model string) int {
	model, found, err := driver.Recover(path, model)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}

	if found {
		fmt.Fprintf(a.stdout, "Removed stale placeholder for %s.\n", model)
	} else {
		fmt.Fprintf(a.stdout, "No placeholder for %s found.\n", model)
	}
	return exitOK
}

func (a *App) providerClients(cfg *config.Config) map[string]chat.Client {
	if a.clients != nil {
		return a.clients
	}
	return map[string]chat.Client{
		chat.ProviderAnthropic: anthropic.NewClient(anthropic.Config{
			BaseURL: cfg.AnthropicBaseURL,
			Timeout: cfg.Timeout,
		}),
		chat.ProviderOpenAI: openai.NewClient(openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.Timeout,
		}),
	}
}
