package common

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/inbox-digest/internal/bridge"
	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/capability"
	"github.com/dtnitsch/inbox-digest/pkg/db"
	"github.com/dtnitsch/inbox-digest/pkg/rulebased"
	"github.com/dtnitsch/inbox-digest/pkg/summarizer"
)

// Exit codes shared by every action.
const (
	ExitUsage   = 1
	ExitRuntime = 2
)

// NewLogger builds the JSON logger on stderr. --quiet keeps errors only,
// --verbose adds debug output.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads --config and applies flag overrides.
func LoadConfig(c *cli.Context) (models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.Bool("no-ai") {
		cfg.Ollama.Enabled = false
	}
	if c.IsSet("ollama-endpoint") {
		cfg.Ollama.Endpoint = c.String("ollama-endpoint")
	}
	if c.IsSet("model") {
		cfg.Ollama.Model = c.String("model")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.IsSet("listen") {
		cfg.ListenAddr = c.String("listen")
	}
	return cfg, cfg.Validate()
}

// NewProvider returns the configured AI capability.
func NewProvider(cfg models.Config, logger *slog.Logger) capability.Provider {
	if !cfg.Ollama.Enabled {
		return capability.Disabled{}
	}
	return capability.NewOllamaProvider(cfg.Ollama.Endpoint, cfg.Ollama.Model,
		capability.WithRequestsPerMinute(cfg.Ollama.RequestsPerMinute),
		capability.WithLogger(logger),
	)
}

// OpenRunLog opens the run log unless --no-history is set. A nil DB is valid
// and means nothing is recorded.
func OpenRunLog(c *cli.Context, cfg models.Config) (*db.DB, error) {
	if c.Bool("no-history") {
		return nil, nil
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// NewOrchestrator wires the summarization side.
func NewOrchestrator(cfg models.Config, provider capability.Provider, database *db.DB, logger *slog.Logger) *summarizer.Orchestrator {
	fallback := rulebased.New()
	fallback.MinAggregateChars = cfg.MinAggregateChars
	fallback.MinSingleChars = cfg.MinSingleChars

	opts := []summarizer.Option{
		summarizer.WithFallback(fallback),
		summarizer.WithLogger(logger),
		summarizer.WithAITimeout(cfg.AITimeout),
	}
	if database != nil {
		opts = append(opts, summarizer.WithRecorder(database))
	}
	return summarizer.New(provider, opts...)
}

// NewSender picks the bridge: a remote server when --remote is set, otherwise
// an in-process orchestrator.
func NewSender(c *cli.Context, cfg models.Config, database *db.DB, logger *slog.Logger) (bridge.Sender, string) {
	if remote := c.String("remote"); remote != "" {
		return bridge.NewClient(remote), "inbox-digest server at " + remote
	}
	provider := NewProvider(cfg, logger)
	return bridge.NewLocal(NewOrchestrator(cfg, provider, database, logger)), providerLabel(provider)
}

func providerLabel(p capability.Provider) string {
	if _, ok := p.(capability.Disabled); ok {
		return "rule-based summarizer"
	}
	return p.Name()
}

// Location returns the page to analyze from --page or the first argument.
func Location(c *cli.Context) (string, error) {
	if loc := c.String("page"); loc != "" {
		return loc, nil
	}
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}
	return "", cli.Exit("Error: no page given. Pass a saved HTML file or URL with --page.", ExitUsage)
}
