package analyze

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/inbox-digest/internal/bridge"
	"github.com/dtnitsch/inbox-digest/internal/common"
	"github.com/dtnitsch/inbox-digest/internal/cycle"
	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/db"
	"github.com/dtnitsch/inbox-digest/pkg/fetcher"
	"github.com/dtnitsch/inbox-digest/pkg/language"
	"github.com/dtnitsch/inbox-digest/pkg/presenter"
	"github.com/dtnitsch/inbox-digest/pkg/prompt"
	"github.com/dtnitsch/inbox-digest/pkg/storage"
)

// Output is the machine-readable form of one cycle.
type Output struct {
	CycleID   string `json:"cycle_id" yaml:"cycle_id"`
	Mode      string `json:"mode" yaml:"mode"`
	Extracted int    `json:"extracted" yaml:"extracted"`
	Retained  int    `json:"retained" yaml:"retained"`
	Outcome   string `json:"outcome" yaml:"outcome"`
	Summary   string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newOutput(res cycle.Result) Output {
	o := Output{
		CycleID:   res.CycleID,
		Mode:      res.Mode.String(),
		Extracted: res.Extracted,
		Retained:  res.Retained,
		Outcome:   res.Outcome,
		Summary:   res.Summary,
	}
	if res.Err != nil {
		o.Error = res.Err.Error()
	}
	return o
}

func writeYAML(w io.Writer, out Output) error {
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newRunner(c *cli.Context, cfg models.Config, sender bridge.Sender, overlay cycle.Presenter, database *db.DB, logger *slog.Logger) *cycle.Runner {
	r := cycle.New(fetcher.NewFetcher(), sender, overlay, logger)
	r.Extractor.MaxRecords = cfg.MaxRecords
	r.SettleDelay = cfg.SettleDelay
	r.LoadDelay = cfg.LoadDelay
	r.NavigationDelay = cfg.NavigationDelay
	r.View = c.String("view")
	if database != nil {
		r.Recorder = database
	}
	return r
}

func setup(c *cli.Context) (models.Config, *slog.Logger, *db.DB, error) {
	logger := common.NewLogger(c)
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cfg, logger, nil, cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitUsage)
	}
	database, err := common.OpenRunLog(c, cfg)
	if err != nil {
		logger.Error("failed to open run log", "error", err)
		return cfg, logger, nil, cli.Exit("", common.ExitRuntime)
	}
	return cfg, logger, database, nil
}

func AnalyzeAction(c *cli.Context) error {
	format := c.String("format")
	if format != "text" && format != "json" && format != "yaml" {
		return cli.Exit(fmt.Sprintf("Error: unknown format %q (use text, json or yaml)", format), common.ExitUsage)
	}
	location, err := common.Location(c)
	if err != nil {
		return err
	}
	cfg, logger, database, err := setup(c)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	sender, label := common.NewSender(c, cfg, database, logger)
	var screen io.Writer = os.Stdout
	if format != "text" {
		screen = io.Discard
	}
	overlay := presenter.New(screen,
		presenter.WithProvider(label),
		presenter.WithDismissAfter(cfg.DismissAfter),
		presenter.WithLogger(logger),
	)
	defer overlay.Dismiss()

	res, runErr := newRunner(c, cfg, sender, overlay, database, logger).Run(c.Context, location)

	if out := c.String("output"); out != "" && res.Summary != "" {
		if err := (&storage.Storage{}).SaveFile(out, []byte(res.Summary+"\n")); err != nil {
			logger.Error("failed to save summary", "path", out, "error", err)
			return cli.Exit("", common.ExitRuntime)
		}
		logger.Info("summary saved", "path", out)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newOutput(res)); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	case "yaml":
		if err := writeYAML(os.Stdout, newOutput(res)); err != nil {
			return err
		}
	}

	if runErr != nil && !errors.Is(runErr, cycle.ErrEmptyBatch) {
		logger.Error("analysis failed", "cycle_id", res.CycleID, "error", runErr)
		return cli.Exit("", common.ExitRuntime)
	}
	return nil
}

// WatchAction runs an initial cycle and one per navigation read from stdin.
// A line is a new location; ":hover", ":leave", ":toggle" and ":close"
// act on the overlay.
func WatchAction(c *cli.Context) error {
	location, err := common.Location(c)
	if err != nil {
		return err
	}
	cfg, logger, database, err := setup(c)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	sender, label := common.NewSender(c, cfg, database, logger)
	overlay := presenter.New(os.Stdout,
		presenter.WithProvider(label),
		presenter.WithDismissAfter(cfg.DismissAfter),
		presenter.WithLogger(logger),
	)
	defer overlay.Dismiss()

	navigations := make(chan string)
	go readEvents(os.Stdin, overlay, navigations, logger)

	return newRunner(c, cfg, sender, overlay, database, logger).Watch(c.Context, location, navigations)
}

// overlayControls is the part of the overlay driven from stdin.
type overlayControls interface {
	Hover()
	Leave()
	Toggle()
	Close()
}

func readEvents(r io.Reader, overlay overlayControls, navigations chan<- string, logger *slog.Logger) {
	defer close(navigations)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case ":hover":
			overlay.Hover()
		case ":leave":
			overlay.Leave()
		case ":toggle":
			overlay.Toggle()
		case ":close":
			overlay.Close()
		default:
			if strings.HasPrefix(line, ":") {
				logger.Warn("unknown overlay command", "command", line)
				continue
			}
			navigations <- line
		}
	}
}

// PromptAction prints the prompt the AI capability would receive for a page.
func PromptAction(c *cli.Context) error {
	location, err := common.Location(c)
	if err != nil {
		return err
	}
	logger := common.NewLogger(c)
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), common.ExitUsage)
	}

	r := newRunner(c, cfg, nil, nil, nil, logger)
	req, res, err := r.Request(c.Context, location)
	if errors.Is(err, cycle.ErrEmptyBatch) {
		fmt.Fprintln(os.Stderr, cycle.EmptyBatchMessage)
		return nil
	}
	if err != nil {
		logger.Error("failed to read emails", "error", err)
		return cli.Exit("", common.ExitRuntime)
	}

	lang := language.Detect(req.EmailData)
	logger.Info("prompt built", "mode", res.Mode.String(), "count", req.EmailCount, "language", lang)
	fmt.Println(prompt.Build(res.Mode, req.EmailData, prompt.WithLanguage(lang)))
	return nil
}
