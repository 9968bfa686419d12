package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/inbox-digest/internal/analyze"
	"github.com/dtnitsch/inbox-digest/internal/db"
	"github.com/dtnitsch/inbox-digest/internal/serve"
	"github.com/dtnitsch/inbox-digest/pkg/help"
)

var pageFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "page",
		Usage: "Saved webmail HTML file or URL (a #fragment selects the view)",
	},
	&cli.StringFlag{
		Name:  "view",
		Usage: "Force the view: aggregate or single (default: detect from the location)",
	},
	&cli.StringFlag{
		Name:  "remote",
		Usage: "Send requests to an inbox-digest server instead of summarizing in-process",
	},
}

func main() {
	app := &cli.App{
		Name:  "inbox-digest",
		Usage: "Summarize a webmail inbox or message page with a local model or rule-based fallback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"INBOX_DIGEST_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output",
			},
			&cli.BoolFlag{
				Name:  "no-ai",
				Usage: "Skip the AI capability and use the rule-based summarizer",
			},
			&cli.StringFlag{
				Name:    "ollama-endpoint",
				Usage:   "Ollama server URL",
				EnvVars: []string{"OLLAMA_HOST"},
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Ollama model name",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Run log database path (\":memory:\" for none on disk)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record runs or cycles",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "quickstart",
				Usage: "Print example commands and a config file",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
			{
				Name:      "analyze",
				Usage:     "Run one cycle against a page and print the summary",
				ArgsUsage: "[page]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Also save the summary text to this file",
					},
					&cli.StringFlag{
						Name:  "format",
						Value: "text",
						Usage: "Output format: text (overlay), json or yaml",
					},
				}, pageFlags...),
				Action: analyze.AnalyzeAction,
			},
			{
				Name:      "watch",
				Usage:     "Run a cycle, then one per location read from stdin",
				ArgsUsage: "[page]",
				Flags:     pageFlags,
				Action:    analyze.WatchAction,
			},
			{
				Name:      "prompt",
				Usage:     "Print the prompt the model would receive for a page",
				ArgsUsage: "[page]",
				Flags:     pageFlags[:2],
				Action:    analyze.PromptAction,
			},
			{
				Name:  "serve",
				Usage: "Serve the summarization bridge over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Listen address (default from config, 127.0.0.1:8787)",
					},
					&cli.StringFlag{
						Name:  "allow-origin",
						Value: "*",
						Usage: "Access-Control-Allow-Origin value",
					},
					&cli.IntFlag{
						Name:  "rate-limit",
						Value: 60,
						Usage: "Summary requests per minute (0 disables the limit)",
					},
				},
				Action: serve.ServeAction,
			},
			{
				Name:  "history",
				Usage: "List recorded summarization runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   20,
						Usage:   "Number of rows to show",
					},
					&cli.BoolFlag{
						Name:  "cycles",
						Usage: "List page cycles instead of runs",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "Count runs per summarization path",
					},
				},
				Action: db.HistoryAction,
			},
			{
				Name:  "prune",
				Usage: "Delete recorded runs and cycles older than an age",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "older-than",
						Value: "30d",
						Usage: "Age such as 30d or 12h",
					},
				},
				Action: db.PruneAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
