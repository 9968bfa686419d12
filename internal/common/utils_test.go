package common

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/inbox-digest/internal/bridge"
	"github.com/dtnitsch/inbox-digest/pkg/capability"
)

// newContext builds a cli.Context with the shared flags parsed from args.
func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "", "")
	set.Bool("no-ai", false, "")
	set.Bool("no-history", false, "")
	set.String("ollama-endpoint", "", "")
	set.String("model", "", "")
	set.String("db", "", "")
	set.String("listen", "", "")
	set.String("remote", "", "")
	set.String("page", "", "")
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "ollama:\n  model: llama3\n  endpoint: http://10.0.0.2:11434\nmax_records: 10\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(newContext(t, "--config", path, "--model", "phi3", "--db", "runs.db"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Ollama.Model != "phi3" {
		t.Errorf("Model = %q, want flag override", cfg.Ollama.Model)
	}
	if cfg.Ollama.Endpoint != "http://10.0.0.2:11434" || cfg.MaxRecords != 10 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.DBPath != "runs.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestNewProvider(t *testing.T) {
	cfg, err := LoadConfig(newContext(t, "--no-ai"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if _, ok := NewProvider(cfg, nil).(capability.Disabled); !ok {
		t.Error("--no-ai should disable the capability")
	}

	cfg.Ollama.Enabled = true
	if _, ok := NewProvider(cfg, nil).(*capability.OllamaProvider); !ok {
		t.Error("expected an Ollama provider")
	}
}

func TestNewSender(t *testing.T) {
	cfg, _ := LoadConfig(newContext(t, "--no-ai"))

	s, label := NewSender(newContext(t), cfg, nil, nil)
	if _, ok := s.(*bridge.Local); !ok || label != "rule-based summarizer" {
		t.Errorf("NewSender() = %T, %q", s, label)
	}

	s, _ = NewSender(newContext(t, "--remote", "http://127.0.0.1:8787"), cfg, nil, nil)
	if _, ok := s.(*bridge.Client); !ok {
		t.Errorf("NewSender() = %T, want *bridge.Client", s)
	}
}

func TestLocation(t *testing.T) {
	if loc, err := Location(newContext(t, "--page", "inbox.html")); err != nil || loc != "inbox.html" {
		t.Errorf("Location() = %q, %v", loc, err)
	}
	if loc, err := Location(newContext(t, "saved.html")); err != nil || loc != "saved.html" {
		t.Errorf("Location() = %q, %v", loc, err)
	}
	if _, err := Location(newContext(t)); err == nil {
		t.Error("expected usage error")
	}
}
