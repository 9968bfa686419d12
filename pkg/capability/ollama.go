package capability

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "gemma3:1b"

	probeTimeout = 3 * time.Second
)

// OllamaProvider serves sessions from a local Ollama daemon.
type OllamaProvider struct {
	endpoint string
	model    string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

type OllamaOption func(*OllamaProvider)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) OllamaOption {
	return func(p *OllamaProvider) { p.client = c }
}

// WithRequestsPerMinute limits prompt calls. Zero or less disables limiting.
func WithRequestsPerMinute(n int) OllamaOption {
	return func(p *OllamaProvider) {
		if n <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

func WithLogger(l *slog.Logger) OllamaOption {
	return func(p *OllamaProvider) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewOllamaProvider(endpoint, model string, opts ...OllamaOption) *OllamaProvider {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	p := &OllamaProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		// No overall timeout: generation time is bounded by the caller's context.
		client: &http.Client{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OllamaProvider) Name() string {
	return "ollama/" + p.model
}

type ollamaModel struct {
	Name string `json:"name"`
}

type ollamaTagsResponse struct {
	Models []ollamaModel `json:"models"`
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type ollamaPullEvent struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Availability probes /api/tags. A daemon that answers but lacks the model is
// Downloadable.
func (p *OllamaProvider) Availability(ctx context.Context) Availability {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	models, err := p.listModels(ctx)
	if err != nil {
		p.logger.Debug("ollama probe failed", "endpoint", p.endpoint, "error", err)
		return Unavailable
	}
	if p.hasModel(models) {
		return Available
	}
	return Downloadable
}

func (p *OllamaProvider) listModels(ctx context.Context) ([]ollamaModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tags returned status %d", resp.StatusCode)
	}
	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags.Models, nil
}

func (p *OllamaProvider) hasModel(models []ollamaModel) bool {
	for _, m := range models {
		if m.Name == p.model || m.Name == p.model+":latest" {
			return true
		}
	}
	return false
}

// Create pulls the model when needed and returns a session bound to it.
func (p *OllamaProvider) Create(ctx context.Context) *Creation {
	return StartCreation(func(report func(Progress)) (Session, error) {
		switch a := p.Availability(ctx); a {
		case Available:
		case Downloadable:
			if err := p.pull(ctx, report); err != nil {
				return nil, &CapabilityError{Op: "download", Err: err}
			}
		default:
			return nil, fmt.Errorf("%s is %s: %w", p.Name(), a, ErrUnavailable)
		}
		return &ollamaSession{provider: p}, nil
	})
}

func (p *OllamaProvider) pull(ctx context.Context, report func(Progress)) error {
	body, err := json.Marshal(ollamaPullRequest{Model: p.model, Stream: true})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pull returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev ollamaPullEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("decode pull event: %w", err)
		}
		if ev.Error != "" {
			return errors.New(ev.Error)
		}
		report(Progress{Status: ev.Status, Loaded: ev.Completed, Total: ev.Total})
		if ev.Status == "success" {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("pull stream ended without success")
}

type ollamaSession struct {
	provider *OllamaProvider
}

func (s *ollamaSession) Prompt(ctx context.Context, text string) (string, error) {
	p := s.provider
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", &CapabilityError{Op: "prompt", Err: err}
		}
	}

	body, err := json.Marshal(ollamaGenerateRequest{Model: p.model, Prompt: text, Stream: false})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &CapabilityError{Op: "prompt", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return "", &CapabilityError{Op: "prompt", Err: err}
	}
	defer resp.Body.Close()

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &CapabilityError{Op: "prompt", Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)}
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return "", &CapabilityError{Op: "prompt", Err: fmt.Errorf("status %d: %s", resp.StatusCode, out.Error)}
	}

	p.logger.Debug("ollama prompt complete", "model", p.model, "chars", len(out.Response), "duration", time.Since(start))
	return out.Response, nil
}
