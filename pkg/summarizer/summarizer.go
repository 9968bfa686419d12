// Package summarizer decides between the AI capability and the rule-based
// summarizer and guarantees a non-empty result for every accepted request.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/capability"
	"github.com/dtnitsch/inbox-digest/pkg/language"
	"github.com/dtnitsch/inbox-digest/pkg/prompt"
	"github.com/dtnitsch/inbox-digest/pkg/rulebased"
)

// minimalLen bounds the echoed batch text used when every summarizer failed.
const minimalLen = 500

var errEmptyResponse = errors.New("empty response")

// Recorder persists run metadata.
type Recorder interface {
	RecordRun(ctx context.Context, run models.Run) error
}

type cycleKey struct{}

// WithCycleID tags ctx with the analysis cycle a request belongs to.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

// CycleID returns the cycle id carried by ctx, if any.
func CycleID(ctx context.Context) string {
	id, _ := ctx.Value(cycleKey{}).(string)
	return id
}

// Orchestrator runs one summarization at a time.
type Orchestrator struct {
	provider  capability.Provider
	fallback  *rulebased.Summarizer
	recorder  Recorder
	logger    *slog.Logger
	aiTimeout time.Duration

	busy atomic.Bool
}

type Option func(*Orchestrator)

func WithFallback(s *rulebased.Summarizer) Option {
	return func(o *Orchestrator) { o.fallback = s }
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAITimeout bounds the whole AI attempt. Zero means no bound.
func WithAITimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.aiTimeout = d }
}

// New returns an Orchestrator. A nil provider behaves as capability.Disabled.
func New(provider capability.Provider, opts ...Option) *Orchestrator {
	if provider == nil {
		provider = capability.Disabled{}
	}
	o := &Orchestrator{
		provider: provider,
		fallback: rulebased.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Busy reports whether a request is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Summarize returns the summary for batchText. ok is false only when another
// request is already in flight; the caller gets no response in that case.
func (o *Orchestrator) Summarize(ctx context.Context, mode models.ViewMode, batchText string, count int) (summary string, ok bool) {
	if !o.busy.CompareAndSwap(false, true) {
		o.logger.Warn("summarization already in progress, request ignored", "mode", mode.String(), "count", count)
		return "", false
	}
	defer o.busy.Store(false)

	run := models.Run{CycleID: CycleID(ctx), Mode: mode, Count: count, Provider: o.provider.Name(), At: time.Now()}
	defer func() {
		run.Duration = time.Since(run.At)
		o.record(context.WithoutCancel(ctx), run)
	}()

	if count == 0 || strings.TrimSpace(batchText) == "" {
		run.Path = models.RunPathInsufficient
		return rulebased.Insufficient(mode), true
	}

	run.Language = language.Detect(batchText)
	logger := o.logger.With("cycle_id", run.CycleID, "mode", mode.String(), "count", count)

	out, err := o.tryAI(ctx, mode, batchText, run.Language)
	if err == nil {
		run.Path = models.RunPathAI
		logger.Info("summary generated", "path", run.Path, "provider", run.Provider)
		return out, true
	}
	run.Err = err.Error()
	if errors.Is(err, capability.ErrUnavailable) {
		logger.Info("AI capability not usable, using rule-based summary", "provider", run.Provider)
	} else {
		logger.Warn("AI summarization failed, using rule-based summary", "error", err)
	}

	out, err = o.ruleBased(mode, batchText)
	if err == nil {
		run.Path = models.RunPathRule
		return out, true
	}
	logger.Error("rule-based summarization failed", "error", err)
	run.Path = models.RunPathMinimal
	return minimal(mode, batchText), true
}

// Handle maps a wire request onto Summarize.
func (o *Orchestrator) Handle(ctx context.Context, req models.SummaryRequest) (models.SummaryResponse, bool) {
	if !req.KnownAction() {
		o.logger.Warn("unknown action", "action", req.Action)
		return models.SummaryResponse{}, false
	}
	mode, err := req.ViewMode()
	if err != nil {
		o.logger.Warn("invalid view mode, using default", "view", req.CurrentView, "error", err)
		if req.Action == models.ActionProcessText {
			mode = models.ViewSingleItem
		} else {
			mode = models.ViewAggregate
		}
	}
	count := req.EmailCount
	if req.Action == models.ActionProcessText && count == 0 && strings.TrimSpace(req.EmailData) != "" {
		count = 1
	}
	summary, ok := o.Summarize(ctx, mode, req.EmailData, count)
	if !ok {
		return models.SummaryResponse{}, false
	}
	return models.SummaryResponse{Summary: summary}, true
}

func (o *Orchestrator) tryAI(ctx context.Context, mode models.ViewMode, text, lang string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &capability.CapabilityError{Op: "prompt", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	a := o.provider.Availability(ctx)
	if !a.Usable() {
		return "", fmt.Errorf("%s is %s: %w", o.provider.Name(), a, capability.ErrUnavailable)
	}

	if o.aiTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.aiTimeout)
		defer cancel()
	}

	creation := o.provider.Create(ctx)
	for p := range creation.Progress() {
		o.logProgress(p)
	}
	session, err := creation.Wait()
	if err != nil {
		return "", err
	}

	reply, err := session.Prompt(ctx, prompt.Build(mode, text, prompt.WithLanguage(lang)))
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", &capability.CapabilityError{Op: "prompt", Err: errEmptyResponse}
	}
	return reply, nil
}

func (o *Orchestrator) ruleBased(mode models.ViewMode, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	out = o.fallback.Summarize(mode, text)
	if out == "" {
		return "", errors.New("rule-based summarizer returned nothing")
	}
	return out, nil
}

func (o *Orchestrator) logProgress(p capability.Progress) {
	if p.Total <= 0 {
		o.logger.Info("model download", "status", p.Status)
		return
	}
	o.logger.Info("model download",
		"status", p.Status,
		"progress", fmt.Sprintf("%.1f%%", p.Fraction()*100),
		"loaded", humanize.Bytes(uint64(p.Loaded)),
		"total", humanize.Bytes(uint64(p.Total)),
	)
}

func (o *Orchestrator) record(ctx context.Context, run models.Run) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordRun(ctx, run); err != nil {
		o.logger.Warn("failed to record run", "error", err)
	}
}

// minimal echoes the start of the batch text.
func minimal(mode models.ViewMode, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return rulebased.Insufficient(mode)
	}
	if utf8.RuneCountInString(text) > minimalLen {
		text = string([]rune(text)[:minimalLen]) + "..."
	}
	return text
}
