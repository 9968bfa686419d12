// Package cycle drives the page side: one analysis cycle per page load or
// navigation, from extraction to the overlay.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/dtnitsch/inbox-digest/internal/bridge"
	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/classifier"
	"github.com/dtnitsch/inbox-digest/pkg/extractor"
	"github.com/dtnitsch/inbox-digest/pkg/parser"
	"github.com/dtnitsch/inbox-digest/pkg/summarizer"
)

// Messages shown by the overlay outside of a summary.
const (
	EmptyBatchMessage = "No important emails detected. The extension looks for emails about deliveries, flights, meetings, etc. Try checking your main inbox."
	NoResponseMessage = "Analysis complete. Try refreshing the page."
	TroubleMessage    = "Having trouble accessing your emails. Make sure you're on Gmail and try refreshing the page."
	singleLoading     = "Analyzing this email with AI..."
)

const (
	DefaultSettleDelay     = 1500 * time.Millisecond
	DefaultLoadDelay       = 5 * time.Second
	DefaultNavigationDelay = 3 * time.Second
)

// ErrEmptyBatch means nothing on the page survived filtering.
var ErrEmptyBatch = errors.New("no important emails detected")

// messageBody selects the body of an opened message.
const messageBody = ".a3s, .ii.gt, [role=\"main\"] [data-message-id]"

// Presenter is the overlay as seen by a cycle.
type Presenter interface {
	Begin(cycle string)
	Display(cycle, text string, count int, loading bool)
	DisplayError(cycle, msg string)
	Supersede()
}

// Loader returns the rendered page at a location. *fetcher.Fetcher satisfies it.
type Loader interface {
	LoadDocument(ctx context.Context, location string) (*goquery.Document, []byte, error)
}

// Recorder persists cycle metadata. *db.DB satisfies it.
type Recorder interface {
	RecordCycle(ctx context.Context, c models.Cycle) error
}

// Result is the outcome of one cycle.
type Result struct {
	CycleID   string
	Mode      models.ViewMode
	Extracted int
	Retained  int
	Summary   string
	Outcome   string
	Err       error
}

type Runner struct {
	Loader    Loader
	Extractor *extractor.Extractor
	Sender    bridge.Sender
	Presenter Presenter
	Recorder  Recorder
	Logger    *slog.Logger

	// View forces a view mode; "" detects it from the location.
	View string

	SettleDelay     time.Duration
	LoadDelay       time.Duration
	NavigationDelay time.Duration

	NewID func() string

	wg sync.WaitGroup
}

func New(loader Loader, sender bridge.Sender, presenter Presenter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Loader:          loader,
		Extractor:       extractor.New(logger),
		Sender:          sender,
		Presenter:       presenter,
		Logger:          logger,
		SettleDelay:     DefaultSettleDelay,
		LoadDelay:       DefaultLoadDelay,
		NavigationDelay: DefaultNavigationDelay,
		NewID:           uuid.NewString,
	}
}

// Run executes one cycle and waits for its summary.
func (r *Runner) Run(ctx context.Context, location string) (Result, error) {
	res := <-r.Start(ctx, location)
	return res, res.Err
}

// Start executes the page-side part of a cycle and returns once the request
// is on its way. The channel yields the result when the response (or its
// absence) has been displayed.
func (r *Runner) Start(ctx context.Context, location string) <-chan Result {
	out := make(chan Result, 1)
	started := time.Now()
	res := Result{CycleID: r.NewID()}
	logger := r.Logger.With("cycle_id", res.CycleID)

	finish := func(res Result) {
		r.record(ctx, res, started)
		out <- res
	}

	r.Presenter.Begin(res.CycleID)
	logger.Info("analysis cycle started", "location", location)

	if err := sleep(ctx, r.SettleDelay); err != nil {
		res.Outcome, res.Err = models.OutcomeError, err
		finish(res)
		return out
	}

	mode, err := r.mode(location)
	if err != nil {
		res.Outcome, res.Err = models.OutcomeError, err
		finish(res)
		return out
	}
	res.Mode = mode

	req, count, err := r.buildRequest(ctx, location, &res)
	if err != nil {
		if !errors.Is(err, ErrEmptyBatch) {
			logger.Error("failed to read emails", "error", err)
			r.Presenter.DisplayError(res.CycleID, TroubleMessage)
			res.Outcome = models.OutcomeError
		} else {
			logger.Info("no important emails", "extracted", res.Extracted)
			r.Presenter.Display(res.CycleID, EmptyBatchMessage, 0, false)
			res.Outcome = models.OutcomeEmpty
		}
		res.Err = err
		finish(res)
		return out
	}

	loading := singleLoading
	if mode == models.ViewAggregate {
		loading = fmt.Sprintf("Analyzing %d emails with AI...", count)
	}
	r.Presenter.Display(res.CycleID, loading, count, true)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		resp, ok, err := r.Sender.Send(summarizer.WithCycleID(ctx, res.CycleID), req)
		switch {
		case err != nil || !ok || strings.TrimSpace(resp.Summary) == "":
			if err != nil {
				logger.Warn("summary request failed", "error", err)
			} else {
				logger.Warn("no summary response")
			}
			r.Presenter.Display(res.CycleID, NoResponseMessage, count, false)
			res.Outcome = models.OutcomeNoResponse
		default:
			r.Presenter.Display(res.CycleID, resp.Summary, count, false)
			res.Summary = resp.Summary
			res.Outcome = models.OutcomeSummary
		}
		logger.Info("analysis cycle finished", "outcome", res.Outcome, "duration", time.Since(started))
		finish(res)
	}()
	return out
}

// Request builds the summary request for location without displaying or
// sending anything.
func (r *Runner) Request(ctx context.Context, location string) (models.SummaryRequest, Result, error) {
	res := Result{CycleID: r.NewID()}
	mode, err := r.mode(location)
	if err != nil {
		return models.SummaryRequest{}, res, err
	}
	res.Mode = mode
	req, _, err := r.buildRequest(ctx, location, &res)
	return req, res, err
}

func (r *Runner) mode(location string) (models.ViewMode, error) {
	if r.View == "" {
		return models.DetectViewMode(location), nil
	}
	return models.ParseViewMode(r.View)
}

func (r *Runner) buildRequest(ctx context.Context, location string, res *Result) (models.SummaryRequest, int, error) {
	doc, raw, err := r.Loader.LoadDocument(ctx, location)
	if err != nil {
		return models.SummaryRequest{}, 0, err
	}

	if res.Mode == models.ViewSingleItem {
		text, err := singleItemText(location, doc, raw)
		if err != nil {
			return models.SummaryRequest{}, 0, err
		}
		res.Extracted, res.Retained = 1, 1
		return models.SummaryRequest{
			Action:      models.ActionProcessText,
			EmailData:   text,
			EmailCount:  1,
			CurrentView: res.Mode.String(),
		}, 1, nil
	}

	records, err := r.Extractor.Extract(doc)
	if err != nil {
		return models.SummaryRequest{}, 0, err
	}
	retained := classifier.Filter(records)
	res.Extracted, res.Retained = len(records), len(retained)
	for _, rec := range retained {
		r.Logger.Debug("retained email", "cycle_id", res.CycleID, "categories", classifier.MatchedCategories(rec))
	}
	if len(retained) == 0 {
		return models.SummaryRequest{}, 0, ErrEmptyBatch
	}

	return models.SummaryRequest{
		Action:      models.ActionGenerateSummary,
		EmailData:   models.FormatBatch(retained),
		EmailCount:  len(retained),
		CurrentView: res.Mode.String(),
	}, len(retained), nil
}

// singleItemText distills the opened message body, or the whole page when no
// message body is marked up.
func singleItemText(location string, doc *goquery.Document, raw []byte) (string, error) {
	html := string(raw)
	if body := doc.Find(messageBody).First(); body.Length() > 0 {
		if h, err := goquery.OuterHtml(body); err == nil {
			html = "<html><body>" + h + "</body></html>"
		}
	}
	readable, err := parser.ReadableText(pageURL(location), html)
	if err != nil {
		return "", &extractor.ExtractionError{Key: "message body", Err: err}
	}
	text := readable.Text
	if readable.Title != "" && !strings.Contains(text, readable.Title) {
		text = readable.Title + "\n" + text
	}
	return text, nil
}

// pageURL gives readability a base URL for file locations.
func pageURL(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	return "file:///" + strings.TrimPrefix(location, "/")
}

// Watch runs the first cycle after LoadDelay and a new one NavigationDelay
// after every navigation to a different location. It returns when ctx is done
// or navigations is closed and the last scheduled cycle has finished.
func (r *Runner) Watch(ctx context.Context, initial string, navigations <-chan string) error {
	location := initial
	timer := time.NewTimer(r.LoadDelay)
	defer timer.Stop()
	scheduled := true

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return nil

		case next, ok := <-navigations:
			if !ok {
				navigations = nil
				if !scheduled {
					r.wg.Wait()
					return nil
				}
				continue
			}
			next = strings.TrimSpace(next)
			if next == "" || next == location {
				continue
			}
			r.Logger.Debug("navigation", "from", location, "to", next)
			location = next
			r.Presenter.Supersede()
			timer.Reset(r.NavigationDelay)
			scheduled = true

		case <-timer.C:
			scheduled = false
			r.Start(ctx, location)
			if navigations == nil {
				r.wg.Wait()
				return nil
			}
		}
	}
}

func (r *Runner) record(ctx context.Context, res Result, started time.Time) {
	if r.Recorder == nil {
		return
	}
	c := models.Cycle{
		ID:        res.CycleID,
		Mode:      res.Mode,
		Extracted: res.Extracted,
		Retained:  res.Retained,
		Outcome:   res.Outcome,
		Started:   started,
		Finished:  time.Now(),
	}
	if err := r.Recorder.RecordCycle(context.WithoutCancel(ctx), c); err != nil {
		r.Logger.Warn("failed to record cycle", "cycle_id", res.CycleID, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
