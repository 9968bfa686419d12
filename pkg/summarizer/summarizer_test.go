package summarizer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/inbox-digest/models"
	"github.com/dtnitsch/inbox-digest/pkg/capability"
	"github.com/dtnitsch/inbox-digest/pkg/rulebased"
)

type fakeSession struct {
	reply   string
	err     error
	prompts []string
	block   chan struct{}
	mu      sync.Mutex
}

func (s *fakeSession) Prompt(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, text)
	s.mu.Unlock()
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

type fakeProvider struct {
	availability capability.Availability
	session      *fakeSession
	createErr    error
	progress     []capability.Progress
	panicOn      string

	mu      sync.Mutex
	creates int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Availability(context.Context) capability.Availability {
	if p.panicOn == "availability" {
		panic("probe exploded")
	}
	return p.availability
}

func (p *fakeProvider) Create(context.Context) *capability.Creation {
	p.mu.Lock()
	p.creates++
	p.mu.Unlock()
	return capability.StartCreation(func(report func(capability.Progress)) (capability.Session, error) {
		for _, ev := range p.progress {
			report(ev)
		}
		if p.createErr != nil {
			return nil, p.createErr
		}
		return p.session, nil
	})
}

func (p *fakeProvider) createCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates
}

type memRecorder struct {
	mu   sync.Mutex
	runs []models.Run
}

func (r *memRecorder) RecordRun(_ context.Context, run models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func fixedFallback() *rulebased.Summarizer {
	s := rulebased.New()
	s.Now = func() time.Time { return time.Date(2025, 10, 12, 9, 30, 0, 0, time.UTC) }
	return s
}

const upsBatch = "EMAIL 1:\nFROM: UPS\nSUBJECT: Package arriving tomorrow\nDATE: Oct 12\nPREVIEW: Your package arrives tomorrow by 8pm\n---"

func TestSummarize_AISuccess(t *testing.T) {
	session := &fakeSession{reply: "  📦 DELIVERIES\n- UPS package tomorrow  "}
	provider := &fakeProvider{availability: capability.Available, session: session}
	rec := &memRecorder{}
	o := New(provider, WithRecorder(rec))

	got, ok := o.Summarize(context.Background(), models.ViewAggregate, upsBatch, 1)
	if !ok {
		t.Fatal("Summarize() rejected request")
	}
	if got != "📦 DELIVERIES\n- UPS package tomorrow" {
		t.Errorf("Summarize() = %q", got)
	}
	if len(session.prompts) != 1 || !strings.Contains(session.prompts[0], upsBatch) {
		t.Errorf("prompt did not embed batch text: %v", session.prompts)
	}
	if len(rec.runs) != 1 || rec.runs[0].Path != models.RunPathAI {
		t.Errorf("runs = %+v, want one ai run", rec.runs)
	}
}

func TestSummarize_DownloadableReportsProgress(t *testing.T) {
	session := &fakeSession{reply: "ok"}
	provider := &fakeProvider{
		availability: capability.Downloadable,
		session:      session,
		progress: []capability.Progress{
			{Status: "pulling", Loaded: 512, Total: 1024},
			{Status: "success"},
		},
	}
	got, ok := New(provider).Summarize(context.Background(), models.ViewAggregate, upsBatch, 1)
	if !ok || got != "ok" {
		t.Errorf("Summarize() = %q, %v", got, ok)
	}
}

func TestSummarize_ZeroCountSkipsAI(t *testing.T) {
	tests := []struct {
		mode models.ViewMode
		want string
	}{
		{models.ViewAggregate, rulebased.InsufficientAggregate},
		{models.ViewSingleItem, rulebased.InsufficientSingle},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			provider := &fakeProvider{availability: capability.Available, session: &fakeSession{reply: "x"}}
			rec := &memRecorder{}
			got, ok := New(provider, WithRecorder(rec)).Summarize(context.Background(), tt.mode, "", 0)
			if !ok || got != tt.want {
				t.Errorf("Summarize() = %q, %v, want %q", got, ok, tt.want)
			}
			if n := provider.createCount(); n != 0 {
				t.Errorf("capability invoked %d times, want 0", n)
			}
			if rec.runs[0].Path != models.RunPathInsufficient {
				t.Errorf("path = %q", rec.runs[0].Path)
			}
		})
	}
}

func TestSummarize_FallsBack(t *testing.T) {
	want := fixedFallback().Summarize(models.ViewAggregate, upsBatch)

	tests := []struct {
		name     string
		provider *fakeProvider
	}{
		{"unsupported", &fakeProvider{availability: capability.Unsupported}},
		{"unavailable", &fakeProvider{availability: capability.Unavailable}},
		{"create fails", &fakeProvider{availability: capability.Downloadable, createErr: &capability.CapabilityError{Op: "download", Err: errors.New("disk full")}}},
		{"prompt fails", &fakeProvider{availability: capability.Available, session: &fakeSession{err: &capability.CapabilityError{Op: "prompt", Err: errors.New("boom")}}}},
		{"empty reply", &fakeProvider{availability: capability.Available, session: &fakeSession{reply: "   "}}},
		{"provider panics", &fakeProvider{availability: capability.Available, panicOn: "availability"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			o := New(tt.provider, WithFallback(fixedFallback()), WithRecorder(rec))
			got, ok := o.Summarize(context.Background(), models.ViewAggregate, upsBatch, 1)
			if !ok {
				t.Fatal("Summarize() rejected request")
			}
			if got != want {
				t.Errorf("Summarize() = %q, want %q", got, want)
			}
			if !strings.Contains(got, "📦 Deliveries") {
				t.Errorf("fallback lacks deliveries bullet: %q", got)
			}
			if rec.runs[0].Path != models.RunPathRule || rec.runs[0].Err == "" {
				t.Errorf("run = %+v, want rule path with error", rec.runs[0])
			}
			if o.Busy() {
				t.Error("guard not reset")
			}
		})
	}
}

func TestSummarize_ShortSingleItemAttemptsAIFirst(t *testing.T) {
	provider := &fakeProvider{availability: capability.Unavailable}
	o := New(provider)

	got, ok := o.Summarize(context.Background(), models.ViewSingleItem, "Short text", 1)
	if !ok || got != rulebased.InsufficientSingle {
		t.Errorf("Summarize() = %q, %v, want insufficient sentinel", got, ok)
	}

	session := &fakeSession{reply: "AI summary of short text"}
	provider = &fakeProvider{availability: capability.Available, session: session}
	got, _ = New(provider).Summarize(context.Background(), models.ViewSingleItem, "Short text", 1)
	if got != "AI summary of short text" {
		t.Errorf("Summarize() = %q, want AI output", got)
	}
	if provider.createCount() != 1 {
		t.Errorf("capability not attempted")
	}
}

func TestSummarize_ReentrantRequestIgnored(t *testing.T) {
	session := &fakeSession{reply: "first", block: make(chan struct{})}
	provider := &fakeProvider{availability: capability.Available, session: session}
	o := New(provider)

	type result struct {
		summary string
		ok      bool
	}
	first := make(chan result, 1)
	go func() {
		s, ok := o.Summarize(context.Background(), models.ViewAggregate, upsBatch, 1)
		first <- result{s, ok}
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !o.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("first request never started")
		}
		time.Sleep(time.Millisecond)
	}

	if s, ok := o.Summarize(context.Background(), models.ViewAggregate, upsBatch, 1); ok || s != "" {
		t.Errorf("second Summarize() = %q, %v, want rejection", s, ok)
	}

	close(session.block)
	r := <-first
	if !r.ok || r.summary != "first" {
		t.Errorf("first Summarize() = %q, %v", r.summary, r.ok)
	}
	if o.Busy() {
		t.Error("guard not reset after completion")
	}

	if _, ok := o.Summarize(context.Background(), models.ViewAggregate, upsBatch, 1); !ok {
		t.Error("request after completion rejected")
	}
}

func TestSummarize_AITimeout(t *testing.T) {
	session := &fakeSession{reply: "late", block: make(chan struct{})}
	defer close(session.block)
	provider := &fakeProvider{availability: capability.Available, session: session}
	o := New(provider, WithFallback(fixedFallback()), WithAITimeout(20*time.Millisecond))

	got, ok := o.Summarize(context.Background(), models.ViewAggregate, upsBatch, 1)
	if !ok || got == "late" || !strings.Contains(got, "📦 Deliveries") {
		t.Errorf("Summarize() = %q, %v, want rule-based fallback", got, ok)
	}
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name   string
		req    models.SummaryRequest
		want   string
		wantOK bool
	}{
		{
			name:   "aggregate",
			req:    models.SummaryRequest{Action: models.ActionGenerateSummary, EmailData: "", EmailCount: 0},
			want:   rulebased.InsufficientAggregate,
			wantOK: true,
		},
		{
			name:   "process text is single item",
			req:    models.SummaryRequest{Action: models.ActionProcessText, EmailData: "tiny"},
			want:   rulebased.InsufficientSingle,
			wantOK: true,
		},
		{
			name:   "current view wins",
			req:    models.SummaryRequest{Action: models.ActionGenerateSummary, EmailData: "tiny", EmailCount: 1, CurrentView: "single"},
			want:   rulebased.InsufficientSingle,
			wantOK: true,
		},
		{
			name:   "unknown action",
			req:    models.SummaryRequest{Action: "translate", EmailData: "tiny", EmailCount: 1},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(capability.Disabled{})
			resp, ok := o.Handle(context.Background(), tt.req)
			if ok != tt.wantOK {
				t.Fatalf("Handle() ok = %v, want %v", ok, tt.wantOK)
			}
			if resp.Summary != tt.want {
				t.Errorf("Handle() = %q, want %q", resp.Summary, tt.want)
			}
		})
	}
}

func TestEndToEnd_DeliveryWithoutAI(t *testing.T) {
	o := New(capability.Disabled{}, WithFallback(fixedFallback()))
	got, ok := o.Summarize(context.Background(), models.ViewAggregate, upsBatch, 1)
	if !ok {
		t.Fatal("rejected")
	}
	if !strings.Contains(got, "📦 Deliveries:") {
		t.Errorf("Summarize() = %q, want deliveries bullet", got)
	}
}

func TestMinimal(t *testing.T) {
	long := strings.Repeat("a", minimalLen+10)
	if got := minimal(models.ViewAggregate, long); len([]rune(got)) != minimalLen+3 {
		t.Errorf("minimal() length = %d", len([]rune(got)))
	}
	if got := minimal(models.ViewSingleItem, "  "); got != rulebased.InsufficientSingle {
		t.Errorf("minimal() = %q", got)
	}
}

func TestSummarize_RecordsCycleID(t *testing.T) {
	rec := &memRecorder{}
	o := New(capability.Disabled{}, WithRecorder(rec))
	ctx := WithCycleID(context.Background(), "cycle-42")
	if _, ok := o.Summarize(ctx, models.ViewAggregate, upsBatch, 1); !ok {
		t.Fatal("rejected")
	}
	if got := rec.runs[0].CycleID; got != "cycle-42" {
		t.Errorf("CycleID = %q, want cycle-42", got)
	}
	if rec.runs[0].Provider != "none" {
		t.Errorf("Provider = %q", rec.runs[0].Provider)
	}
}
