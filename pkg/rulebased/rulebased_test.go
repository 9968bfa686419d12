package rulebased

import (
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/inbox-digest/models"
)

func fixedSummarizer() *Summarizer {
	s := New()
	s.Now = func() time.Time { return time.Date(2026, 10, 14, 15, 4, 0, 0, time.UTC) }
	return s
}

const upsBatch = "EMAIL 1: FROM: ups@ups.com SUBJECT: Package arriving tomorrow DATE: today PREVIEW: Your order #12345 arrives tomorrow by 5pm"

func TestSummarize_AggregateDelivery(t *testing.T) {
	got := fixedSummarizer().Summarize(models.ViewAggregate, upsBatch)

	var line string
	for _, l := range strings.Split(got, "\n") {
		if strings.Contains(l, "📦 Deliveries") {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("Summarize() = %q, want a deliveries line", got)
	}
	if !strings.Contains(line, "tomorrow") {
		t.Errorf("deliveries line = %q, want it to reference tomorrow", line)
	}
	if strings.Contains(got, NoEventsDetected) {
		t.Errorf("Summarize() contains the negative sentinel: %q", got)
	}
	if !strings.Contains(got, "3:04PM") {
		t.Errorf("Summarize() = %q, want footer time from the injected clock", got)
	}
}

func TestSummarize_AggregateCategories(t *testing.T) {
	text := `EMAIL 1:
FROM: noreply@delta.com
SUBJECT: Your flight DL 1234 itinerary
DATE: Oct 13
PREVIEW: Boarding begins at 7:40 AM, gate B12
---
EMAIL 2:
FROM: recruiter@acme.example
SUBJECT: Interview confirmed
DATE: today
PREVIEW: Your interview is on Zoom at 3:30 pm with the hiring manager
---`
	got := fixedSummarizer().Summarize(models.ViewAggregate, text)

	if !strings.Contains(got, "✈️ Flights: flight DL 1234") {
		t.Errorf("Summarize() = %q, want flight code extracted", got)
	}
	if !strings.Contains(got, "📅 Meetings:") || !strings.Contains(got, "3:30 pm") {
		t.Errorf("Summarize() = %q, want meeting time extracted", got)
	}
	if strings.Contains(got, "📦 Deliveries") {
		t.Errorf("Summarize() = %q, did not expect deliveries", got)
	}
}

func TestSummarize_AggregateCapsMatches(t *testing.T) {
	text := "Package arrives Monday. Package arrives Tuesday. Package arrives Friday. Shipment arriving tomorrow."
	got := fixedSummarizer().Summarize(models.ViewAggregate, text)
	for _, l := range strings.Split(got, "\n") {
		if strings.Contains(l, "📦 Deliveries") {
			if n := strings.Count(l, ";") + 1; n != maxAggregateMatches {
				t.Errorf("deliveries line has %d matches, want %d: %q", n, maxAggregateMatches, l)
			}
			return
		}
	}
	t.Fatalf("Summarize() = %q, want a deliveries line", got)
}

func TestSummarize_Single(t *testing.T) {
	text := "Hi Alex, this is a reminder that invoice INV-20931 for $249.99 is due tomorrow. " +
		"Payment must be received by 5pm on Oct 15. Please call us at 10:30 am if you have questions. " +
		"Reference #88812. This is urgent."
	got := fixedSummarizer().Summarize(models.ViewSingleItem, text)

	for _, want := range []string{"📅 Dates:", "tomorrow", "Oct 15", "⏰ Times:", "5pm", "10:30 am", "🔢 Numbers:", "$249.99", "INV-20931", "⚠️ Action:"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summarize() missing %q:\n%s", want, got)
		}
	}
}

func TestSummarize_SingleDedupesAndCaps(t *testing.T) {
	text := "Call me tomorrow. TOMORROW works. tomorrow again. Today, Monday, Friday and Sunday are bad. " +
		"Padding text to get safely above the single item minimum length."
	got := fixedSummarizer().Summarize(models.ViewSingleItem, text)

	for _, l := range strings.Split(got, "\n") {
		if strings.HasPrefix(l, "• 📅 Dates:") {
			if c := strings.Count(strings.ToLower(l), "tomorrow"); c != 1 {
				t.Errorf("dates line mentions tomorrow %d times, want 1: %q", c, l)
			}
			if n := strings.Count(l, ";") + 1; n != maxSingleMatches {
				t.Errorf("dates line has %d matches, want %d: %q", n, maxSingleMatches, l)
			}
			return
		}
	}
	t.Fatalf("Summarize() = %q, want a dates line", got)
}

func TestSummarize_KeywordFallback(t *testing.T) {
	// Mentions tracked terms without any extractable detail.
	text := "We should talk about the delivery process and the next meeting agenda. delivery matters."
	got := fixedSummarizer().Summarize(models.ViewAggregate, text)

	if !strings.HasPrefix(got, "📊 Keyword Overview") {
		t.Fatalf("Summarize() = %q, want keyword overview", got)
	}
	if !strings.Contains(got, "📦 Deliveries: 2 mentioned") || !strings.Contains(got, "📅 Meetings: 1 mentioned") {
		t.Errorf("Summarize() = %q, want counted terms", got)
	}
	if strings.Contains(got, "Flights") {
		t.Errorf("Summarize() = %q, zero counts must not be rendered", got)
	}
}

func TestSummarize_NegativeSentinel(t *testing.T) {
	text := "Hello, how are you? Just checking in to say hi and share some photos from the weekend trip. We had a lovely time by the lake."
	for _, mode := range []models.ViewMode{models.ViewAggregate, models.ViewSingleItem} {
		if got := fixedSummarizer().Summarize(mode, text); got != NoEventsDetected {
			t.Errorf("Summarize(%v) = %q, want %q", mode, got, NoEventsDetected)
		}
	}
}

func TestKeywordOverview(t *testing.T) {
	s := fixedSummarizer()
	if got := s.KeywordOverview("Hello, how are you?"); got != NoEventsDetected {
		t.Errorf("KeywordOverview() = %q, want %q", got, NoEventsDetected)
	}
	if got := s.KeywordOverview("interview, interview, deadline"); !strings.Contains(got, "👔 Interviews: 2 mentioned") {
		t.Errorf("KeywordOverview() = %q", got)
	}
}

func TestSummarize_Insufficient(t *testing.T) {
	tests := []struct {
		name string
		mode models.ViewMode
		text string
		want string
	}{
		{"empty aggregate", models.ViewAggregate, "", InsufficientAggregate},
		{"short aggregate", models.ViewAggregate, strings.Repeat("a", 49), InsufficientAggregate},
		{"ten chars single", models.ViewSingleItem, "0123456789", InsufficientSingle},
		{"aggregate-length single", models.ViewSingleItem, strings.Repeat("flight ", 10), InsufficientSingle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fixedSummarizer().Summarize(tt.mode, tt.text); got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarize_NeverEmpty(t *testing.T) {
	inputs := []string{"x", strings.Repeat("lorem ipsum ", 20), upsBatch, "deadline " + strings.Repeat(".", 120)}
	for _, in := range inputs {
		for _, mode := range []models.ViewMode{models.ViewAggregate, models.ViewSingleItem} {
			if got := Summarize(mode, in); got == "" {
				t.Errorf("Summarize(%v, %q) returned empty string", mode, in)
			}
		}
	}
}
