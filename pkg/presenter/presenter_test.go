package presenter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func fixedClock() time.Time { return time.Date(2025, 10, 12, 9, 30, 0, 0, time.UTC) }

func newTestOverlay(buf *bytes.Buffer, dismiss time.Duration) *Overlay {
	return New(buf, WithProvider("ollama/gemma3:1b"), WithDismissAfter(dismiss), WithClock(fixedClock))
}

func TestDisplay_SummaryPanel(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, time.Hour)
	o.Begin("c1")
	o.Display("c1", "📦 DELIVERIES\n- UPS tomorrow", 3, false)

	out := buf.String()
	for _, want := range []string{
		"🤖 Gmail Summary (3 emails)",
		"📦 DELIVERIES",
		"- UPS tomorrow",
		"Powered by ollama/gemma3:1b • 9:30AM",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !o.Visible() || !o.Pending() {
		t.Errorf("Visible() = %v, Pending() = %v, want both true", o.Visible(), o.Pending())
	}
	o.Dismiss()
}

func TestDisplay_Loading(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, 10*time.Millisecond)
	o.Begin("c1")
	o.Display("c1", "Analyzing 4 emails with AI...", 4, true)

	out := buf.String()
	if !strings.Contains(out, "🤖 Analyzing Emails...") || !strings.Contains(out, "Analyzing 4 emails with AI...") {
		t.Errorf("unexpected loading panel:\n%s", out)
	}
	if strings.Contains(out, "Powered by") {
		t.Error("loading panel should not have a footer")
	}
	if o.Pending() {
		t.Error("loading panel must not auto-dismiss")
	}
	time.Sleep(30 * time.Millisecond)
	if !o.Visible() {
		t.Error("loading panel dismissed")
	}
}

func TestDisplay_DiscardsStaleCycle(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, time.Hour)
	o.Begin("old")
	o.Begin("new")
	o.Display("old", "late summary", 1, false)

	if buf.Len() != 0 {
		t.Errorf("stale display rendered:\n%s", buf.String())
	}
	if o.Visible() {
		t.Error("stale display became visible")
	}
}

func TestSupersede_DropsLateDisplay(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, time.Hour)
	o.Begin("c1")
	o.Display("c1", "Analyzing 2 emails with AI...", 2, true)

	o.Supersede()
	buf.Reset()
	o.Display("c1", "old summary", 2, false)

	if o.Visible() || o.Pending() {
		t.Errorf("Visible() = %v, Pending() = %v after late display", o.Visible(), o.Pending())
	}
	if buf.Len() != 0 {
		t.Errorf("late display rendered:\n%s", buf.String())
	}

	o.Begin("c2")
	o.Display("c2", "new summary", 1, false)
	if !o.Visible() || !strings.Contains(buf.String(), "new summary") {
		t.Error("next cycle not displayed")
	}
	o.Dismiss()
}

func TestAutoDismiss(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, 20*time.Millisecond)
	o.Begin("c1")
	o.Display("c1", "done", 1, false)

	deadline := time.Now().Add(2 * time.Second)
	for o.Visible() {
		if time.Now().After(deadline) {
			t.Fatal("panel never dismissed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if o.Pending() {
		t.Error("timer still armed after dismissal")
	}
}

func TestHoverHoldsPanel(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, 20*time.Millisecond)
	o.Begin("c1")
	o.Display("c1", "done", 1, false)
	o.Hover()

	if o.Pending() {
		t.Error("hover should stop the timer")
	}
	time.Sleep(50 * time.Millisecond)
	if !o.Visible() {
		t.Fatal("panel dismissed while hovered")
	}

	o.Leave()
	if !o.Pending() {
		t.Error("leave should restart the timer")
	}
	deadline := time.Now().Add(2 * time.Second)
	for o.Visible() {
		if time.Now().After(deadline) {
			t.Fatal("panel never dismissed after leave")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReplaceKeepsSingleTimer(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, 100*time.Millisecond)
	o.Begin("c1")
	o.Display("c1", "first", 1, false)
	time.Sleep(60 * time.Millisecond)
	o.Display("c1", "second", 1, false)
	time.Sleep(60 * time.Millisecond)

	// The first timer would have fired by now if it had not been replaced.
	if !o.Visible() {
		t.Error("replaced panel dismissed by the earlier timer")
	}
	o.Dismiss()
}

func TestToggleAndClose(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, time.Hour)
	o.Begin("c1")
	o.Display("c1", "body line", 2, false)
	buf.Reset()

	o.Toggle()
	if out := buf.String(); strings.Contains(out, "body line") || !strings.Contains(out, "[+]") {
		t.Errorf("collapsed panel:\n%s", out)
	}
	buf.Reset()
	o.Toggle()
	if !strings.Contains(buf.String(), "body line") {
		t.Errorf("expanded panel:\n%s", buf.String())
	}

	o.Close()
	if o.Visible() || o.Pending() {
		t.Error("Close() left panel or timer behind")
	}
	buf.Reset()
	o.Toggle()
	if buf.Len() != 0 {
		t.Error("Toggle() after Close() rendered")
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	o := newTestOverlay(&buf, time.Hour)
	o.Begin("c1")
	o.DisplayError("c1", "Having trouble accessing your emails.")

	out := buf.String()
	if !strings.Contains(out, "Having trouble accessing your emails.") {
		t.Errorf("missing message:\n%s", out)
	}
	if !strings.Contains(out, "🤖 Gmail Summary") || strings.Contains(out, "emails)") {
		t.Errorf("unexpected header:\n%s", out)
	}
	o.Dismiss()
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"📦 DELIVERIES", true},
		{"✈️ Flights", true},
		{"# Overview", true},
		{"Email Summary", true},
		{"upcoming events", true},
		{"• 📦 Deliveries: 2 mentioned", false},
		{"- UPS tomorrow", false},
		{"Your package ships soon.", false},
	}
	for _, tt := range tests {
		if got := IsHeading(tt.line); got != tt.want {
			t.Errorf("IsHeading(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestFormatSummary(t *testing.T) {
	s := DefaultStyles(lipgloss.NewRenderer(&bytes.Buffer{}), DefaultWidth)
	got := FormatSummary(s, "📊 Upcoming Events\n\n• one\nplain")
	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), got)
	}
	if lines[1] != "" {
		t.Errorf("blank line not preserved: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "  • one") {
		t.Errorf("bullet not indented: %q", lines[2])
	}
	if lines[3] != "plain" {
		t.Errorf("paragraph = %q", lines[3])
	}
}
