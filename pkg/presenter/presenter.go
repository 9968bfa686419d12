// Package presenter renders summaries as a boxed overlay on a terminal.
//
// An Overlay holds at most one visible panel. A new display replaces the
// previous one, finished panels dismiss themselves after a delay, and hovering
// keeps a panel open until the pointer leaves.
package presenter

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultDismissAfter = 20 * time.Second
	DefaultWidth        = 72

	headerLoading  = "🤖 Analyzing Emails..."
	headerSummary  = "🤖 Gmail Summary"
	loadingDefault = "Scanning your emails for important events..."
)

// Overlay is safe for concurrent use.
type Overlay struct {
	out          io.Writer
	styles       Styles
	provider     string
	dismissAfter time.Duration
	now          func() time.Time
	logger       *slog.Logger

	mu        sync.Mutex
	cycle     string
	visible   bool
	loading   bool
	collapsed bool
	hovered   bool
	panel     panel
	timer     *time.Timer
	gen       uint64
}

type panel struct {
	text  string
	count int
	isErr bool
}

type Option func(*Overlay)

// WithProvider sets the name shown in the footer.
func WithProvider(name string) Option {
	return func(o *Overlay) { o.provider = name }
}

func WithDismissAfter(d time.Duration) Option {
	return func(o *Overlay) { o.dismissAfter = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Overlay) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Overlay) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithWidth(w int) Option {
	return func(o *Overlay) {
		o.styles = DefaultStyles(lipgloss.NewRenderer(o.out), w)
	}
}

func New(out io.Writer, opts ...Option) *Overlay {
	o := &Overlay{
		out:          out,
		styles:       DefaultStyles(lipgloss.NewRenderer(out), DefaultWidth),
		provider:     "rule-based summarizer",
		dismissAfter: DefaultDismissAfter,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Begin makes cycle the current one. Displays for any other cycle are dropped.
func (o *Overlay) Begin(cycle string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycle = cycle
}

// Display shows text for cycle. Loading panels stay until replaced.
func (o *Overlay) Display(cycle, text string, count int, loading bool) {
	o.show(cycle, panel{text: text, count: count}, loading)
}

// DisplayError shows msg for cycle in the error style.
func (o *Overlay) DisplayError(cycle, msg string) {
	o.show(cycle, panel{text: msg, isErr: true}, false)
}

func (o *Overlay) show(cycle string, p panel, loading bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cycle != o.cycle {
		o.logger.Debug("discarding display for superseded cycle", "cycle_id", cycle, "current", o.cycle)
		return
	}

	o.stopTimerLocked()
	o.panel = p
	o.loading = loading
	o.visible = true
	o.collapsed = false
	o.hovered = false
	o.renderLocked()
	if !loading {
		o.scheduleLocked()
	}
}

// Dismiss removes the panel, if any.
func (o *Overlay) Dismiss() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dismissLocked()
}

// Supersede dismisses the panel and forgets the current cycle. Displays for
// the old cycle are dropped until the next Begin.
func (o *Overlay) Supersede() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dismissLocked()
	o.cycle = ""
}

// Close is the user closing the panel.
func (o *Overlay) Close() {
	o.Dismiss()
}

// Toggle collapses or expands the panel body.
func (o *Overlay) Toggle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.visible {
		return
	}
	o.collapsed = !o.collapsed
	o.renderLocked()
}

// Hover stops the auto-dismiss timer.
func (o *Overlay) Hover() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.visible {
		return
	}
	o.hovered = true
	o.stopTimerLocked()
}

// Leave restarts the auto-dismiss timer.
func (o *Overlay) Leave() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.visible || !o.hovered {
		return
	}
	o.hovered = false
	if !o.loading {
		o.scheduleLocked()
	}
}

// Visible reports whether a panel is showing.
func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Pending reports whether an auto-dismiss timer is armed.
func (o *Overlay) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.timer != nil
}

func (o *Overlay) dismissLocked() {
	o.stopTimerLocked()
	if o.visible {
		o.logger.Debug("overlay dismissed", "cycle_id", o.cycle)
	}
	o.visible = false
	o.hovered = false
	o.collapsed = false
}

func (o *Overlay) scheduleLocked() {
	if o.dismissAfter <= 0 {
		return
	}
	o.gen++
	gen := o.gen
	o.timer = time.AfterFunc(o.dismissAfter, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if gen != o.gen {
			return
		}
		o.timer = nil
		o.dismissLocked()
	})
}

func (o *Overlay) stopTimerLocked() {
	o.gen++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

func (o *Overlay) renderLocked() {
	fmt.Fprintln(o.out, o.renderPanel())
}

func (o *Overlay) renderPanel() string {
	s := o.styles
	var b strings.Builder

	header := headerSummary
	switch {
	case o.loading:
		header = headerLoading
	case o.panel.count > 0:
		header = fmt.Sprintf("%s (%d emails)", headerSummary, o.panel.count)
	}
	b.WriteString(s.Header.Render(header))

	if o.collapsed {
		return s.Frame.Render(b.String() + " [+]")
	}
	b.WriteString("\n\n")

	switch {
	case o.loading:
		text := o.panel.text
		if strings.TrimSpace(text) == "" {
			text = loadingDefault
		}
		b.WriteString(s.Loading.Render(text))
	case o.panel.isErr:
		b.WriteString(s.Error.Render(o.panel.text))
	default:
		b.WriteString(FormatSummary(s, o.panel.text))
		b.WriteString("\n\n")
		b.WriteString(s.Footer.Render(fmt.Sprintf("Powered by %s • %s", o.provider, o.now().Format(time.Kitchen))))
	}
	return s.Frame.Render(b.String())
}

// FormatSummary styles each line of text: headings bold, bullets indented,
// everything else plain.
func FormatSummary(s Styles, text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			out = append(out, "")
		case IsHeading(line):
			out = append(out, s.Heading.Render(line))
		case IsBullet(line):
			out = append(out, s.Bullet.Render(line))
		default:
			out = append(out, s.Body.Render(line))
		}
	}
	return strings.Join(out, "\n")
}

// IsHeading reports lines that open with '#' or a symbol glyph, or that name
// a summary or events section.
func IsHeading(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	if r == '#' || unicode.Is(unicode.So, r) {
		return true
	}
	upper := strings.ToUpper(line)
	return strings.Contains(upper, "SUMMARY") || strings.Contains(upper, "EVENTS")
}

func IsBullet(line string) bool {
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•")
}
