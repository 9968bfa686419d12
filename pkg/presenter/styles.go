package presenter

import "github.com/charmbracelet/lipgloss"

var (
	ColorBlue  = lipgloss.Color("#1a73e8")
	ColorRed   = lipgloss.Color("#d93025")
	ColorDim   = lipgloss.Color("242")
	ColorWhite = lipgloss.Color("255")
)

// Styles holds the overlay's Lip Gloss styles.
type Styles struct {
	Frame   lipgloss.Style
	Header  lipgloss.Style
	Heading lipgloss.Style
	Bullet  lipgloss.Style
	Body    lipgloss.Style
	Loading lipgloss.Style
	Error   lipgloss.Style
	Footer  lipgloss.Style
}

// DefaultStyles builds styles bound to r so color output follows the writer.
func DefaultStyles(r *lipgloss.Renderer, width int) Styles {
	return Styles{
		Frame: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBlue).
			Padding(0, 1).
			Width(width),
		Header: r.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorBlue).
			Padding(0, 1),
		Heading: r.NewStyle().Bold(true).Foreground(ColorBlue),
		Bullet:  r.NewStyle().PaddingLeft(2),
		Body:    r.NewStyle(),
		Loading: r.NewStyle().Italic(true).Foreground(ColorDim),
		Error:   r.NewStyle().Foreground(ColorRed),
		Footer:  r.NewStyle().Faint(true),
	}
}
