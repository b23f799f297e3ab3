package explore

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary   = lipgloss.Color("#e63948")
	colorSecondary = lipgloss.Color("10")
	colorMatch     = lipgloss.Color("#D4AF37")
	colorError     = lipgloss.Color("9")
	colorMuted     = lipgloss.Color("8")
	colorAccent    = lipgloss.Color("#11C3DB")
	colorHighlight = lipgloss.Color("15")
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorMuted)
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Background(colorPrimary).
	Padding(0, 1)

var (
	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("17")).
				Foreground(colorHighlight)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)
)

var (
	snippetMatchStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorMatch)

	snippetContextStyle = lipgloss.NewStyle().
				Foreground(colorMuted)
)

var statusBarStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

var (
	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

var (
	facetLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	facetSelectedStyle = lipgloss.NewStyle().Foreground(colorSecondary)
	facetCountStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

var (
	acceptStyle = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	rejectStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)

var (
	fieldLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	fieldValueStyle = lipgloss.NewStyle().Foreground(colorHighlight)
)

var modalStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

func newHelp() help.Model {
	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = helpKeyStyle
	h.Styles.ShortDesc = helpDescStyle
	h.Styles.FullKey = helpKeyStyle
	h.Styles.FullDesc = helpDescStyle
	return h
}

func renderAnnotationStatus(status string) string {
	switch status {
	case "accept":
		return acceptStyle.Render("accept")
	case "reject":
		return rejectStyle.Render("reject")
	default:
		return ""
	}
}
