package explore

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// truncateString shortens s to maxLen display cells, ending in "...".
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	tail := "..."
	if maxLen <= len(tail) {
		tail = ""
	}
	return ansi.Truncate(s, maxLen, tail)
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// stripAnsi removes escape sequences so a line can be restyled.
func stripAnsi(s string) string {
	return ansi.Strip(s)
}

// printable replaces control bytes in matched text so it renders on a
// single line.
func printable(b []byte) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '.'
		}
		return r
	}, string(b))
}
