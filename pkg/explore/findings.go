package explore

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type sortField int

const (
	sortByPattern sortField = iota
	sortByText
	sortByMatches
	sortByPaths
	sortByReview
	sortFieldCount
)

var sortFieldNames = [sortFieldCount]string{
	"Pattern", "Text", "Matches", "Paths", "Review",
}

var sortCompare = [sortFieldCount]func(a, b *findingRow) int{
	sortByPattern: func(a, b *findingRow) int { return cmp.Compare(a.PatternName, b.PatternName) },
	sortByText:    func(a, b *findingRow) int { return bytes.Compare(a.Text, b.Text) },
	sortByMatches: func(a, b *findingRow) int { return cmp.Compare(a.MatchCount, b.MatchCount) },
	sortByPaths:   func(a, b *findingRow) int { return cmp.Compare(a.PathCount, b.PathCount) },
	sortByReview:  func(a, b *findingRow) int { return cmp.Compare(a.AnnotationStatus, b.AnnotationStatus) },
}

// findingsPane is the findings table.
type findingsPane struct {
	rows    []*findingRow // after filtering
	allRows []*findingRow
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	sortBy  sortField
	sortAsc bool
}

func newFindingsPane(rows []*findingRow) findingsPane {
	fp := findingsPane{
		allRows: rows,
		rows:    rows,
		sortAsc: true,
	}
	fp.sort()
	return fp
}

func (fp *findingsPane) setFilteredRows(rows []*findingRow) {
	fp.rows = rows
	fp.sort()
	if fp.cursor >= len(fp.rows) {
		fp.cursor = max(0, len(fp.rows)-1)
	}
	fp.ensureVisible()
}

func (fp findingsPane) selectedFinding() *findingRow {
	if fp.cursor < 0 || fp.cursor >= len(fp.rows) {
		return nil
	}
	return fp.rows[fp.cursor]
}

func (fp findingsPane) Update(msg tea.Msg) (findingsPane, tea.Cmd) {
	if !fp.focused {
		return fp, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return fp, nil
	}

	last := max(0, len(fp.rows)-1)
	switch {
	case key.Matches(keyMsg, defaultKeys.Up):
		fp.cursor = max(0, fp.cursor-1)
	case key.Matches(keyMsg, defaultKeys.Down):
		fp.cursor = min(fp.cursor+1, last)
	case key.Matches(keyMsg, defaultKeys.Home):
		fp.cursor = 0
	case key.Matches(keyMsg, defaultKeys.End):
		fp.cursor = last
	case key.Matches(keyMsg, defaultKeys.PageDown):
		fp.cursor = min(fp.cursor+fp.visibleRows(), last)
	case key.Matches(keyMsg, defaultKeys.PageUp):
		fp.cursor = max(fp.cursor-fp.visibleRows(), 0)
	case key.Matches(keyMsg, defaultKeys.SortNext):
		fp.sortBy = (fp.sortBy + 1) % sortFieldCount
		fp.sort()
	case key.Matches(keyMsg, defaultKeys.SortReverse):
		fp.sortAsc = !fp.sortAsc
		fp.sort()
	}
	fp.ensureVisible()

	return fp, nil
}

// sort orders rows by the current field, breaking ties by finding ID so
// the order is stable across reloads.
func (fp *findingsPane) sort() {
	compare := sortCompare[fp.sortBy]
	slices.SortStableFunc(fp.rows, func(a, b *findingRow) int {
		c := compare(a, b)
		if !fp.sortAsc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.FindingID, b.FindingID)
		}
		return c
	})
}

func (fp findingsPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}

	contentWidth := fp.width - 4
	colMatches, colPaths, colReview := 9, 7, 8
	colText := min(40, contentWidth/3)
	colPattern := max(10, contentWidth-colText-colMatches-colPaths-colReview-5)

	indicator := func(f sortField) string {
		switch {
		case fp.sortBy != f:
			return ""
		case fp.sortAsc:
			return " ^"
		default:
			return " v"
		}
	}

	header := fmt.Sprintf(" %-*s %-*s %*s %*s %-*s",
		colPattern, "Pattern"+indicator(sortByPattern),
		colText, "Text"+indicator(sortByText),
		colMatches, "Matches"+indicator(sortByMatches),
		colPaths, "Paths"+indicator(sortByPaths),
		colReview, "Review"+indicator(sortByReview),
	)

	lines := []string{
		headerRowStyle.Width(contentWidth).Render(truncateString(header, contentWidth)),
		strings.Repeat("─", max(0, contentWidth)),
	}

	visibleEnd := min(fp.offset+fp.visibleRows(), len(fp.rows))
	for i := fp.offset; i < visibleEnd; i++ {
		row := fp.rows[i]

		line := fmt.Sprintf(" %-*s %-*s %*d %*d %-*s",
			colPattern, truncateString(row.PatternName, colPattern),
			colText, truncateString(printable(row.Text), colText),
			colMatches, row.MatchCount,
			colPaths, row.PathCount,
			colReview, renderAnnotationStatus(row.AnnotationStatus),
		)
		if i == fp.cursor && fp.focused {
			line = selectedRowStyle.Width(contentWidth).Render(stripAnsi(line))
		}
		lines = append(lines, padRight(line, contentWidth))
	}

	title := fmt.Sprintf(" Findings (%d/%d) [sort: %s] ", len(fp.rows), len(fp.allRows), sortFieldNames[fp.sortBy])
	return renderPane(title, lines, fp.width, fp.height, fp.visibleRows()+2, fp.focused)
}

func (fp findingsPane) visibleRows() int {
	return max(1, fp.height-6) // title, borders, header, separator
}

func (fp *findingsPane) ensureVisible() {
	if fp.cursor < fp.offset {
		fp.offset = fp.cursor
	}
	if fp.cursor >= fp.offset+fp.visibleRows() {
		fp.offset = fp.cursor - fp.visibleRows() + 1
	}
}

func (fp *findingsPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
}
