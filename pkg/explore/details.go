package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/praetorian-inc/wildscan/pkg/types"
)

// detailsPane shows the selected finding and one of its matches.
type detailsPane struct {
	finding     *findingRow
	matchCursor int
	width       int
	height      int
	offset      int
	focused     bool
}

func newDetailsPane() detailsPane {
	return detailsPane{}
}

func (dp *detailsPane) setFinding(f *findingRow) {
	dp.finding = f
	dp.matchCursor = 0
	dp.offset = 0
}

func (dp detailsPane) selectedMatch() *matchRow {
	if dp.finding == nil || dp.matchCursor < 0 || dp.matchCursor >= len(dp.finding.Matches) {
		return nil
	}
	return dp.finding.Matches[dp.matchCursor]
}

func (dp detailsPane) Update(msg tea.Msg) (detailsPane, tea.Cmd) {
	if !dp.focused {
		return dp, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return dp, nil
	}

	switch {
	case key.Matches(keyMsg, defaultKeys.Up):
		dp.offset = max(0, dp.offset-1)
	case key.Matches(keyMsg, defaultKeys.Down):
		dp.offset++
	case key.Matches(keyMsg, defaultKeys.Left):
		if dp.matchCursor > 0 {
			dp.matchCursor--
			dp.offset = 0
		}
	case key.Matches(keyMsg, defaultKeys.Right):
		if dp.finding != nil && dp.matchCursor < len(dp.finding.Matches)-1 {
			dp.matchCursor++
			dp.offset = 0
		}
	case key.Matches(keyMsg, defaultKeys.Home):
		dp.offset = 0
	case key.Matches(keyMsg, defaultKeys.PageDown):
		dp.offset += dp.visibleRows()
	case key.Matches(keyMsg, defaultKeys.PageUp):
		dp.offset = max(0, dp.offset-dp.visibleRows())
	}

	return dp, nil
}

func field(label, value string) string {
	return fmt.Sprintf("  %s %s", fieldLabelStyle.Render(label), value)
}

func (dp detailsPane) View() string {
	if dp.width <= 0 || dp.height <= 0 {
		return ""
	}

	contentWidth := dp.width - 4
	lines := dp.contentLines(contentWidth)

	offset := min(dp.offset, max(0, len(lines)-1))
	lines = lines[offset:]
	if len(lines) > dp.visibleRows() {
		lines = lines[:dp.visibleRows()]
	}
	for i, line := range lines {
		lines[i] = padRight(truncateString(line, contentWidth), contentWidth)
	}

	return renderPane(" Details ", lines, dp.width, dp.height, dp.visibleRows(), dp.focused)
}

func (dp detailsPane) contentLines(width int) []string {
	f := dp.finding
	if f == nil {
		return []string{"  No finding selected"}
	}

	lines := []string{
		field("Pattern:", fieldValueStyle.Render(fmt.Sprintf("%s (%s)", f.PatternName, f.PatternID))),
	}
	if f.Pattern != "" {
		lines = append(lines, field("Wildcard:", fieldValueStyle.Render(f.Pattern)))
	}
	if len(f.Categories) > 0 {
		lines = append(lines, field("Categories:", fieldValueStyle.Render(strings.Join(f.Categories, ", "))))
	}
	lines = append(lines, field("Text:", snippetMatchStyle.Render(printable(f.Text))))
	if f.AnnotationStatus != "" {
		lines = append(lines, field("Review:", renderAnnotationStatus(f.AnnotationStatus)))
	}
	if f.Comment != "" {
		lines = append(lines, field("Comment:", fieldValueStyle.Render(f.Comment)))
	}
	lines = append(lines, "")

	m := dp.selectedMatch()
	if m == nil {
		return append(lines, "  No matches")
	}

	lines = append(lines,
		"  "+headerRowStyle.Render(fmt.Sprintf("Match %d/%d (h/l to navigate)", dp.matchCursor+1, len(f.Matches))),
		"  "+strings.Repeat("─", max(0, min(40, width-4))),
	)
	return append(lines, renderMatchDetails(m, width)...)
}

func renderProvenance(prov types.Provenance) []string {
	switch p := prov.(type) {
	case types.FileProvenance:
		return []string{field("File:", fieldValueStyle.Render(p.FilePath))}
	case types.ArchiveProvenance:
		return []string{
			field("Archive:", fieldValueStyle.Render(p.ArchivePath)),
			field("Member:", fieldValueStyle.Render(p.MemberPath)),
		}
	case types.StreamProvenance:
		return []string{field("Stream:", fieldValueStyle.Render(p.Name))}
	case types.GitProvenance:
		lines := []string{
			field("Repo:", fieldValueStyle.Render(p.RepoPath)),
			field("Path:", fieldValueStyle.Render(p.BlobPath)),
		}
		if c := p.Commit; c != nil {
			lines = append(lines, field("Commit:", fieldValueStyle.Render(c.CommitID)))
			if c.AuthorName != "" {
				lines = append(lines, field("Author:", fmt.Sprintf("%s <%s>", fieldValueStyle.Render(c.AuthorName), c.AuthorEmail)))
			}
			if !c.AuthorTimestamp.IsZero() {
				lines = append(lines, field("Date:", fieldValueStyle.Render(c.AuthorTimestamp.Format("2006-01-02 15:04:05 -0700"))))
			}
		}
		return lines
	case types.ExtendedProvenance:
		var lines []string
		for k, v := range p.Payload {
			lines = append(lines, field(k+":", fieldValueStyle.Render(fmt.Sprint(v))))
		}
		return lines
	}
	return nil
}

func renderMatchDetails(m *matchRow, maxWidth int) []string {
	var lines []string
	for _, prov := range m.Provenance {
		lines = append(lines, renderProvenance(prov)...)
	}

	lines = append(lines, field("Blob:", fieldValueStyle.Render(m.BlobID.Hex()[:12]+"...")))

	loc := m.Location
	lines = append(lines, field("Location:", fmt.Sprintf("%d:%d - %d:%d (bytes %d-%d)",
		loc.Source.Start.Line, loc.Source.Start.Column,
		loc.Source.End.Line, loc.Source.End.Column,
		loc.Offset.Start, loc.Offset.End)))

	if m.AnnotationStatus != "" {
		lines = append(lines, field("Review:", renderAnnotationStatus(m.AnnotationStatus)))
	}
	if m.Comment != "" {
		lines = append(lines, field("Comment:", fieldValueStyle.Render(m.Comment)))
	}

	lines = append(lines, "", "  "+fieldLabelStyle.Render("Snippet:"))

	width := maxWidth - 6
	before := strings.TrimRight(string(m.Snippet.Before), "\n\r")
	after := strings.TrimLeft(string(m.Snippet.After), "\n\r")

	for _, line := range strings.Split(before, "\n") {
		if line != "" {
			lines = append(lines, "    "+snippetContextStyle.Render(truncateString(line, width)))
		}
	}
	for _, line := range strings.Split(string(m.Snippet.Matching), "\n") {
		lines = append(lines, "    "+snippetMatchStyle.Render(truncateString(line, width)))
	}
	for _, line := range strings.Split(after, "\n") {
		if line != "" {
			lines = append(lines, "    "+snippetContextStyle.Render(truncateString(line, width)))
		}
	}

	return lines
}

func (dp detailsPane) visibleRows() int {
	return max(1, dp.height-4)
}

func (dp *detailsPane) setSize(w, h int) {
	dp.width = w
	dp.height = h
}
