package explore

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/praetorian-inc/wildscan/pkg/blobstore"
	"github.com/praetorian-inc/wildscan/pkg/store"
	"github.com/praetorian-inc/wildscan/pkg/types"
)

type focusedPane int

const (
	paneFilters focusedPane = iota
	paneFindings
	paneDetails
)

type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlaySource
	overlayComment
)

// pagerFinishedMsg is sent when an external pager exits.
type pagerFinishedMsg struct{ err error }

// Model is the root Bubble Tea model of the findings browser.
type Model struct {
	data     *exploreData
	filters  filterPane
	findings findingsPane
	details  detailsPane

	focus         focusedPane
	activeOverlay overlay
	showFilters   bool

	help       help.Model
	helpOffset int

	sourceContent string
	sourceOffset  int

	commentInput  string
	commentTarget string // store.AnnotationFinding or store.AnnotationMatch
	commentID     string

	width  int
	height int
	err    error
}

// New loads the scan database at datastorePath and returns a ready model.
// blobDir, when not empty, is a blob directory written during the scan and
// is used to show full source for matches.
func New(datastorePath, blobDir string) (Model, error) {
	data, err := loadData(datastorePath)
	if err != nil {
		return Model{}, err
	}
	if blobDir != "" {
		if data.blobs, err = blobstore.Open(blobDir); err != nil {
			data.close()
			return Model{}, err
		}
	}
	return newModel(data), nil
}

func newModel(data *exploreData) Model {
	m := Model{
		data:        data,
		filters:     newFilterPane(buildFacets(data.findings)),
		findings:    newFindingsPane(data.findings),
		details:     newDetailsPane(),
		help:        newHelp(),
		showFilters: true,
	}
	m.setFocus(paneFindings)

	if f := m.findings.selectedFinding(); f != nil {
		m.details.setFinding(f)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("wildscan explore")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pagerFinishedMsg:
		m.err = msg.err
		return m, nil

	case tea.MouseMsg:
		if m.activeOverlay != overlayNone {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.handleMouseClick(msg.X, msg.Y)
		return m, nil

	case tea.KeyMsg:
		if m.activeOverlay != overlayNone {
			return m.updateOverlay(msg)
		}

		switch {
		case key.Matches(msg, defaultKeys.ForceQuit), key.Matches(msg, defaultKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, defaultKeys.ToggleHelp):
			m.activeOverlay = overlayHelp
			m.helpOffset = 0
			return m, nil
		case key.Matches(msg, defaultKeys.ToggleFilters):
			m.showFilters = !m.showFilters
			if !m.showFilters && m.focus == paneFilters {
				m.setFocus(paneFindings)
			}
			return m, nil
		case key.Matches(msg, defaultKeys.FocusFilters):
			m.setFocus(paneFilters)
			return m, nil
		case key.Matches(msg, defaultKeys.FocusFindings):
			m.setFocus(paneFindings)
			return m, nil
		case key.Matches(msg, defaultKeys.FocusDetails):
			m.setFocus(paneDetails)
			return m, nil
		}

		if m.focus == paneFindings || m.focus == paneDetails {
			switch {
			case key.Matches(msg, defaultKeys.Accept):
				m.toggleAnnotation("accept")
				return m, nil
			case key.Matches(msg, defaultKeys.Reject):
				m.toggleAnnotation("reject")
				return m, nil
			case key.Matches(msg, defaultKeys.AcceptNext):
				m.toggleAnnotation("accept")
				m.moveNext()
				return m, nil
			case key.Matches(msg, defaultKeys.RejectNext):
				m.toggleAnnotation("reject")
				m.moveNext()
				return m, nil
			case key.Matches(msg, defaultKeys.Comment):
				m.startComment()
				return m, nil
			case key.Matches(msg, defaultKeys.OpenSource):
				return m, m.openSource()
			}
		}

		var cmd tea.Cmd
		switch m.focus {
		case paneFilters:
			m.filters, cmd = m.filters.Update(msg)
			m.applyFilters()
		case paneFindings:
			prev := m.findings.cursor
			m.findings, cmd = m.findings.Update(msg)
			if m.findings.cursor != prev {
				m.details.setFinding(m.findings.selectedFinding())
			}
		case paneDetails:
			m.details, cmd = m.details.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.activeOverlay {
	case overlayHelp:
		if key.Matches(msg, defaultKeys.ToggleHelp) {
			m.activeOverlay = overlayNone
			break
		}
		m.helpOffset = m.scrollOverlay(msg, m.helpOffset)
	case overlaySource:
		if key.Matches(msg, defaultKeys.OpenSource) {
			m.activeOverlay = overlayNone
			break
		}
		m.sourceOffset = m.scrollOverlay(msg, m.sourceOffset)
	case overlayComment:
		switch msg.String() {
		case "enter":
			m.saveComment()
			m.activeOverlay = overlayNone
		case "esc", "ctrl+c":
			m.activeOverlay = overlayNone
		case "backspace":
			if len(m.commentInput) > 0 {
				m.commentInput = m.commentInput[:len(m.commentInput)-1]
			}
		default:
			if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
				m.commentInput += string(msg.Runes)
			}
		}
	}
	return *m, nil
}

// scrollOverlay applies a navigation key to a scrolling overlay and returns
// the new offset. Quit keys close the overlay.
func (m *Model) scrollOverlay(msg tea.KeyMsg, offset int) int {
	switch {
	case key.Matches(msg, defaultKeys.Quit), key.Matches(msg, defaultKeys.ForceQuit):
		m.activeOverlay = overlayNone
	case key.Matches(msg, defaultKeys.Down):
		offset++
	case key.Matches(msg, defaultKeys.Up):
		offset = max(0, offset-1)
	case key.Matches(msg, defaultKeys.PageDown):
		offset += m.height / 2
	case key.Matches(msg, defaultKeys.PageUp):
		offset = max(0, offset-m.height/2)
	case key.Matches(msg, defaultKeys.Home):
		offset = 0
	}
	return offset
}

// layout holds pane geometry for the current window size.
type layout struct {
	filtersWidth   int // zero when the filter pane is hidden
	dataWidth      int
	contentHeight  int
	findingsHeight int
}

func (m *Model) layout() layout {
	l := layout{contentHeight: m.height - 2}
	if m.showFilters {
		l.filtersWidth = min(m.width*30/100, 50)
	}
	l.dataWidth = m.width - l.filtersWidth
	l.findingsHeight = l.contentHeight * 40 / 100
	return l
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.activeOverlay != overlayNone {
		return m.renderOverlay()
	}

	l := m.layout()
	m.findings.setSize(l.dataWidth, l.findingsHeight)
	m.details.setSize(l.dataWidth, l.contentHeight-l.findingsHeight)
	dataColumn := lipgloss.JoinVertical(lipgloss.Left, m.findings.View(), m.details.View())

	main := dataColumn
	if m.showFilters {
		m.filters.setSize(l.filtersWidth, l.contentHeight)
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.filters.View(), dataColumn)
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	left := fmt.Sprintf(" %d findings | %d shown", len(m.data.findings), len(m.findings.rows))
	if m.err != nil {
		left += " | " + rejectStyle.Render(m.err.Error())
	}
	left = statusBarStyle.Render(left)

	m.help.Width = max(0, m.width-lipgloss.Width(left)-1)
	right := m.help.ShortHelpView(defaultKeys.ShortHelp())

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderOverlay() string {
	width := m.width * 80 / 100
	height := m.height * 80 / 100

	var title, content string
	switch m.activeOverlay {
	case overlayHelp:
		title = " Help (q to close) "
		m.help.Width = width - 6
		m.helpOffset, content = scrollLines(m.help.FullHelpView(defaultKeys.FullHelp()), m.helpOffset, height-4)
	case overlaySource:
		title = " Source (q to close) "
		if m.sourceContent == "" {
			content = "  No source available"
		} else {
			m.sourceOffset, content = scrollLines(m.sourceContent, m.sourceOffset, height-4)
		}
	case overlayComment:
		title = " Comment (enter to save, esc to cancel) "
		width = min(60, m.width-4)
		height = 5
		content = fmt.Sprintf("\n  > %s_\n", m.commentInput)
	}

	box := modalStyle.
		Width(width - 4).
		Height(height - 2).
		Render(content)
	view := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), box)

	hPad := (m.width - lipgloss.Width(view)) / 2
	vPad := (m.height - lipgloss.Height(view)) / 2
	return strings.Repeat("\n", max(0, vPad)) +
		lipgloss.NewStyle().PaddingLeft(max(0, hPad)).Render(view)
}

// scrollLines returns at most height lines of text starting at offset,
// clamping offset to the last line.
func scrollLines(text string, offset, height int) (int, string) {
	lines := strings.Split(text, "\n")
	if offset >= len(lines) {
		offset = max(0, len(lines)-1)
	}
	end := min(offset+max(1, height), len(lines))
	return offset, strings.Join(lines[offset:end], "\n")
}

func (m *Model) setFocus(p focusedPane) {
	m.filters.focused = p == paneFilters
	m.findings.focused = p == paneFindings
	m.details.focused = p == paneDetails
	m.focus = p
}

func (m *Model) handleMouseClick(x, y int) {
	l := m.layout()
	if y >= l.contentHeight {
		return
	}

	switch {
	case x < l.filtersWidth:
		m.setFocus(paneFilters)
		// title + top border
		if idx := y - 2 + m.filters.offset; y >= 2 && idx < len(m.filters.items) {
			m.filters.cursor = idx
			m.filters.toggleCurrent()
			m.applyFilters()
		}
	case y < l.findingsHeight:
		m.setFocus(paneFindings)
		// title + top border + header + separator
		if idx := y - 4 + m.findings.offset; y >= 4 && idx < len(m.findings.rows) {
			m.findings.cursor = idx
			m.details.setFinding(m.findings.selectedFinding())
		}
	default:
		m.setFocus(paneDetails)
	}
}

func (m *Model) applyFilters() {
	if !m.filters.facets.hasActiveFilters() {
		m.findings.setFilteredRows(m.data.findings)
	} else {
		var filtered []*findingRow
		for _, f := range m.data.findings {
			if m.filters.facets.matchesFinding(f) {
				filtered = append(filtered, f)
			}
		}
		m.findings.setFilteredRows(filtered)
	}
	m.filters.facets.updateCounts(m.data.findings)
	m.details.setFinding(m.findings.selectedFinding())
}

// toggleAnnotation sets status on the focused finding or match, or clears
// it when it is already set.
func (m *Model) toggleAnnotation(status string) {
	switch m.focus {
	case paneFindings:
		f := m.findings.selectedFinding()
		if f == nil {
			return
		}
		if f.AnnotationStatus == status {
			status = ""
		}
		f.AnnotationStatus = status
		m.err = m.data.setFindingAnnotation(f.FindingID, status, f.Comment)
	case paneDetails:
		match := m.details.selectedMatch()
		if match == nil {
			return
		}
		if match.AnnotationStatus == status {
			status = ""
		}
		match.AnnotationStatus = status
		m.err = m.data.setMatchAnnotation(match.StructuralID, status, match.Comment)
	}
}

func (m *Model) moveNext() {
	switch m.focus {
	case paneFindings:
		if m.findings.cursor < len(m.findings.rows)-1 {
			m.findings.cursor++
			m.findings.ensureVisible()
			m.details.setFinding(m.findings.selectedFinding())
		}
	case paneDetails:
		if f := m.findings.selectedFinding(); f != nil && m.details.matchCursor < len(f.Matches)-1 {
			m.details.matchCursor++
		}
	}
}

func (m *Model) startComment() {
	switch m.focus {
	case paneFindings:
		f := m.findings.selectedFinding()
		if f == nil {
			return
		}
		m.commentTarget = store.AnnotationFinding
		m.commentID = f.FindingID
		m.commentInput = f.Comment
	case paneDetails:
		match := m.details.selectedMatch()
		if match == nil {
			return
		}
		m.commentTarget = store.AnnotationMatch
		m.commentID = match.StructuralID
		m.commentInput = match.Comment
	default:
		return
	}
	m.activeOverlay = overlayComment
}

func (m *Model) saveComment() {
	switch m.commentTarget {
	case store.AnnotationFinding:
		if f := m.findings.selectedFinding(); f != nil && f.FindingID == m.commentID {
			f.Comment = m.commentInput
			m.err = m.data.setFindingAnnotation(f.FindingID, f.AnnotationStatus, f.Comment)
		}
	case store.AnnotationMatch:
		if match := m.details.selectedMatch(); match != nil && match.StructuralID == m.commentID {
			match.Comment = m.commentInput
			m.err = m.data.setMatchAnnotation(match.StructuralID, match.AnnotationStatus, match.Comment)
		}
	}
}

// openSource pages the matched file when it still exists on disk. Otherwise
// the stored blob, or failing that the snippet, is shown in an overlay.
func (m *Model) openSource() tea.Cmd {
	match := m.details.selectedMatch()
	if match == nil {
		return nil
	}

	for _, prov := range match.Provenance {
		if fp, ok := prov.(types.FileProvenance); ok {
			if _, err := os.Stat(fp.FilePath); err == nil {
				return openInPager(fp.FilePath, match.Location.Source.Start.Line)
			}
		}
	}

	m.sourceOffset = 0
	m.activeOverlay = overlaySource

	if m.data.blobs != nil {
		if content, err := m.data.blobs.Get(match.BlobID); err == nil {
			m.sourceContent = string(content)
			m.sourceOffset = max(0, match.Location.Source.Start.Line-1)
			return nil
		}
	}

	var sb strings.Builder
	sb.Write(match.Snippet.Before)
	sb.Write(match.Snippet.Matching)
	sb.Write(match.Snippet.After)
	m.sourceContent = sb.String()
	return nil
}

func openInPager(filePath string, line int) tea.Cmd {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	var args []string
	if line > 0 && pager == "less" {
		args = append(args, fmt.Sprintf("+%d", line))
	}
	args = append(args, filePath)

	return tea.ExecProcess(exec.Command(pager, args...), func(err error) tea.Msg {
		return pagerFinishedMsg{err: err}
	})
}

// Close releases the underlying datastore.
func (m *Model) Close() error {
	if m.data != nil {
		return m.data.close()
	}
	return nil
}
