package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// filterPane is the facet tree on the left.
type filterPane struct {
	facets    *facetState
	collapsed map[facetID]bool
	cursor    int // index into items
	items     []filterItem
	width     int
	height    int
	offset    int
	focused   bool
}

type filterItemKind int

const (
	filterItemFacet filterItemKind = iota
	filterItemValue
)

type filterItem struct {
	Kind     filterItemKind
	Label    string
	FacetID  facetID
	ValueIdx int // index into facets.Values[FacetID]
}

func newFilterPane(facets *facetState) filterPane {
	fp := filterPane{
		facets:    facets,
		collapsed: make(map[facetID]bool),
	}
	fp.rebuildItems()
	return fp
}

// rebuildItems flattens the facet tree, skipping values of collapsed facets.
func (fp *filterPane) rebuildItems() {
	fp.items = fp.items[:0]
	for _, def := range facetDefs {
		values := fp.facets.Values[def.ID]
		if len(values) == 0 {
			continue
		}
		fp.items = append(fp.items, filterItem{Kind: filterItemFacet, Label: def.Label, FacetID: def.ID})
		if fp.collapsed[def.ID] {
			continue
		}
		for i, v := range values {
			fp.items = append(fp.items, filterItem{
				Kind:     filterItemValue,
				Label:    v.Value,
				FacetID:  def.ID,
				ValueIdx: i,
			})
		}
	}
}

func (fp filterPane) Update(msg tea.Msg) (filterPane, tea.Cmd) {
	if !fp.focused {
		return fp, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return fp, nil
	}

	switch {
	case key.Matches(keyMsg, defaultKeys.Up):
		fp.cursor = max(0, fp.cursor-1)
	case key.Matches(keyMsg, defaultKeys.Down):
		fp.cursor = min(fp.cursor+1, len(fp.items)-1)
	case key.Matches(keyMsg, defaultKeys.Home):
		fp.cursor = 0
	case key.Matches(keyMsg, defaultKeys.End):
		fp.cursor = len(fp.items) - 1
	case key.Matches(keyMsg, defaultKeys.PageDown):
		fp.cursor = min(fp.cursor+fp.visibleRows(), len(fp.items)-1)
	case key.Matches(keyMsg, defaultKeys.PageUp):
		fp.cursor = max(fp.cursor-fp.visibleRows(), 0)
	case key.Matches(keyMsg, defaultKeys.Left):
		fp.setCollapsed(true)
	case key.Matches(keyMsg, defaultKeys.Right):
		fp.setCollapsed(false)
	case key.Matches(keyMsg, defaultKeys.ToggleFilter):
		fp.toggleCurrent()
	case key.Matches(keyMsg, defaultKeys.ResetFilter):
		fp.facets.resetAll()
	}
	fp.cursor = max(0, fp.cursor)
	fp.ensureVisible()

	return fp, nil
}

// setCollapsed folds or unfolds the facet under the cursor. The cursor
// moves to the facet heading.
func (fp *filterPane) setCollapsed(collapsed bool) {
	if fp.cursor < 0 || fp.cursor >= len(fp.items) {
		return
	}
	id := fp.items[fp.cursor].FacetID
	fp.collapsed[id] = collapsed
	fp.rebuildItems()
	for i, it := range fp.items {
		if it.Kind == filterItemFacet && it.FacetID == id {
			fp.cursor = i
			break
		}
	}
}

func (fp *filterPane) toggleCurrent() {
	if fp.cursor < 0 || fp.cursor >= len(fp.items) {
		return
	}
	item := fp.items[fp.cursor]
	switch item.Kind {
	case filterItemFacet:
		fp.setCollapsed(!fp.collapsed[item.FacetID])
	case filterItemValue:
		values := fp.facets.Values[item.FacetID]
		if item.ValueIdx < len(values) {
			values[item.ValueIdx].Selected = !values[item.ValueIdx].Selected
		}
	}
}

func (fp filterPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}

	inner := fp.width - 2
	lines := make([]string, 0, fp.visibleRows())
	visibleEnd := min(fp.offset+fp.visibleRows(), len(fp.items))

	for i := fp.offset; i < visibleEnd; i++ {
		item := fp.items[i]

		var line string
		switch item.Kind {
		case filterItemFacet:
			arrow := "▾"
			if fp.collapsed[item.FacetID] {
				arrow = "▸"
			}
			line = facetLabelStyle.Render(fmt.Sprintf(" %s %s", arrow, item.Label))
		case filterItemValue:
			v := fp.facets.Values[item.FacetID][item.ValueIdx]
			label := truncateString(item.Label, fp.width-12)
			count := facetCountStyle.Render(fmt.Sprintf("(%d)", v.Count))
			if v.Selected {
				line = fmt.Sprintf("   %s %s %s", facetSelectedStyle.Render("+"), facetSelectedStyle.Render(label), count)
			} else {
				line = fmt.Sprintf("     %s %s", label, count)
			}
		}

		if i == fp.cursor && fp.focused {
			line = selectedRowStyle.Width(inner).Render(stripAnsi(line))
		}
		lines = append(lines, padRight(line, inner))
	}

	return renderPane(" Filters ", lines, fp.width, fp.height, fp.visibleRows(), fp.focused)
}

func (fp filterPane) visibleRows() int {
	return max(1, fp.height-4)
}

func (fp *filterPane) ensureVisible() {
	if fp.cursor < fp.offset {
		fp.offset = fp.cursor
	}
	if fp.cursor >= fp.offset+fp.visibleRows() {
		fp.offset = fp.cursor - fp.visibleRows() + 1
	}
}

func (fp *filterPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
}

// renderPane draws a titled bordered box, padding lines out to rows.
func renderPane(title string, lines []string, width, height, rows int, focused bool) string {
	inner := width - 2
	for len(lines) < rows {
		lines = append(lines, strings.Repeat(" ", max(0, inner)))
	}

	border := inactiveBorderStyle
	if focused {
		border = activeBorderStyle
	}
	content := border.
		Width(width - 2).
		Height(height - 3).
		Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), content)
}
