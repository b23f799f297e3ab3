package explore

import (
	"sort"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

type facetID int

const (
	facetPattern facetID = iota
	facetCategory
	facetSource
	facetReview
)

type facetDef struct {
	ID    facetID
	Label string
}

var facetDefs = []facetDef{
	{facetPattern, "Pattern"},
	{facetCategory, "Category"},
	{facetSource, "Source"},
	{facetReview, "Review"},
}

// facetValue is a single selectable value within a facet.
type facetValue struct {
	FacetID  facetID
	Value    string
	Count    int
	Selected bool
}

// facetState holds the complete filter state.
type facetState struct {
	Values map[facetID][]*facetValue
}

func newFacetState() *facetState {
	return &facetState{
		Values: make(map[facetID][]*facetValue),
	}
}

// facetKeys returns the values a finding contributes to a facet. Findings
// without a value fall under "-".
func facetKeys(id facetID, f *findingRow) []string {
	var keys []string
	switch id {
	case facetPattern:
		keys = []string{f.PatternName}
	case facetCategory:
		keys = f.Categories
	case facetSource:
		keys = f.Sources
	case facetReview:
		if f.AnnotationStatus != "" {
			keys = []string{f.AnnotationStatus}
		}
	}
	if len(keys) == 0 {
		return []string{"-"}
	}
	return keys
}

func buildFacets(findings []*findingRow) *facetState {
	fs := newFacetState()

	for _, def := range facetDefs {
		counts := make(map[string]int)
		for _, f := range findings {
			for _, k := range facetKeys(def.ID, f) {
				counts[k]++
			}
		}
		fs.Values[def.ID] = mapToFacetValues(def.ID, counts)
	}

	return fs
}

func mapToFacetValues(id facetID, counts map[string]int) []*facetValue {
	values := make([]*facetValue, 0, len(counts))
	for v, c := range counts {
		values = append(values, &facetValue{FacetID: id, Value: v, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		return values[i].Value < values[j].Value
	})
	return values
}

func (fs *facetState) selectedValues(id facetID) map[string]bool {
	selected := make(map[string]bool)
	for _, v := range fs.Values[id] {
		if v.Selected {
			selected[v.Value] = true
		}
	}
	return selected
}

func (fs *facetState) hasActiveFilters() bool {
	for _, values := range fs.Values {
		for _, v := range values {
			if v.Selected {
				return true
			}
		}
	}
	return false
}

func (fs *facetState) resetAll() {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Selected = false
		}
	}
}

// matchesFinding reports whether f passes every active facet. Values within
// a facet are ORed, facets are ANDed.
func (fs *facetState) matchesFinding(f *findingRow) bool {
	for _, def := range facetDefs {
		selected := fs.selectedValues(def.ID)
		if len(selected) == 0 {
			continue
		}

		found := false
		for _, k := range facetKeys(def.ID, f) {
			if selected[k] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// updateCounts recounts facet values over the findings that pass the
// current filters.
func (fs *facetState) updateCounts(findings []*findingRow) {
	for _, values := range fs.Values {
		for _, v := range values {
			v.Count = 0
		}
	}

	for _, f := range findings {
		if !fs.matchesFinding(f) {
			continue
		}
		for _, def := range facetDefs {
			keys := facetKeys(def.ID, f)
			for _, v := range fs.Values[def.ID] {
				for _, k := range keys {
					if v.Value == k {
						v.Count++
						break
					}
				}
			}
		}
	}
}

// findingRow is the denormalized view of a finding.
type findingRow struct {
	FindingID        string
	PatternID        string
	PatternName      string
	Pattern          string
	Categories       []string
	Sources          []string // provenance kinds, in first-seen order
	Text             []byte
	MatchCount       int
	PathCount        int
	AnnotationStatus string // "accept", "reject", or ""
	Comment          string
	Matches          []*matchRow
}

type matchRow struct {
	StructuralID     string
	BlobID           types.BlobID
	PatternName      string
	Location         types.Location
	Snippet          types.Snippet
	Provenance       []types.Provenance
	AnnotationStatus string
	Comment          string
}
