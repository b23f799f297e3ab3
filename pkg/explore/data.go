package explore

import (
	"fmt"
	"os"
	"strings"

	"github.com/praetorian-inc/wildscan/pkg/blobstore"
	"github.com/praetorian-inc/wildscan/pkg/pattern"
	"github.com/praetorian-inc/wildscan/pkg/store"
	"github.com/praetorian-inc/wildscan/pkg/types"
)

// exploreData holds everything the TUI shows.
type exploreData struct {
	store    store.Store
	blobs    *blobstore.Store // optional
	patterns map[string]*types.Pattern
	findings []*findingRow
}

// loadData opens a scan database and loads findings, matches, provenance
// and annotations. storePath is a SQLite file or a postgres:// DSN.
func loadData(storePath string) (*exploreData, error) {
	if storePath == ":memory:" {
		return nil, fmt.Errorf("cannot explore an in-memory datastore")
	}
	if !strings.HasPrefix(storePath, "postgres://") && !strings.HasPrefix(storePath, "postgresql://") {
		if _, err := os.Stat(storePath); err != nil {
			return nil, fmt.Errorf("datastore not found: %s", storePath)
		}
	}

	s, err := store.New(store.Config{Path: storePath})
	if err != nil {
		return nil, fmt.Errorf("opening datastore: %w", err)
	}

	data, err := newExploreData(s)
	if err != nil {
		s.Close()
		return nil, err
	}
	return data, nil
}

// newExploreData builds the view models from an open store. Pattern
// categories come from the builtin library; custom patterns have none.
func newExploreData(s store.Store) (*exploreData, error) {
	builtin, err := pattern.NewLoader().LoadBuiltinPatterns()
	if err != nil {
		return nil, fmt.Errorf("loading patterns: %w", err)
	}
	byID := make(map[string]*types.Pattern, len(builtin))
	for _, p := range builtin {
		byID[p.ID] = p
	}

	findings, err := s.GetFindings()
	if err != nil {
		return nil, fmt.Errorf("retrieving findings: %w", err)
	}

	rows := make([]*findingRow, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, buildFindingRow(f, byID, s))
	}

	return &exploreData{
		store:    s,
		patterns: byID,
		findings: rows,
	}, nil
}

func buildFindingRow(f *types.Finding, patterns map[string]*types.Pattern, s store.Store) *findingRow {
	row := &findingRow{
		FindingID:   f.ID,
		PatternID:   f.PatternID,
		PatternName: f.PatternID,
		Text:        f.Text,
		MatchCount:  len(f.Matches),
	}

	if p, ok := patterns[f.PatternID]; ok {
		row.PatternName = p.Name
		row.Pattern = p.Pattern
		row.Categories = p.Categories
	} else if len(f.Matches) > 0 && f.Matches[0].PatternName != "" {
		row.PatternName = f.Matches[0].PatternName
	}

	if s != nil {
		status, comment, err := s.GetAnnotation(store.AnnotationFinding, f.ID)
		if err == nil {
			row.AnnotationStatus = status
			row.Comment = comment
		}
	}

	paths := make(map[string]struct{})
	kinds := make(map[string]struct{})
	row.Matches = make([]*matchRow, 0, len(f.Matches))
	for _, m := range f.Matches {
		mr := buildMatchRow(m, s)
		for _, prov := range mr.Provenance {
			if prov.Path() != "" {
				paths[prov.Path()] = struct{}{}
			}
			if _, seen := kinds[prov.Kind()]; !seen {
				kinds[prov.Kind()] = struct{}{}
				row.Sources = append(row.Sources, prov.Kind())
			}
		}
		row.Matches = append(row.Matches, mr)
	}
	row.PathCount = len(paths)

	return row
}

func buildMatchRow(m *types.Match, s store.Store) *matchRow {
	mr := &matchRow{
		StructuralID: m.StructuralID,
		BlobID:       m.BlobID,
		PatternName:  m.PatternName,
		Location:     m.Location,
		Snippet:      m.Snippet,
	}

	if s != nil {
		provs, err := s.GetProvenance(m.BlobID)
		if err == nil {
			mr.Provenance = provs
		}

		status, comment, err := s.GetAnnotation(store.AnnotationMatch, m.StructuralID)
		if err == nil {
			mr.AnnotationStatus = status
			mr.Comment = comment
		}
	}

	return mr
}

func (d *exploreData) close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

func (d *exploreData) setFindingAnnotation(findingID, status, comment string) error {
	return d.store.SetAnnotation(store.AnnotationFinding, findingID, status, comment)
}

func (d *exploreData) setMatchAnnotation(matchID, status, comment string) error {
	return d.store.SetAnnotation(store.AnnotationMatch, matchID, status, comment)
}
