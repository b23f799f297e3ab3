// Package matcher runs compiled wildcard patterns over blobs and turns each
// occurrence into a types.Match with location, context and identity.
package matcher

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/praetorian-inc/wildscan/pkg/prefilter"
	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/praetorian-inc/wildscan/pkg/wildcard"
)

// Matcher scans content for pattern matches.
type Matcher interface {
	// Match scans content against all loaded patterns.
	Match(content []byte) ([]*types.Match, error)

	// MatchWithBlobID scans content whose BlobID is already known.
	MatchWithBlobID(content []byte, blobID types.BlobID) ([]*types.Match, error)

	Close() error
}

// Config for matcher initialization.
type Config struct {
	Patterns []*types.Pattern

	// ContextLines is the number of lines captured before and after each match.
	ContextLines int

	// Prefilter selects the keyword search engine.
	Prefilter prefilter.Engine

	// MaxMatchesPerBlob limits matches returned per blob (0 = unlimited).
	MaxMatchesPerBlob int

	Dedupe DedupeMode

	Logger *slog.Logger
}

// New creates a Matcher from cfg.
func New(cfg Config) (Matcher, error) {
	return NewWildcard(cfg)
}

// WildcardMatcher compiles every pattern once and streams each blob through
// a fresh wildcard.Matcher per candidate pattern. It is safe for concurrent use.
type WildcardMatcher struct {
	cfg       Config
	compiled  map[*types.Pattern]*wildcard.Pattern
	prefilter *prefilter.Prefilter
	logger    *slog.Logger
}

// NewWildcard builds a WildcardMatcher.
func NewWildcard(cfg Config) (*WildcardMatcher, error) {
	if len(cfg.Patterns) == 0 {
		return nil, fmt.Errorf("no patterns provided")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	compiled := make(map[*types.Pattern]*wildcard.Pattern, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		if p.StructuralID == "" {
			p.StructuralID = p.ComputeStructuralID()
		}
		compiled[p] = wildcard.Compile(p.Pattern, p.WildcardByte())
	}

	pf, err := prefilter.New(cfg.Patterns, prefilter.Config{Engine: cfg.Prefilter})
	if err != nil {
		return nil, fmt.Errorf("building prefilter: %w", err)
	}

	logger.Debug("matcher ready",
		"patterns", len(cfg.Patterns),
		"keywords", pf.Keywords(),
		"prefilter", cfg.Prefilter)

	return &WildcardMatcher{
		cfg:       cfg,
		compiled:  compiled,
		prefilter: pf,
		logger:    logger,
	}, nil
}

// Match scans content against all loaded patterns.
func (m *WildcardMatcher) Match(content []byte) ([]*types.Match, error) {
	return m.MatchWithBlobID(content, types.ComputeBlobID(content))
}

// MatchWithBlobID scans content whose BlobID is already known.
func (m *WildcardMatcher) MatchWithBlobID(content []byte, blobID types.BlobID) ([]*types.Match, error) {
	result, err := m.MatchDetailed(content, blobID)
	if err != nil {
		return nil, err
	}
	return result.Matches, nil
}

// MatchDetailed scans content and reports per-pattern statistics.
func (m *WildcardMatcher) MatchDetailed(content []byte, blobID types.BlobID) (*MatchResult, error) {
	candidates := m.prefilter.Filter(content)
	result := &MatchResult{
		PatternStats: make(map[string]PatternStat, len(candidates)),
		Summary: ResultSummary{
			TotalPatterns:     len(m.cfg.Patterns),
			CandidatePatterns: len(candidates),
		},
	}
	dedup := NewDeduplicatorWithMode(m.cfg.Dedupe)
	limit := m.cfg.MaxMatchesPerBlob

	for _, def := range candidates {
		began := time.Now()
		stat := PatternStat{PatternID: def.ID}

		for _, end := range scanEnds(m.compiled[def], content) {
			if limit > 0 && len(result.Matches) >= limit {
				stat.Truncated = true
				break
			}
			match := m.newMatch(def, content, blobID, end+1-len(def.Pattern), end+1)
			if dedup.Observe(match) {
				continue
			}
			result.Matches = append(result.Matches, match)
			stat.Matches++
		}

		stat.Duration = time.Since(began)
		result.PatternStats[def.ID] = stat
		if stat.Matches > 0 {
			result.Summary.MatchedPatterns++
		}
		if stat.Truncated {
			m.logger.Warn("match limit reached",
				"blob", blobID.Hex(),
				"pattern", def.ID,
				"limit", limit)
			break
		}
	}

	return result, nil
}

// Close is a no-op; compiled patterns hold no external resources.
func (m *WildcardMatcher) Close() error {
	return nil
}

// scanEnds returns the offset of the last byte of every occurrence of p.
func scanEnds(p *wildcard.Pattern, content []byte) []int {
	var ends []int
	sm := p.NewMatcher()
	i := 0
	record := func() { ends = append(ends, i) }
	for ; i < len(content); i++ {
		sm.Scan(content[i], record)
	}
	return ends
}

func (m *WildcardMatcher) newMatch(def *types.Pattern, content []byte, blobID types.BlobID, start, end int) *types.Match {
	text := bytes.Clone(content[start:end])
	before, after := ExtractContext(content, start, end, m.cfg.ContextLines)

	match := &types.Match{
		BlobID:      blobID,
		PatternID:   def.ID,
		PatternName: def.Name,
		Location:    types.NewLocation(content, start, end),
		Snippet: types.Snippet{
			Before:   before,
			Matching: text,
			After:    after,
		},
	}
	match.StructuralID = match.ComputeStructuralID(def.StructuralID)
	match.FindingID = types.ComputeFindingID(def.StructuralID, text)
	return match
}
