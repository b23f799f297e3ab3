package matcher

import (
	"time"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// PatternStat describes one pattern's work on one blob.
type PatternStat struct {
	PatternID string
	Matches   int
	Truncated bool // stopped at MaxMatchesPerBlob
	Duration  time.Duration
}

// ResultSummary aggregates a scan of one blob.
type ResultSummary struct {
	TotalPatterns     int // patterns loaded
	CandidatePatterns int // patterns that survived the prefilter
	MatchedPatterns   int
}

// MatchResult holds matches with per-pattern statistics.
type MatchResult struct {
	Matches      []*types.Match
	PatternStats map[string]PatternStat // keyed by pattern ID, candidates only
	Summary      ResultSummary
}
