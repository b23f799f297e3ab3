// Package scanner ties a matcher to a store: every scanned blob is matched,
// then the blob, its provenance, and the resulting matches and findings are
// recorded.
package scanner

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/praetorian-inc/wildscan/pkg/matcher"
	"github.com/praetorian-inc/wildscan/pkg/pattern"
	"github.com/praetorian-inc/wildscan/pkg/prefilter"
	"github.com/praetorian-inc/wildscan/pkg/store"
	"github.com/praetorian-inc/wildscan/pkg/types"
)

var (
	cachedBuiltinPatterns []*types.Pattern
	cachedPatternsErr     error
	cacheOnce             sync.Once
)

// loadBuiltinPatternsCached loads the builtin patterns once per process.
func loadBuiltinPatternsCached() ([]*types.Pattern, error) {
	cacheOnce.Do(func() {
		cachedBuiltinPatterns, cachedPatternsErr = pattern.NewLoader().LoadBuiltinPatterns()
	})
	return cachedBuiltinPatterns, cachedPatternsErr
}

// GetBuiltinPatterns returns the builtin patterns (cached).
func GetBuiltinPatterns() ([]*types.Pattern, error) {
	return loadBuiltinPatternsCached()
}

// Config configures a Core.
type Config struct {
	// Patterns to scan with. When empty, PatternsYAML is parsed instead,
	// and when that is empty too the builtin patterns are used.
	Patterns     []*types.Pattern
	PatternsYAML string

	ContextLines      int
	Prefilter         prefilter.Engine
	MaxMatchesPerBlob int
	Dedupe            matcher.DedupeMode

	// Store receives results. Nil means a private in-memory store.
	Store store.Store

	// Incremental skips blobs the store has already seen.
	Incremental bool

	// Blobs, when set, receives the content of every blob with matches.
	Blobs BlobSink

	Logger *slog.Logger
}

// BlobSink persists blob content. blobstore.Store implements it.
type BlobSink interface {
	Put(id types.BlobID, content []byte) error
}

// Core wraps the matcher and store for scanning operations. It is safe for
// concurrent use.
type Core struct {
	matcher     matcher.Matcher
	store       store.Store
	patterns    []*types.Pattern
	incremental bool
	blobs       BlobSink
	logger      *slog.Logger

	scanned, skipped, matched atomic.Int64
}

// Stats summarizes what a Core has scanned so far.
type Stats struct {
	BlobsScanned int64
	BlobsSkipped int64
	Matches      int64
}

// Stats returns counters accumulated by ScanBlob.
func (c *Core) Stats() Stats {
	return Stats{
		BlobsScanned: c.scanned.Load(),
		BlobsSkipped: c.skipped.Load(),
		Matches:      c.matched.Load(),
	}
}

// NewCore builds a Core from cfg.
func NewCore(cfg Config) (*Core, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	patterns, err := resolvePatterns(cfg)
	if err != nil {
		return nil, err
	}

	m, err := matcher.New(matcher.Config{
		Patterns:          patterns,
		ContextLines:      cfg.ContextLines,
		Prefilter:         cfg.Prefilter,
		MaxMatchesPerBlob: cfg.MaxMatchesPerBlob,
		Dedupe:            cfg.Dedupe,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating matcher: %w", err)
	}

	s := cfg.Store
	if s == nil {
		s = store.NewMemory()
	}
	for _, p := range patterns {
		if err := s.AddPattern(p); err != nil {
			m.Close()
			return nil, fmt.Errorf("recording pattern %s: %w", p.ID, err)
		}
	}

	logger.Debug("scanner ready", "patterns", len(patterns), "incremental", cfg.Incremental)
	return &Core{
		matcher:     m,
		store:       s,
		patterns:    patterns,
		incremental: cfg.Incremental,
		blobs:       cfg.Blobs,
		logger:      logger,
	}, nil
}

func resolvePatterns(cfg Config) ([]*types.Pattern, error) {
	switch {
	case len(cfg.Patterns) > 0:
		return cfg.Patterns, nil
	case cfg.PatternsYAML != "":
		patterns, err := pattern.NewLoader().LoadPatterns([]byte(cfg.PatternsYAML))
		if err != nil {
			return nil, fmt.Errorf("parsing patterns: %w", err)
		}
		return patterns, nil
	default:
		patterns, err := loadBuiltinPatternsCached()
		if err != nil {
			return nil, fmt.Errorf("loading builtin patterns: %w", err)
		}
		return patterns, nil
	}
}

// Patterns returns the patterns this Core scans with.
func (c *Core) Patterns() []*types.Pattern {
	return c.patterns
}

// Store returns the store results are written to.
func (c *Core) Store() store.Store {
	return c.store
}

// ScanBlob matches content and records it with prov. It returns nil matches
// and skipped=true when incremental mode has seen the blob before.
func (c *Core) ScanBlob(content []byte, blobID types.BlobID, prov types.Provenance) (matches []*types.Match, skipped bool, err error) {
	if c.incremental {
		seen, err := c.store.BlobExists(blobID)
		if err != nil {
			return nil, false, err
		}
		if seen {
			// Still record where the blob was found.
			if err := c.store.AddProvenance(blobID, prov); err != nil {
				return nil, true, err
			}
			c.skipped.Add(1)
			return nil, true, nil
		}
	}

	matches, err = c.matcher.MatchWithBlobID(content, blobID)
	if err != nil {
		return nil, false, fmt.Errorf("matching %s: %w", blobID, err)
	}
	if err := c.record(content, blobID, prov, matches); err != nil {
		return nil, false, err
	}

	c.scanned.Add(1)
	c.matched.Add(int64(len(matches)))
	c.logger.Debug("scanned blob", "blob", blobID.Hex(), "path", prov.Path(), "matches", len(matches))
	return matches, false, nil
}

func (c *Core) record(content []byte, blobID types.BlobID, prov types.Provenance, matches []*types.Match) error {
	if err := c.store.AddBlob(blobID, int64(len(content))); err != nil {
		return err
	}
	if err := c.store.AddProvenance(blobID, prov); err != nil {
		return err
	}
	if c.blobs != nil && len(matches) > 0 {
		if err := c.blobs.Put(blobID, content); err != nil {
			return fmt.Errorf("storing blob %s: %w", blobID, err)
		}
	}
	for _, m := range matches {
		if err := c.store.AddMatch(m); err != nil {
			return err
		}
		finding := &types.Finding{ID: m.FindingID, PatternID: m.PatternID, Text: m.Snippet.Matching}
		if err := c.store.AddFinding(finding); err != nil {
			return err
		}
	}
	return nil
}

// Scan scans a single content string.
func (c *Core) Scan(content, source string) (*ScanResult, error) {
	data := []byte(content)
	matches, _, err := c.ScanBlob(data, types.ComputeBlobID(data), types.StreamProvenance{Name: source})
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []*types.Match{}
	}
	return &ScanResult{Source: source, Matches: matches}, nil
}

// ScanBatch scans multiple items. An item that fails is reported in its
// result's Error field and does not stop the batch.
func (c *Core) ScanBatch(items []ContentItem) (*BatchScanResult, error) {
	batch := &BatchScanResult{Results: make([]ScanResult, 0, len(items))}

	for _, item := range items {
		result, err := c.Scan(item.Content, item.Source)
		if err != nil {
			c.logger.Warn("scan failed", "source", item.Source, "error", err)
			batch.Results = append(batch.Results, ScanResult{Source: item.Source, Matches: []*types.Match{}, Error: err.Error()})
			continue
		}
		batch.Results = append(batch.Results, *result)
		batch.Total += len(result.Matches)
	}
	return batch, nil
}

// Close releases scanner resources, including the store.
func (c *Core) Close() error {
	var firstErr error
	if c.matcher != nil {
		firstErr = c.matcher.Close()
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
