package matcher

import (
	"fmt"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// DedupeMode controls which matches count as duplicates.
type DedupeMode int

const (
	// DedupeByLocation drops repeats of the same pattern at the same offsets
	// of the same blob.
	DedupeByLocation DedupeMode = iota

	// DedupeByContent keeps one match per pattern and matched text.
	DedupeByContent
)

// ParseDedupeMode maps a flag value ("location" or "content") to a mode.
func ParseDedupeMode(s string) (DedupeMode, error) {
	switch s {
	case "", "location":
		return DedupeByLocation, nil
	case "content":
		return DedupeByContent, nil
	default:
		return 0, fmt.Errorf("unknown dedupe mode %q (want location or content)", s)
	}
}

// Deduplicator remembers which matches have been seen.
// It is not safe for concurrent use.
type Deduplicator struct {
	seen map[string]struct{}
	mode DedupeMode
}

// NewDeduplicator returns a location-based deduplicator.
func NewDeduplicator() *Deduplicator {
	return NewDeduplicatorWithMode(DedupeByLocation)
}

func NewDeduplicatorWithMode(mode DedupeMode) *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{}), mode: mode}
}

// Observe records m and reports whether it had already been seen.
func (d *Deduplicator) Observe(m *types.Match) bool {
	key := d.key(m)
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// Reset forgets every match.
func (d *Deduplicator) Reset() {
	clear(d.seen)
}

func (d *Deduplicator) key(m *types.Match) string {
	if d.mode == DedupeByContent {
		return m.FindingID
	}
	return m.StructuralID
}
