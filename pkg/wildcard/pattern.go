// Package wildcard matches patterns containing a single-byte wildcard against
// a stream of bytes in one pass.
//
// A pattern such as "a?c?" is split into literal fragments ("a" and "c")
// which are loaded into an Aho-Corasick automaton. While scanning, each
// fragment occurrence votes for the position where a full pattern occurrence
// would have to start; a start position that collects a vote from every
// fragment is a match.
package wildcard

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/wildscan/pkg/ahocorasick"
)

// DefaultWildcard is the wildcard byte used when none is configured.
const DefaultWildcard byte = '?'

var (
	// ErrNotInitialized is the panic value raised when Scan is called on a
	// Matcher that has no pattern.
	ErrNotInitialized = errors.New("wildcard: matcher not initialized")

	// ErrInvalidWildcard is returned when a wildcard is not exactly one byte.
	ErrInvalidWildcard = errors.New("wildcard: wildcard must be exactly one byte")
)

// ParseWildcard converts a configured wildcard string into a byte.
// An empty string selects DefaultWildcard.
func ParseWildcard(s string) (byte, error) {
	switch len(s) {
	case 0:
		return DefaultWildcard, nil
	case 1:
		return s[0], nil
	default:
		return 0, fmt.Errorf("%w: got %q", ErrInvalidWildcard, s)
	}
}

// Fragment is a maximal run of literal bytes in a pattern.
type Fragment struct {
	Text string
	// End is the offset just past the fragment's last byte within the pattern.
	End int
}

// Fragments splits pattern on wildcard into maximal non-empty literal runs.
func Fragments(pattern string, wildcard byte) []Fragment {
	var fragments []Fragment
	start := -1
	for i := 0; i <= len(pattern); i++ {
		if i < len(pattern) && pattern[i] != wildcard {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			fragments = append(fragments, Fragment{Text: pattern[start:i], End: i})
			start = -1
		}
	}
	return fragments
}

// Pattern is a compiled wildcard pattern. It is immutable and may be shared
// by any number of Matchers, including across goroutines.
type Pattern struct {
	text      string
	wildcard  byte
	fragments []Fragment
	automaton *ahocorasick.Automaton
}

// Compile builds the fragment automaton for pattern. Each fragment is
// registered under its End offset.
func Compile(pattern string, wildcard byte) *Pattern {
	fragments := Fragments(pattern, wildcard)

	builder := ahocorasick.NewBuilder()
	for _, f := range fragments {
		builder.Add(f.Text, f.End)
	}

	return &Pattern{
		text:      pattern,
		wildcard:  wildcard,
		fragments: fragments,
		automaton: builder.Build(),
	}
}

// Len returns the pattern length in bytes.
func (p *Pattern) Len() int {
	return len(p.text)
}

// Wildcard returns the wildcard byte.
func (p *Pattern) Wildcard() byte {
	return p.wildcard
}

// Fragments returns a copy of the pattern's literal fragments.
func (p *Pattern) Fragments() []Fragment {
	return append([]Fragment(nil), p.fragments...)
}

// LongestFragment returns the longest literal fragment, or "" when the
// pattern is made only of wildcards.
func (p *Pattern) LongestFragment() string {
	return Longest(p.fragments)
}

// Longest returns the text of the longest fragment. Ties keep the leftmost.
func Longest(fragments []Fragment) string {
	longest := ""
	for _, f := range fragments {
		if len(f.Text) > len(longest) {
			longest = f.Text
		}
	}
	return longest
}

// NewMatcher returns a Matcher positioned at the start of a stream.
func (p *Pattern) NewMatcher() *Matcher {
	m := &Matcher{}
	m.attach(p)
	return m
}

// String returns the pattern text.
func (p *Pattern) String() string {
	return p.text
}
