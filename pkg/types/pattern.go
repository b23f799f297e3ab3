package types

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/praetorian-inc/wildscan/pkg/wildcard"
)

// Pattern is a named wildcard detection pattern with metadata.
type Pattern struct {
	ID               string   // e.g., "ws.config.password"
	Name             string   // human-readable name
	Pattern          string   // literal bytes and wildcards, e.g. "pass??rd=?"
	Wildcard         byte     // wildcard byte, '?' unless overridden
	StructuralID     string   // SHA-1 of wildcard + pattern (computed)
	Description      string   // optional
	Examples         []string // inputs that must contain a match
	NegativeExamples []string // inputs that must not
	References       []string
	Categories       []string
}

// WildcardByte returns the configured wildcard, defaulting to '?'.
func (p *Pattern) WildcardByte() byte {
	if p.Wildcard == 0 {
		return wildcard.DefaultWildcard
	}
	return p.Wildcard
}

// Keyword returns the longest literal fragment of the pattern, used for
// prefiltering. It is empty when the pattern is made only of wildcards.
func (p *Pattern) Keyword() string {
	return wildcard.Longest(wildcard.Fragments(p.Pattern, p.WildcardByte()))
}

// ComputeStructuralID hashes the wildcard byte followed by the pattern, so
// the same text under different wildcards gets a different identity.
func (p *Pattern) ComputeStructuralID() string {
	h := sha1.New()
	h.Write([]byte{p.WildcardByte(), 0})
	h.Write([]byte(p.Pattern))
	return hex.EncodeToString(h.Sum(nil))
}

// PatternSet groups patterns together.
type PatternSet struct {
	ID          string
	Name        string
	Description string
	PatternIDs  []string
}
