package types

import (
	"crypto/sha1"
	"encoding/hex"
)

// Finding groups every match of one pattern that matched the same text,
// wherever it was found.
type Finding struct {
	ID        string
	PatternID string
	Text      []byte
	Matches   []*Match
}

// ComputeFindingID returns SHA-1(pattern_structural_id + '\0' + text).
func ComputeFindingID(patternStructuralID string, text []byte) string {
	h := sha1.New()
	h.Write([]byte(patternStructuralID))
	h.Write([]byte{0})
	h.Write(text)
	return hex.EncodeToString(h.Sum(nil))
}
