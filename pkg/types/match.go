package types

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// Match is a single pattern occurrence in a blob.
type Match struct {
	BlobID       BlobID
	StructuralID string // SHA-1(pattern_structural_id, blob_id, start, end)
	FindingID    string // SHA-1(pattern_structural_id, matched text)
	PatternID    string
	PatternName  string
	Location     Location
	Snippet      Snippet
}

// ComputeStructuralID derives a location-based identity for the match.
// Fields are separated by NUL bytes.
func (m *Match) ComputeStructuralID(patternStructuralID string) string {
	h := sha1.New()
	h.Write([]byte(patternStructuralID))
	h.Write([]byte{0})
	h.Write(m.BlobID[:])
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(m.Location.Offset.Start, 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(m.Location.Offset.End, 10)))
	return hex.EncodeToString(h.Sum(nil))
}
