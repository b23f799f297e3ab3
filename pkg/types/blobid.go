package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// BlobID is a git-style SHA-1 content hash.
type BlobID [sha1.Size]byte

// ComputeBlobID returns SHA-1("blob <len>\0<content>"), the id git would give
// the same bytes.
func ComputeBlobID(content []byte) BlobID {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)

	var id BlobID
	copy(id[:], h.Sum(nil))
	return id
}

// ParseBlobID parses a 40-character hex string.
func ParseBlobID(s string) (BlobID, error) {
	var id BlobID
	if len(s) != hex.EncodedLen(len(id)) {
		return id, fmt.Errorf("invalid blob ID length: expected %d, got %d", hex.EncodedLen(len(id)), len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return BlobID{}, fmt.Errorf("invalid blob ID %q: %w", s, err)
	}
	return id, nil
}

func (id BlobID) Hex() string    { return hex.EncodeToString(id[:]) }
func (id BlobID) String() string { return id.Hex() }

// IsZero reports whether id is the zero value.
func (id BlobID) IsZero() bool { return id == BlobID{} }

func (id BlobID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

func (id *BlobID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBlobID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the id as hex text.
func (id BlobID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan reads hex text written by Value.
func (id *BlobID) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		return fmt.Errorf("cannot scan NULL into BlobID")
	default:
		return fmt.Errorf("cannot scan %T into BlobID", value)
	}
	parsed, err := ParseBlobID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
