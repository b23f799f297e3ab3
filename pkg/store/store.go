package store

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// Store provides persistence for scan results.
// Implementations: MemoryStore, SQLiteStore and PostgresStore.
type Store interface {
	// AddBlob stores a blob record. Adding the same blob twice is a no-op.
	AddBlob(id types.BlobID, size int64) error

	// AddPattern records the pattern that produced matches.
	AddPattern(p *types.Pattern) error

	// AddMatch stores a match record, deduplicated by structural ID.
	AddMatch(m *types.Match) error

	// AddFinding stores a finding, deduplicated by ID.
	AddFinding(f *types.Finding) error

	// AddProvenance associates provenance with a blob.
	AddProvenance(blobID types.BlobID, prov types.Provenance) error

	GetMatches(blobID types.BlobID) ([]*types.Match, error)
	GetAllMatches() ([]*types.Match, error)

	// GetFindings returns every finding with its matches attached.
	GetFindings() ([]*types.Finding, error)

	// GetProvenance returns all provenance recorded for a blob.
	GetProvenance(blobID types.BlobID) ([]types.Provenance, error)

	// SetAnnotation records a review status and comment for a finding or
	// match. kind is AnnotationFinding or AnnotationMatch.
	SetAnnotation(kind, id, status, comment string) error

	// GetAnnotation returns empty strings when nothing was recorded.
	GetAnnotation(kind, id string) (status, comment string, err error)

	FindingExists(id string) (bool, error)
	BlobExists(id types.BlobID) (bool, error)

	Close() error
}

// Annotation kinds.
const (
	AnnotationFinding = "finding"
	AnnotationMatch   = "match"
)

// Config for store initialization.
type Config struct {
	// Path selects the backend:
	//   ":memory:"                  in-process maps
	//   "postgres://..."            PostgreSQL via pgx
	//   anything else               SQLite database file
	Path string
}

// New creates the Store selected by cfg.Path.
func New(cfg Config) (Store, error) {
	switch {
	case cfg.Path == "":
		return nil, fmt.Errorf("path is required")
	case cfg.Path == ":memory:":
		return NewMemory(), nil
	case isPostgresDSN(cfg.Path):
		return NewPostgres(cfg.Path)
	default:
		return NewSQLite(cfg.Path)
	}
}

func isPostgresDSN(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}
