// Package enum discovers blobs to scan: files on disk, blobs in a git tree,
// single streams, and text extracted from documents.
package enum

import (
	"context"
	"log/slog"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// Callback receives each discovered blob. Returning an error stops the
// enumeration.
type Callback func(content []byte, blobID types.BlobID, prov types.Provenance) error

// Enumerator discovers content to scan from a source.
type Enumerator interface {
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// IncludeHidden includes dot-files and dot-directories.
	IncludeHidden bool

	// MaxFileSize skips larger files (0 = no limit).
	MaxFileSize int64

	FollowSymlinks bool

	// ExtractArchives enables text extraction from documents and archives:
	// a comma-separated list of extensions (xlsx,docx,pptx,pdf,zip) or "all".
	ExtractArchives string

	ExtractLimits ExtractLimits

	// Workers is the number of parallel file readers (0 = one per CPU).
	Workers int

	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
