package types

import (
	"fmt"
	"time"
)

// Provenance records where a blob came from.
type Provenance interface {
	Kind() string
	// Path returns a displayable location, or "" when there is none.
	Path() string
}

// FileProvenance is a file read from the local filesystem.
type FileProvenance struct {
	FilePath string
}

func (f FileProvenance) Kind() string { return "file" }
func (f FileProvenance) Path() string { return f.FilePath }

// GitProvenance is a blob reached through a git tree.
type GitProvenance struct {
	RepoPath string
	Commit   *CommitMetadata // nil when commit info is not tracked
	BlobPath string          // path within the repository
}

func (g GitProvenance) Kind() string { return "git" }
func (g GitProvenance) Path() string { return g.BlobPath }

// CommitMetadata holds git commit information.
type CommitMetadata struct {
	CommitID           string
	AuthorName         string
	AuthorEmail        string
	AuthorTimestamp    time.Time
	CommitterName      string
	CommitterEmail     string
	CommitterTimestamp time.Time
	Message            string
}

// ArchiveProvenance is text extracted from a member of a document or archive.
type ArchiveProvenance struct {
	ArchivePath string
	MemberPath  string // e.g. "word/document.xml"
}

func (a ArchiveProvenance) Kind() string { return "archive" }
func (a ArchiveProvenance) Path() string {
	return fmt.Sprintf("%s:%s", a.ArchivePath, a.MemberPath)
}

// StreamProvenance is a single unnamed stream such as stdin.
type StreamProvenance struct {
	Name string
}

func (s StreamProvenance) Kind() string { return "stream" }
func (s StreamProvenance) Path() string { return s.Name }

// ExtendedProvenance carries caller-defined metadata for other sources.
type ExtendedProvenance struct {
	Payload map[string]interface{}
}

func (e ExtendedProvenance) Kind() string { return "extended" }
func (e ExtendedProvenance) Path() string { return "" }
