package enum

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// GitEnumerator enumerates blobs from a git repository. Each distinct blob
// is yielded once, attributed to the first commit it was seen in.
type GitEnumerator struct {
	config Config

	// CommitRef is the revision to start from (defaults to HEAD).
	CommitRef string

	// History walks every commit reachable from CommitRef instead of only
	// its tree.
	History bool
}

// NewGitEnumerator creates a new git enumerator.
func NewGitEnumerator(config Config) *GitEnumerator {
	return &GitEnumerator{config: config, CommitRef: "HEAD"}
}

// Enumerate yields the blobs of the selected commits.
func (e *GitEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	repo, err := git.PlainOpen(e.config.Root)
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(e.CommitRef))
	if err != nil {
		return fmt.Errorf("failed to resolve ref %s: %w", e.CommitRef, err)
	}

	seen := make(map[plumbing.Hash]bool)

	if !e.History {
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			return fmt.Errorf("failed to get commit: %w", err)
		}
		return e.walkCommit(ctx, commit, seen, callback)
	}

	commits, err := repo.Log(&git.LogOptions{From: *hash})
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	defer commits.Close()

	return commits.ForEach(func(c *object.Commit) error {
		return e.walkCommit(ctx, c, seen, callback)
	})
}

func (e *GitEnumerator) walkCommit(ctx context.Context, commit *object.Commit, seen map[plumbing.Hash]bool, callback Callback) error {
	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to get tree of %s: %w", commit.Hash, err)
	}

	meta := &types.CommitMetadata{
		CommitID:           commit.Hash.String(),
		AuthorName:         commit.Author.Name,
		AuthorEmail:        commit.Author.Email,
		AuthorTimestamp:    commit.Author.When,
		CommitterName:      commit.Committer.Name,
		CommitterEmail:     commit.Committer.Email,
		CommitterTimestamp: commit.Committer.When,
		Message:            commit.Message,
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen[f.Hash] {
			return nil
		}
		seen[f.Hash] = true

		if e.config.MaxFileSize > 0 && f.Size > e.config.MaxFileSize {
			return nil
		}
		if !e.config.IncludeHidden && hasHiddenElement(f.Name) {
			return nil
		}

		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to get contents of %s: %w", f.Name, err)
		}
		data := []byte(content)
		if isBinary(data) {
			return nil
		}

		prov := types.GitProvenance{RepoPath: e.config.Root, Commit: meta, BlobPath: f.Name}
		return callback(data, types.ComputeBlobID(data), prov)
	})
	if err != nil {
		return fmt.Errorf("failed to walk tree of %s: %w", commit.Hash, err)
	}
	return nil
}

// hasHiddenElement reports whether any element of a slash-separated path is
// a dot-file.
func hasHiddenElement(p string) bool {
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			if isHidden(p[start:i]) {
				return true
			}
			start = i + 1
		}
	}
	return false
}
