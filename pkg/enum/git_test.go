package enum

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitFiles writes files into the worktree and commits them.
func commitFiles(t *testing.T, repo *git.Repository, root, message string, files map[string]string) {
	t.Helper()

	writeFiles(t, root, files)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for name := range files {
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
}

func setupRepo(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	commitFiles(t, repo, root, "initial", map[string]string{
		"config.ini":        "password=hunter22",
		"subdir/nested.txt": "nested content",
		".env":              "hidden",
	})
	commitFiles(t, repo, root, "rotate password", map[string]string{
		"config.ini": "password=rotated1",
	})
	return root
}

func gitPaths(t *testing.T, e *GitEnumerator) ([]string, []string) {
	t.Helper()

	var paths, contents []string
	err := e.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, prov types.Provenance) error {
		gp, ok := prov.(types.GitProvenance)
		require.True(t, ok)
		require.NotNil(t, gp.Commit)
		assert.Equal(t, "Test User", gp.Commit.AuthorName)
		assert.Equal(t, types.ComputeBlobID(content), blobID)

		paths = append(paths, prov.Path())
		contents = append(contents, string(content))
		return nil
	})
	require.NoError(t, err)

	sort.Strings(paths)
	sort.Strings(contents)
	return paths, contents
}

func TestGitEnumerator_Head(t *testing.T) {
	root := setupRepo(t)

	paths, contents := gitPaths(t, NewGitEnumerator(Config{Root: root}))

	assert.Equal(t, []string{"config.ini", "subdir/nested.txt"}, paths)
	assert.Equal(t, []string{"nested content", "password=rotated1"}, contents)
}

func TestGitEnumerator_History(t *testing.T) {
	root := setupRepo(t)

	e := NewGitEnumerator(Config{Root: root, IncludeHidden: true})
	e.History = true
	paths, contents := gitPaths(t, e)

	// The unchanged blob is reported once even though both commits contain it.
	assert.Equal(t, []string{".env", "config.ini", "config.ini", "subdir/nested.txt"}, paths)
	assert.Contains(t, contents, "password=hunter22")
	assert.Contains(t, contents, "password=rotated1")
}

func TestGitEnumerator_Errors(t *testing.T) {
	noop := func([]byte, types.BlobID, types.Provenance) error { return nil }

	err := NewGitEnumerator(Config{Root: t.TempDir()}).Enumerate(context.Background(), noop)
	assert.ErrorContains(t, err, "failed to open git repository")

	root := setupRepo(t)
	e := NewGitEnumerator(Config{Root: root})
	e.CommitRef = "does-not-exist"
	err = e.Enumerate(context.Background(), noop)
	assert.ErrorContains(t, err, "failed to resolve ref")
}

func TestGitEnumerator_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	commitFiles(t, repo, root, "sizes", map[string]string{
		"small.txt": "tiny",
		"large.txt": "much larger than ten bytes",
	})
	require.NoError(t, os.Remove(filepath.Join(root, "small.txt")))

	paths, _ := gitPaths(t, NewGitEnumerator(Config{Root: root, MaxFileSize: 10}))
	assert.Equal(t, []string{"small.txt"}, paths)
}

func TestHasHiddenElement(t *testing.T) {
	assert.True(t, hasHiddenElement(".env"))
	assert.True(t, hasHiddenElement("a/.git/config"))
	assert.False(t, hasHiddenElement("a/b/c.txt"))
}
