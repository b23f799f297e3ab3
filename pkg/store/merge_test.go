package store

import (
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_Validation(t *testing.T) {
	_, err := Merge(MergeConfig{DestPath: "dest.db"})
	assert.ErrorContains(t, err, "no source databases")

	_, err = Merge(MergeConfig{SourcePaths: []string{"source.db"}})
	assert.ErrorContains(t, err, "destination path is required")
}

// seed creates a scan database holding one blob with one match.
func seed(t *testing.T, path, content, sid string) types.BlobID {
	t.Helper()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	blobID := types.ComputeBlobID([]byte(content))
	require.NoError(t, s.AddBlob(blobID, int64(len(content))))
	require.NoError(t, s.AddPattern(&types.Pattern{ID: "ws.config.password", Name: "Config Password", Pattern: "password=????????"}))
	require.NoError(t, s.AddMatch(testMatch(blobID, sid, "finding-"+sid, 0)))
	require.NoError(t, s.AddFinding(&types.Finding{ID: "finding-" + sid, PatternID: "ws.config.password", Text: []byte(content)}))
	require.NoError(t, s.AddProvenance(blobID, types.FileProvenance{FilePath: "/src/" + sid}))
	return blobID
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.db")
	b := filepath.Join(dir, "b.db")
	dest := filepath.Join(dir, "merged.db")

	blobA := seed(t, a, "password=aaaaaaaa", "m1")
	blobB := seed(t, b, "password=bbbbbbbb", "m2")

	stats, err := Merge(MergeConfig{SourcePaths: []string{a, b, a}, DestPath: dest})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.SourcesProcessed)
	assert.Equal(t, 2, stats.BlobsMerged)
	assert.Equal(t, 1, stats.PatternsMerged)
	assert.Equal(t, 2, stats.MatchesMerged)
	assert.Equal(t, 2, stats.FindingsMerged)
	assert.Equal(t, 2, stats.ProvenanceMerged)

	merged, err := NewSQLite(dest)
	require.NoError(t, err)
	defer merged.Close()

	for _, id := range []types.BlobID{blobA, blobB} {
		exists, err := merged.BlobExists(id)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	findings, err := merged.GetFindings()
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Len(t, findings[0].Matches, 1)

	provs, err := merged.GetProvenance(blobB)
	require.NoError(t, err)
	assert.Equal(t, []types.Provenance{types.FileProvenance{FilePath: "/src/m2"}}, provs)
}

func TestMerge_MissingSourceTables(t *testing.T) {
	dir := t.TempDir()
	_, err := Merge(MergeConfig{
		SourcePaths: []string{filepath.Join(dir, "empty.db")},
		DestPath:    filepath.Join(dir, "dest.db"),
	})
	assert.ErrorContains(t, err, "merging blobs")
}
