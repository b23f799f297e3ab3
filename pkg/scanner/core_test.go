package scanner

import (
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/wildscan/pkg/blobstore"
	"github.com/praetorian-inc/wildscan/pkg/store"
	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const customPatterns = `
patterns:
  - id: test.token
    name: Test Token
    pattern: "tok_????"
`

func TestNewCore_Builtin(t *testing.T) {
	core, err := NewCore(Config{})
	require.NoError(t, err)
	defer core.Close()

	builtin, err := GetBuiltinPatterns()
	require.NoError(t, err)
	assert.Equal(t, builtin, core.Patterns())

	result, err := core.Scan("[db]\npassword=hunter22\n", "config.ini")
	require.NoError(t, err)
	assert.Equal(t, "config.ini", result.Source)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "ws.config.password", result.Matches[0].PatternID)
	assert.Equal(t, "password=hunter22", string(result.Matches[0].Snippet.Matching))
}

func TestNewCore_CustomYAML(t *testing.T) {
	core, err := NewCore(Config{PatternsYAML: customPatterns})
	require.NoError(t, err)
	defer core.Close()

	require.Len(t, core.Patterns(), 1)

	result, err := core.Scan("a tok_1234 b tok_ab", "inline")
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, int64(2), result.Matches[0].Location.Offset.Start)
}

func TestNewCore_InvalidYAML(t *testing.T) {
	_, err := NewCore(Config{PatternsYAML: "patterns: ["})
	assert.ErrorContains(t, err, "parsing patterns")
}

func TestCore_ScanRecordsResults(t *testing.T) {
	s := store.NewMemory()
	core, err := NewCore(Config{PatternsYAML: customPatterns, Store: s})
	require.NoError(t, err)
	defer core.Close()

	result, err := core.Scan("tok_abcd and tok_abcd", "stdin")
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)

	blobID := types.ComputeBlobID([]byte("tok_abcd and tok_abcd"))
	exists, err := s.BlobExists(blobID)
	require.NoError(t, err)
	assert.True(t, exists)

	findings, err := s.GetFindings()
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "tok_abcd", string(findings[0].Text))
	assert.Len(t, findings[0].Matches, 2)

	provs, err := s.GetProvenance(blobID)
	require.NoError(t, err)
	assert.Equal(t, []types.Provenance{types.StreamProvenance{Name: "stdin"}}, provs)
}

func TestCore_ScanBatch(t *testing.T) {
	core, err := NewCore(Config{PatternsYAML: customPatterns})
	require.NoError(t, err)
	defer core.Close()

	batch, err := core.ScanBatch([]ContentItem{
		{Source: "a", Content: "tok_1111"},
		{Source: "b", Content: "nothing here"},
		{Source: "c", Content: "tok_2222 tok_3333"},
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, "b", batch.Results[1].Source)
	assert.Empty(t, batch.Results[1].Matches)
	assert.NotNil(t, batch.Results[1].Matches)
}

func TestCore_Incremental(t *testing.T) {
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)

	core, err := NewCore(Config{PatternsYAML: customPatterns, Store: s, Incremental: true})
	require.NoError(t, err)
	defer core.Close()

	content := []byte("tok_9999")
	blobID := types.ComputeBlobID(content)

	matches, skipped, err := core.ScanBlob(content, blobID, types.FileProvenance{FilePath: "a.txt"})
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Len(t, matches, 1)

	matches, skipped, err = core.ScanBlob(content, blobID, types.FileProvenance{FilePath: "copy/a.txt"})
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Nil(t, matches)

	all, err := s.GetAllMatches()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	provs, err := s.GetProvenance(blobID)
	require.NoError(t, err)
	assert.Len(t, provs, 2)

	assert.Equal(t, Stats{BlobsScanned: 1, BlobsSkipped: 1, Matches: 1}, core.Stats())
}

func TestCore_StoresMatchedBlobs(t *testing.T) {
	blobs, err := blobstore.Open(t.TempDir())
	require.NoError(t, err)

	core, err := NewCore(Config{PatternsYAML: customPatterns, Blobs: blobs})
	require.NoError(t, err)
	defer core.Close()

	_, err = core.Scan("id=tok_abcd", "hit")
	require.NoError(t, err)
	_, err = core.Scan("nothing to see", "miss")
	require.NoError(t, err)

	got, err := blobs.Get(types.ComputeBlobID([]byte("id=tok_abcd")))
	require.NoError(t, err)
	assert.Equal(t, "id=tok_abcd", string(got))
	assert.False(t, blobs.Exists(types.ComputeBlobID([]byte("nothing to see"))))
}
