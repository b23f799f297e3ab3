package enum

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceEnumerator struct {
	blobs []string
	err   error
}

func (s sliceEnumerator) Enumerate(_ context.Context, callback Callback) error {
	for i, b := range s.blobs {
		content := []byte(b)
		prov := types.ExtendedProvenance{Payload: map[string]interface{}{"index": i}}
		if err := callback(content, types.ComputeBlobID(content), prov); err != nil {
			return err
		}
	}
	return s.err
}

func TestCombinedEnumerator_Dedup(t *testing.T) {
	combined := NewCombinedEnumerator(
		sliceEnumerator{blobs: []string{"a", "b"}},
		sliceEnumerator{blobs: []string{"b", "c", "a"}},
	)

	var seen []string
	err := combined.Enumerate(context.Background(), func(content []byte, _ types.BlobID, _ types.Provenance) error {
		seen = append(seen, string(content))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestCombinedEnumerator_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	combined := NewCombinedEnumerator(
		sliceEnumerator{blobs: []string{"a"}, err: boom},
		sliceEnumerator{blobs: []string{"never"}},
	)

	var seen []string
	err := combined.Enumerate(context.Background(), func(content []byte, _ types.BlobID, _ types.Provenance) error {
		seen = append(seen, string(content))
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, seen)
}

func TestReaderEnumerator(t *testing.T) {
	e := NewReaderEnumerator("stdin", strings.NewReader("password=hunter22\n"))

	var got []string
	err := e.Enumerate(context.Background(), func(content []byte, blobID types.BlobID, prov types.Provenance) error {
		assert.Equal(t, types.ComputeBlobID(content), blobID)
		assert.Equal(t, types.StreamProvenance{Name: "stdin"}, prov)
		got = append(got, string(content))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"password=hunter22\n"}, got)
}

func TestReaderEnumerator_MaxSize(t *testing.T) {
	e := &ReaderEnumerator{Name: "pipe", Reader: strings.NewReader("0123456789"), MaxSize: 4}

	var got string
	require.NoError(t, e.Enumerate(context.Background(), func(content []byte, _ types.BlobID, _ types.Provenance) error {
		got = string(content)
		return nil
	}))
	assert.Equal(t, "0123", got)
}
