package enum

import (
	"context"
	"fmt"
	"io"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// ReaderEnumerator yields the whole of a single stream, such as stdin, as
// one blob.
type ReaderEnumerator struct {
	Name    string
	Reader  io.Reader
	MaxSize int64 // read at most this many bytes (0 = no limit)
}

func NewReaderEnumerator(name string, r io.Reader) *ReaderEnumerator {
	return &ReaderEnumerator{Name: name, Reader: r}
}

func (e *ReaderEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	r := e.Reader
	if e.MaxSize > 0 {
		r = io.LimitReader(r, e.MaxSize)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", e.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return callback(content, types.ComputeBlobID(content), types.StreamProvenance{Name: e.Name})
}
