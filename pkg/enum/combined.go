package enum

import (
	"context"
	"sync"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// CombinedEnumerator runs enumerators in order and yields each distinct blob
// at most once across all of them.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	var mu sync.Mutex
	seen := make(map[types.BlobID]struct{})

	unique := func(content []byte, blobID types.BlobID, prov types.Provenance) error {
		mu.Lock()
		_, dup := seen[blobID]
		seen[blobID] = struct{}{}
		mu.Unlock()
		if dup {
			return nil
		}
		return callback(content, blobID, prov)
	}

	for _, e := range c.enumerators {
		if err := e.Enumerate(ctx, unique); err != nil {
			return err
		}
	}
	return nil
}
