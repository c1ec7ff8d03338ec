// Package source loads report content for in-process AI providers straight
// from the blob store.
package source

import (
	"context"
	"errors"
	"io"
)

var errNoStore = errors.New("no blob store configured")

// Opener is the read side of reports.BlobStore.
type Opener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Read returns at most limit bytes of the stored upload and whether it was truncated.
func Read(ctx context.Context, o Opener, ref string, limit int64) ([]byte, bool, error) {
	if o == nil {
		return nil, false, errNoStore
	}
	rc, err := o.Open(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(b)) > limit {
		return b[:limit], true, nil
	}
	return b, false, nil
}
