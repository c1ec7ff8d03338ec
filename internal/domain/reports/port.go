package reports

import (
	"context"
	"io"
)

// Repository port (persistence for reports)
type Repository interface {
	Create(ctx context.Context, r *Report) error
	ListByOwner(ctx context.Context, ownerID int64) ([]*Report, error)
	// Get returns ErrNotFound unless the report exists for that owner.
	Get(ctx context.Context, id, ownerID int64) (*Report, error)
	// GetDetail returns the report and its analysis from one consistent read.
	GetDetail(ctx context.Context, id, ownerID int64) (Detail, error)
}

// BlobStore port (penyimpanan file upload)
type BlobStore interface {
	Store(ctx context.Context, r io.Reader, size int64, key, contentType string) (string, error)
	// Resolve turns a stored ref into something the AI backend can open:
	// a local path or a (presigned) URL.
	Resolve(ctx context.Context, ref string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}
