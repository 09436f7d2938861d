package storage

import "context"

// BlobStore is the blob-store collaborator: upload bytes, get back a
// public URL; delete by that URL.
type BlobStore interface {
	PutObject(ctx context.Context, data []byte, filename, contentType, pathPrefix string) (string, error)
	DeleteObject(ctx context.Context, url string) error
}
