package storage

import "context"

// BlobStore is the narrow slice of the platform's object storage the
// import engine needs: upload the source file during the handshake and
// dereference an opaque object key back into bytes when a job runs.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
}
