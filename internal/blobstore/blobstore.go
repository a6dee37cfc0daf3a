// Package blobstore persists raw document bytes between the upload boundary
// and the extraction stage.
package blobstore

import "context"

// Store saves and retrieves document payloads keyed by document id.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}
