package storage

import "context"

// ObjectStore abstracts the object storage collaborator. Upload returns
// the public URL of the stored object. Both operations are retry-safe:
// uploads overwrite, deletes tolerate a missing object.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}
