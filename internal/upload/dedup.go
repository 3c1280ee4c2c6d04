package upload

import (
	"context"

	"github.com/stefando/zoomSyncAWS/internal/storage"
)

// KeySet is a snapshot of the keys present in the bucket when a batch
// started. It is never refreshed during the batch.
type KeySet map[string]struct{}

// Contains reports whether key was present at snapshot time.
func (k KeySet) Contains(key string) bool {
	_, ok := k[key]
	return ok
}

// ExistingKeys takes the snapshot with a single listing. A failure is not
// retried; it is returned as a *ListError.
func ExistingKeys(ctx context.Context, store storage.ObjectStore, bucket string) (KeySet, error) {
	keys, err := store.ListKeys(ctx, bucket)
	if err != nil {
		return nil, &ListError{Bucket: bucket, Err: err}
	}
	return KeySet(keys), nil
}

// ShouldUpload is false exactly when the recording's key is already stored.
func ShouldUpload(rec Recording, existing KeySet) bool {
	return !existing.Contains(rec.ID())
}
