// Package storage holds the object store contract used by the transfer
// engine together with its S3 and MinIO implementations.
package storage

import (
	"context"
	"fmt"
)

// DefaultStorageClass is applied to new objects when no class is configured.
const DefaultStorageClass = "INTELLIGENT_TIERING"

// ObjectStore is the subset of object storage the transfer engine needs:
// key listing plus the multipart begin/part/complete/abort protocol.
type ObjectStore interface {
	ListKeys(ctx context.Context, bucket string) (map[string]struct{}, error)
	BeginMultipart(ctx context.Context, bucket, key string, opts BeginOptions) (MultipartUpload, error)
	UploadPart(ctx context.Context, upload MultipartUpload, partNumber int32, body []byte) (Part, error)
	CompleteMultipart(ctx context.Context, upload MultipartUpload, parts []Part) (string, error)
	AbortMultipart(ctx context.Context, upload MultipartUpload) error
}

// BeginOptions carries the object attributes fixed when a multipart upload starts.
type BeginOptions struct {
	Metadata           map[string]string
	StorageClass       string
	ContentDisposition string
}

// MultipartUpload identifies an open multipart upload on the store.
type MultipartUpload struct {
	Bucket   string
	Key      string
	UploadID string
}

// Part is the receipt returned for one uploaded part.
type Part struct {
	Number int32
	ETag   string
}

// Error records the store operation that failed along with the bucket and key.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("storage.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("storage.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	default:
		return fmt.Sprintf("storage.%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func objectError(op string, u MultipartUpload, err error) error {
	return &Error{Op: op, Bucket: u.Bucket, Key: u.Key, Err: err}
}
