// Package upload mirrors recordings into object storage: it filters out
// recordings already stored, streams the rest through multipart upload
// sessions, and tallies the outcome of each batch.
package upload

import (
	"context"
	"io"
)

// Recording is one item offered by a recording source. ID is used verbatim
// as the object key and must be stable within a batch.
type Recording interface {
	ID() string
	DisplayName() string
	// Size is advisory; it may be zero or inaccurate.
	Size() int64
	Metadata() map[string]string
	// Open returns a fresh single-pass stream of the recording content.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// BatchResult tallies one UploadBatch call.
type BatchResult struct {
	Uploaded      int `json:"uploaded"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
	AbortFailures int `json:"abortFailures"`
}
