package upload

import (
	"context"
	"errors"
	"fmt"

	"github.com/stefando/zoomSyncAWS/internal/metrics"
	"github.com/stefando/zoomSyncAWS/internal/storage"
)

// Orchestrator uploads batches of recordings into one bucket, one
// recording at a time.
type Orchestrator struct {
	store    storage.ObjectStore
	bucket   string
	reporter Reporter
	session  SessionConfig
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithChunkSize sets the multipart part size in bytes.
func WithChunkSize(n int) Option {
	return func(o *Orchestrator) { o.session.ChunkSize = n }
}

// WithStorageClass sets the storage class of new objects.
func WithStorageClass(class string) Option {
	return func(o *Orchestrator) { o.session.StorageClass = class }
}

// New returns an orchestrator for bucket. A nil reporter discards reports.
func New(store storage.ObjectStore, bucket string, reporter Reporter, opts ...Option) *Orchestrator {
	if reporter == nil {
		reporter = nopReporter{}
	}
	o := &Orchestrator{store: store, bucket: bucket, reporter: reporter}
	for _, opt := range opts {
		opt(o)
	}
	o.session.Reporter = reporter
	return o
}

// Bucket returns the target bucket.
func (o *Orchestrator) Bucket() string { return o.bucket }

// UploadBatch mirrors recs into the bucket and returns the tally.
//
// The existing keys are listed once up front; if that fails nothing is
// attempted and the *ListError is returned. Individual recording failures
// are reported and counted but never stop the batch. ctx is checked between
// recordings only; on cancellation the partial result is returned with
// ctx.Err().
func (o *Orchestrator) UploadBatch(ctx context.Context, recs []Recording) (BatchResult, error) {
	var res BatchResult

	existing, err := ExistingKeys(ctx, o.store, o.bucket)
	if err != nil {
		return res, err
	}

	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		id := rec.ID()
		if id == "" {
			res.Failed++
			metrics.Recordings.WithLabelValues(metrics.ResultFailed).Inc()
			o.reporter.Report(SeverityError, rec.DisplayName(), ErrEmptyID.Error())
			continue
		}
		if _, dup := seen[id]; dup {
			res.Skipped++
			metrics.Recordings.WithLabelValues(metrics.ResultSkipped).Inc()
			o.reporter.Report(SeverityWarn, id, "duplicate in batch, skipping")
			continue
		}
		seen[id] = struct{}{}

		if !ShouldUpload(rec, existing) {
			res.Skipped++
			metrics.Recordings.WithLabelValues(metrics.ResultSkipped).Inc()
			o.reporter.Report(SeverityInfo, id, "already present, skipping")
			continue
		}

		s := NewSession(o.store, o.bucket, rec, o.session)
		if err := s.Run(ctx); err != nil {
			res.Failed++
			metrics.Recordings.WithLabelValues(metrics.ResultFailed).Inc()
			o.reporter.Report(SeverityError, id, err.Error())

			var aerr *AbortError
			if errors.As(err, &aerr) {
				res.AbortFailures++
				metrics.AbortFailures.Inc()
				o.reporter.Report(SeverityAlert, id,
					fmt.Sprintf("failed to abort upload, it must be aborted manually (upload id %s)", aerr.UploadID))
			}
			continue
		}

		res.Uploaded++
		metrics.Recordings.WithLabelValues(metrics.ResultUploaded).Inc()
		o.reporter.Report(SeverityInfo, id,
			fmt.Sprintf("uploaded %d bytes in %d parts (etag %s)", s.Bytes(), len(s.Parts()), s.ETag()))
	}
	return res, nil
}
