package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/stefando/zoomSyncAWS/internal/metrics"
	"github.com/stefando/zoomSyncAWS/internal/storage"
)

// DefaultChunkSize is the part size used when none is configured.
const DefaultChunkSize = 10 * 1024 * 1024

// State is the lifecycle position of a Session.
type State int

const (
	StateCreated State = iota
	StateInProgress
	StateCompleted
	StateAborting
	StateAborted
	StateAbortFailed
	// StateFailed means the upload never began, so there was nothing to abort.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	case StateAborting:
		return "aborting"
	case StateAborted:
		return "aborted"
	case StateAbortFailed:
		return "abort-failed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionConfig tunes a Session. Zero values select the defaults.
type SessionConfig struct {
	ChunkSize    int
	StorageClass string
	Reporter     Reporter
}

// Session moves one recording into the store as a multipart upload. Once
// the upload has begun, every exit other than a successful completion
// attempts to abort it.
type Session struct {
	store  storage.ObjectStore
	bucket string
	rec    Recording
	cfg    SessionConfig

	state  State
	upload storage.MultipartUpload
	parts  []storage.Part
	bytes  int64
	etag   string
}

// NewSession prepares a session; nothing is sent until Run.
func NewSession(store storage.ObjectStore, bucket string, rec Recording, cfg SessionConfig) *Session {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.StorageClass == "" {
		cfg.StorageClass = storage.DefaultStorageClass
	}
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}
	return &Session{store: store, bucket: bucket, rec: rec, cfg: cfg, state: StateCreated}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Upload returns the store handle, zero until begin succeeds.
func (s *Session) Upload() storage.MultipartUpload { return s.upload }

// Parts returns the parts uploaded so far, in part-number order.
func (s *Session) Parts() []storage.Part { return s.parts }

// Bytes returns the number of bytes uploaded so far.
func (s *Session) Bytes() int64 { return s.bytes }

// ETag returns the final object ETag once completed.
func (s *Session) ETag() string { return s.etag }

// Run drives the session to a terminal state. Store calls use a context
// detached from ctx cancellation so an open upload is always resolved.
func (s *Session) Run(ctx context.Context) error {
	if s.state != StateCreated {
		return fmt.Errorf("session for %s already ran (%s)", s.rec.ID(), s.state)
	}
	ctx = context.WithoutCancel(ctx)
	key := s.rec.ID()

	start := time.Now()
	defer func() { metrics.SessionDuration.Observe(time.Since(start).Seconds()) }()

	u, err := s.store.BeginMultipart(ctx, s.bucket, key, storage.BeginOptions{
		Metadata:           s.rec.Metadata(),
		StorageClass:       s.cfg.StorageClass,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", s.rec.DisplayName()),
	})
	if err != nil {
		s.state = StateFailed
		return &TransferError{Key: key, Op: OpBegin, Err: err}
	}
	s.upload = u
	s.state = StateInProgress
	s.cfg.Reporter.Report(SeverityDebug, key, fmt.Sprintf("began multipart upload %s", u.UploadID))

	if terr := s.transfer(ctx); terr != nil {
		return s.abort(ctx, terr)
	}

	etag, err := s.store.CompleteMultipart(ctx, u, s.parts)
	if err != nil {
		return s.abort(ctx, &TransferError{Key: key, Op: OpComplete, Err: err})
	}
	s.etag = etag
	s.state = StateCompleted
	return nil
}

// transfer streams the recording in ChunkSize parts numbered from 1.
func (s *Session) transfer(ctx context.Context) *TransferError {
	key := s.rec.ID()
	body, err := s.rec.Open(ctx)
	if err != nil {
		return &TransferError{Key: key, Op: OpOpen, Err: err}
	}
	defer body.Close()

	buf := make([]byte, s.cfg.ChunkSize)
	for n := int32(1); ; n++ {
		read, rerr := io.ReadFull(body, buf)
		last := errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF)
		if rerr != nil && !last {
			return &TransferError{Key: key, Op: OpRead, Part: n, Err: rerr}
		}
		if read > 0 {
			part, err := s.store.UploadPart(ctx, s.upload, n, buf[:read])
			if err != nil {
				return &TransferError{Key: key, Op: OpPart, Part: n, Err: err}
			}
			s.parts = append(s.parts, part)
			s.bytes += int64(read)
			metrics.PartsUploaded.Inc()
			metrics.BytesUploaded.Add(float64(read))
			s.cfg.Reporter.Report(SeverityDebug, key, fmt.Sprintf("uploaded part %d (%d bytes)", n, read))
		}
		if last {
			return nil
		}
	}
}

func (s *Session) abort(ctx context.Context, cause *TransferError) error {
	s.state = StateAborting
	if err := s.store.AbortMultipart(ctx, s.upload); err != nil {
		s.state = StateAbortFailed
		cause.Abort = &AbortError{Key: s.upload.Key, UploadID: s.upload.UploadID, Err: err}
		return cause
	}
	s.state = StateAborted
	return cause
}
