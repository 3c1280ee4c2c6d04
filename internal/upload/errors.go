package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrListExisting marks a batch that could not start because the
	// existing keys could not be listed.
	ErrListExisting = errors.New("listing existing keys failed")
	// ErrAbortFailed marks a multipart upload left open on the store.
	ErrAbortFailed = errors.New("abort multipart upload failed")
	// ErrEmptyID rejects recordings without an identifier.
	ErrEmptyID = errors.New("recording has no identifier")
)

// ListError is returned by UploadBatch when the existing-key snapshot
// cannot be taken. No recording is attempted.
type ListError struct {
	Bucket string
	Err    error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list existing keys in %s: %v", e.Bucket, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// Is reports ErrListExisting for any listing failure.
func (e *ListError) Is(target error) bool { return target == ErrListExisting }

// Op names the session step that failed.
type Op string

const (
	OpBegin    Op = "begin"
	OpOpen     Op = "open"
	OpRead     Op = "read"
	OpPart     Op = "part"
	OpComplete Op = "complete"
)

// TransferError describes a failed session. When the cleanup abort also
// failed, Abort is set and both errors are reachable through errors.Is/As.
type TransferError struct {
	Key   string
	Op    Op
	Part  int32
	Err   error
	Abort *AbortError
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("upload %s: %s", e.Key, e.Op)
	if e.Part > 0 {
		msg += fmt.Sprintf(" part %d", e.Part)
	}
	msg += ": " + e.Err.Error()
	if e.Abort != nil {
		msg += "; " + e.Abort.Error()
	}
	return msg
}

// Unwrap exposes the cause and, when present, the abort failure.
func (e *TransferError) Unwrap() []error {
	if e.Abort != nil {
		return []error{e.Err, e.Abort}
	}
	return []error{e.Err}
}

// AbortError records a multipart upload that could not be aborted.
// UploadID is needed to clean it up by hand.
type AbortError struct {
	Key      string
	UploadID string
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("abort upload %s of %s: %v", e.UploadID, e.Key, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// Is reports ErrAbortFailed for any abort failure.
func (e *AbortError) Is(target error) bool { return target == ErrAbortFailed }
