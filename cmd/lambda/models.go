package main

import "github.com/stefando/zoomSyncAWS/internal/mirror"

// SyncResponse is returned by /webhook and /sync, and by scheduled runs.
type SyncResponse struct {
	Status  string         `json:"status"`
	Summary mirror.Summary `json:"summary"`
	Error   string         `json:"error,omitempty"`
}

// ErrorResponse is returned when a request is rejected before any upload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Status values for SyncResponse.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

func newSyncResponse(sum mirror.Summary, err error) SyncResponse {
	resp := SyncResponse{Status: StatusOK, Summary: sum}
	switch {
	case err != nil:
		resp.Status = StatusFailed
		resp.Error = err.Error()
	case sum.Failed > 0:
		resp.Status = StatusPartial
	}
	return resp
}
