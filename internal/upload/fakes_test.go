package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/stefando/zoomSyncAWS/internal/storage"
)

type call struct {
	Op   string
	Key  string
	Part int32
	Size int
}

// fakeStore records every call and fails on demand.
type fakeStore struct {
	mu      sync.Mutex
	keys    map[string]struct{}
	calls   []call
	nextID  int
	objects map[string][]byte
	pending map[string]*bytes.Buffer
	meta    map[string]storage.BeginOptions

	listErr     error
	beginErr    map[string]error
	partErr     func(key string, part int32) error
	completeErr map[string]error
	abortErr    map[string]error
}

func newFakeStore(existing ...string) *fakeStore {
	f := &fakeStore{
		keys:        map[string]struct{}{},
		objects:     map[string][]byte{},
		pending:     map[string]*bytes.Buffer{},
		meta:        map[string]storage.BeginOptions{},
		beginErr:    map[string]error{},
		completeErr: map[string]error{},
		abortErr:    map[string]error{},
	}
	for _, k := range existing {
		f.keys[k] = struct{}{}
	}
	return f
}

func (f *fakeStore) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeStore) ops(key string) []string {
	var out []string
	for _, c := range f.calls {
		if c.Key == key {
			out = append(out, c.Op)
		}
	}
	return out
}

func (f *fakeStore) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *fakeStore) ListKeys(_ context.Context, bucket string) (map[string]struct{}, error) {
	f.record(call{Op: "list"})
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make(map[string]struct{}, len(f.keys))
	for k := range f.keys {
		out[k] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) BeginMultipart(_ context.Context, bucket, key string, opts storage.BeginOptions) (storage.MultipartUpload, error) {
	f.record(call{Op: "begin", Key: key})
	if err := f.beginErr[key]; err != nil {
		return storage.MultipartUpload{}, err
	}
	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.pending[id] = &bytes.Buffer{}
	f.meta[key] = opts
	return storage.MultipartUpload{Bucket: bucket, Key: key, UploadID: id}, nil
}

func (f *fakeStore) UploadPart(_ context.Context, u storage.MultipartUpload, n int32, body []byte) (storage.Part, error) {
	f.record(call{Op: "part", Key: u.Key, Part: n, Size: len(body)})
	if f.partErr != nil {
		if err := f.partErr(u.Key, n); err != nil {
			return storage.Part{}, err
		}
	}
	f.pending[u.UploadID].Write(body)
	return storage.Part{Number: n, ETag: fmt.Sprintf("etag-%d", n)}, nil
}

func (f *fakeStore) CompleteMultipart(_ context.Context, u storage.MultipartUpload, parts []storage.Part) (string, error) {
	f.record(call{Op: "complete", Key: u.Key, Size: len(parts)})
	if err := f.completeErr[u.Key]; err != nil {
		return "", err
	}
	f.objects[u.Key] = f.pending[u.UploadID].Bytes()
	f.keys[u.Key] = struct{}{}
	delete(f.pending, u.UploadID)
	return "final-" + u.Key, nil
}

func (f *fakeStore) AbortMultipart(_ context.Context, u storage.MultipartUpload) error {
	f.record(call{Op: "abort", Key: u.Key})
	if err := f.abortErr[u.Key]; err != nil {
		return err
	}
	delete(f.pending, u.UploadID)
	return nil
}

type fakeRecording struct {
	id      string
	name    string
	data    []byte
	meta    map[string]string
	openErr error
	readErr error // returned after data is exhausted
	closed  bool
}

func (r *fakeRecording) ID() string                  { return r.id }
func (r *fakeRecording) DisplayName() string         { return r.name }
func (r *fakeRecording) Size() int64                 { return int64(len(r.data)) }
func (r *fakeRecording) Metadata() map[string]string { return r.meta }

func (r *fakeRecording) Open(context.Context) (io.ReadCloser, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	var rd io.Reader = bytes.NewReader(r.data)
	if r.readErr != nil {
		rd = io.MultiReader(rd, &errReader{err: r.readErr})
	}
	return &closer{Reader: rd, rec: r}, nil
}

type errReader struct{ err error }

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }

type closer struct {
	io.Reader
	rec *fakeRecording
}

func (c *closer) Close() error {
	c.rec.closed = true
	return nil
}

type report struct {
	Sev Severity
	ID  string
	Msg string
}

type fakeReporter struct{ reports []report }

func (f *fakeReporter) Report(sev Severity, id, msg string) {
	f.reports = append(f.reports, report{sev, id, msg})
}

func (f *fakeReporter) at(sev Severity) []report {
	var out []report
	for _, r := range f.reports {
		if r.Sev == sev {
			out = append(out, r)
		}
	}
	return out
}

var errBoom = errors.New("boom")
