package upload

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunks(n int) []byte { return bytes.Repeat([]byte("z"), n*10) }

func TestUploadBatch_SkipUploadFail(t *testing.T) {
	store := newFakeStore("A")
	store.partErr = func(key string, n int32) error {
		if key == "C" && n == 2 {
			return errBoom
		}
		return nil
	}
	rep := &fakeReporter{}
	o := New(store, "bucket", rep, WithChunkSize(10))

	res, err := o.UploadBatch(context.Background(), []Recording{
		&fakeRecording{id: "A", data: chunks(1)},
		&fakeRecording{id: "B", data: chunks(3)},
		&fakeRecording{id: "C", data: chunks(2)},
	})
	require.NoError(t, err)

	assert.Equal(t, BatchResult{Uploaded: 1, Skipped: 1, Failed: 1}, res)
	assert.Empty(t, store.ops("A"))
	assert.Equal(t, []string{"begin", "part", "part", "part", "complete"}, store.ops("B"))
	assert.Equal(t, []string{"begin", "part", "part", "abort"}, store.ops("C"))
	assert.Equal(t, 1, store.count("list"))

	require.Len(t, rep.at(SeverityError), 1)
	assert.Equal(t, "C", rep.at(SeverityError)[0].ID)
	assert.Contains(t, rep.at(SeverityError)[0].Msg, "part 2: boom")
	assert.Empty(t, rep.at(SeverityAlert))
}

func TestUploadBatch_ListFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("unreachable")

	res, err := New(store, "bucket", nil).UploadBatch(context.Background(), []Recording{
		&fakeRecording{id: "A", data: chunks(1)},
	})

	assert.ErrorIs(t, err, ErrListExisting)
	var lerr *ListError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "bucket", lerr.Bucket)
	assert.Equal(t, BatchResult{}, res)
	assert.Equal(t, 1, len(store.calls), "only the list call is issued")
}

func TestUploadBatch_ZeroByteRecording(t *testing.T) {
	store := newFakeStore()
	res, err := New(store, "bucket", nil).UploadBatch(context.Background(), []Recording{
		&fakeRecording{id: "empty"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Uploaded)
	assert.Equal(t, []string{"begin", "complete"}, store.ops("empty"))
	assert.Equal(t, 0, store.count("part"))
}

func TestUploadBatch_AbortFailureAlerts(t *testing.T) {
	store := newFakeStore()
	store.completeErr["bad"] = errBoom
	store.abortErr["bad"] = errors.New("abort denied")
	rep := &fakeReporter{}

	res, err := New(store, "bucket", rep).UploadBatch(context.Background(), []Recording{
		&fakeRecording{id: "bad", data: []byte("abc")},
		&fakeRecording{id: "good", data: []byte("def")},
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Uploaded: 1, Failed: 1, AbortFailures: 1}, res)

	// The transfer error is reported as well as the alert.
	errs := rep.at(SeverityError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Msg, "boom")

	alerts := rep.at(SeverityAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, "bad", alerts[0].ID)
	assert.Contains(t, alerts[0].Msg, "upload-1")
	assert.Contains(t, alerts[0].Msg, "manually")
}

func TestUploadBatch_FailureIsolation(t *testing.T) {
	for k := 0; k < 4; k++ {
		store := newFakeStore()
		recs := make([]Recording, 4)
		for i := range recs {
			r := &fakeRecording{id: string(rune('a' + i)), data: chunks(2)}
			if i == k {
				r.readErr = errBoom
			}
			recs[i] = r
		}

		res, err := New(store, "bucket", nil, WithChunkSize(10)).UploadBatch(context.Background(), recs)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Uploaded, "failing index %d", k)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 4, store.count("begin"))
		assert.Equal(t, 1, store.count("abort"))
	}
}

func TestUploadBatch_SnapshotNotRefreshed(t *testing.T) {
	store := newFakeStore()
	rep := &fakeReporter{}

	res, err := New(store, "bucket", rep).UploadBatch(context.Background(), []Recording{
		&fakeRecording{id: "A", data: []byte("1")},
		&fakeRecording{id: "A", data: []byte("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Uploaded: 1, Skipped: 1}, res)
	assert.Equal(t, 1, store.count("list"))
	assert.Equal(t, []byte("1"), store.objects["A"])
	require.Len(t, rep.at(SeverityWarn), 1)
}

func TestUploadBatch_EmptyIDFails(t *testing.T) {
	store := newFakeStore()
	res, err := New(store, "bucket", nil).UploadBatch(context.Background(), []Recording{
		&fakeRecording{id: "", name: "orphan.mp4"},
		&fakeRecording{id: "ok"},
	})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Uploaded: 1, Failed: 1}, res)
	assert.Equal(t, 1, store.count("begin"))
}

func TestUploadBatch_CancelBetweenRecordings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rep := ReporterFunc(func(sev Severity, id, msg string) {
		if sev == SeverityInfo && strings.HasPrefix(msg, "uploaded") {
			cancel()
		}
	})

	store := newFakeStore()
	res, err := New(store, "bucket", rep).UploadBatch(ctx, []Recording{
		&fakeRecording{id: "first", data: []byte("1")},
		&fakeRecording{id: "second", data: []byte("2")},
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Uploaded)
	assert.Empty(t, store.ops("second"))
}

func TestShouldUpload(t *testing.T) {
	existing := KeySet{"A": {}}
	assert.False(t, ShouldUpload(&fakeRecording{id: "A"}, existing))
	assert.True(t, ShouldUpload(&fakeRecording{id: "B"}, existing))
	assert.True(t, ShouldUpload(&fakeRecording{id: "B"}, nil))
}

func TestExistingKeys(t *testing.T) {
	keys, err := ExistingKeys(context.Background(), newFakeStore("x", "y"), "bucket")
	require.NoError(t, err)
	assert.True(t, keys.Contains("x"))
	assert.False(t, keys.Contains("z"))
}
