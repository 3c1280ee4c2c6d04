package zoom

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDownloader struct {
	url, token string
}

func (s *stubDownloader) Download(_ context.Context, u, tok string) (io.ReadCloser, error) {
	s.url, s.token = u, tok
	return io.NopCloser(strings.NewReader("data")), nil
}

func testMeeting() Meeting {
	return Meeting{
		UUID:      "uuid-1",
		ID:        81234567890,
		StartTime: time.Date(2020, 3, 4, 18, 0, 0, 0, time.UTC),
		RecordingFiles: []RecordingFile{
			{
				ID:             "file-video",
				RecordingStart: time.Date(2020, 3, 4, 18, 1, 0, 0, time.UTC),
				RecordingType:  "shared_screen_with_speaker_view",
				FileType:       "MP4",
				FileSize:       82854982,
				DownloadURL:    "https://zoom.us/rec/download/video",
			},
			{
				ID:             "file-audio",
				RecordingStart: time.Date(2020, 3, 5, 2, 30, 0, 0, time.UTC),
				RecordingType:  "audio_only",
				FileType:       "M4A",
				FileSize:       512,
			},
			{
				ID:             "file-chat",
				RecordingStart: time.Date(2020, 3, 4, 18, 1, 0, 0, time.UTC),
				RecordingType:  "chat_file",
				FileType:       "TXT",
			},
		},
	}
}

func TestRecording_DisplayName(t *testing.T) {
	recs := testMeeting().Recordings(nil, "")
	require.Len(t, recs, 3)

	assert.Equal(t, "2020-03-04 1301EST Speaker Video.mp4", recs[0].DisplayName())
	// Crosses midnight UTC; the name uses the Eastern date.
	assert.Equal(t, "2020-03-04 2130EST Session Audio.m4a", recs[1].DisplayName())
	assert.Equal(t, "2020-03-04 1301EST chat_file.txt", recs[2].DisplayName())
}

func TestRecording_Metadata(t *testing.T) {
	recs := testMeeting().Recordings(nil, "")

	assert.Equal(t, map[string]string{
		"meeting":   "81234567890",
		"year":      "2020",
		"month":     "3",
		"day":       "4",
		"timestamp": "1583344860",
		"type":      "Speaker Video",
		"format":    "video",
		"id":        "file-video",
		"size":      "83 MB",
	}, recs[0].Metadata())

	audio := recs[1].Metadata()
	assert.Equal(t, "audio", audio["format"])
	assert.Equal(t, "5", audio["day"])
	assert.Equal(t, "512 B", audio["size"])
}

func TestRecording_OpenUsesDownloadToken(t *testing.T) {
	dl := &stubDownloader{}
	rec := testMeeting().Recordings(dl, "webhook-token")[0]

	body, err := rec.Open(context.Background())
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, "https://zoom.us/rec/download/video", dl.url)
	assert.Equal(t, "webhook-token", dl.token)
	assert.Equal(t, "file-video", rec.ID())
	assert.Equal(t, int64(82854982), rec.Size())
}
