package zoom

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Meeting is a meeting with cloud recordings, as returned by the
// recordings endpoint and in recording webhooks.
type Meeting struct {
	UUID           string          `json:"uuid"`
	ID             int64           `json:"id"`
	Topic          string          `json:"topic"`
	StartTime      time.Time       `json:"start_time"`
	Duration       int             `json:"duration"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

// RecordingFile is one file of a meeting recording.
type RecordingFile struct {
	ID             string    `json:"id"`
	MeetingID      string    `json:"meeting_id"`
	RecordingStart time.Time `json:"recording_start"`
	RecordingEnd   time.Time `json:"recording_end"`
	RecordingType  string    `json:"recording_type"`
	FileType       string    `json:"file_type"`
	FileSize       int64     `json:"file_size"`
	DownloadURL    string    `json:"download_url"`
	Status         string    `json:"status"`
}

// Downloader opens recording content.
type Downloader interface {
	Download(ctx context.Context, downloadURL, accessToken string) (io.ReadCloser, error)
}

// Recordings wraps the meeting's files. downloadToken is the webhook
// token, empty for API listings.
func (m Meeting) Recordings(dl Downloader, downloadToken string) []*Recording {
	recs := make([]*Recording, 0, len(m.RecordingFiles))
	for _, f := range m.RecordingFiles {
		recs = append(recs, &Recording{meetingID: m.ID, file: f, token: downloadToken, dl: dl})
	}
	return recs
}

// End is the scheduled end of the meeting.
func (m Meeting) End() time.Time {
	return m.StartTime.Add(time.Duration(m.Duration) * time.Minute)
}

var typeNames = map[string]string{
	"shared_screen_with_gallery_view": "Gallery Video",
	"shared_screen_with_speaker_view": "Speaker Video",
	"audio_only":                      "Session Audio",
}

// Names are stamped in US Eastern standard time regardless of DST.
var est = time.FixedZone("EST", -5*60*60)

// Recording is one downloadable recording file. It satisfies
// upload.Recording.
type Recording struct {
	meetingID int64
	file      RecordingFile
	token     string
	dl        Downloader
}

// ID is the Zoom recording file id, used as the object key.
func (r *Recording) ID() string { return r.file.ID }

func (r *Recording) Size() int64 { return r.file.FileSize }

// TypeName is the display name of the recording type, or the raw type.
func (r *Recording) TypeName() string {
	if n, ok := typeNames[r.file.RecordingType]; ok {
		return n
	}
	return r.file.RecordingType
}

func (r *Recording) ext() string { return strings.ToLower(r.file.FileType) }

// DisplayName is e.g. "2020-03-04 1300EST Speaker Video.mp4".
func (r *Recording) DisplayName() string {
	start := r.file.RecordingStart.In(est).Format("2006-01-02 1504MST")
	return start + " " + r.TypeName() + "." + r.ext()
}

// Metadata is stored with the object and read by the index builder.
func (r *Recording) Metadata() map[string]string {
	start := r.file.RecordingStart.UTC()
	format := "video"
	if r.ext() == "m4a" {
		format = "audio"
	}
	return map[string]string{
		"meeting":   strconv.FormatInt(r.meetingID, 10),
		"year":      strconv.Itoa(start.Year()),
		"month":     strconv.Itoa(int(start.Month())),
		"day":       strconv.Itoa(start.Day()),
		"timestamp": strconv.FormatInt(start.Unix(), 10),
		"type":      r.TypeName(),
		"format":    format,
		"id":        r.file.ID,
		// SI units, "83 MB" / "500 B"; earlier index entries used "82.9 MB" / "500 Bytes".
		"size":      humanize.Bytes(uint64(max(r.file.FileSize, 0))),
	}
}

// Open streams the recording file from Zoom.
func (r *Recording) Open(ctx context.Context) (io.ReadCloser, error) {
	return r.dl.Download(ctx, r.file.DownloadURL, r.token)
}
