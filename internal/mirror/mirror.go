// Package mirror drives uploads of Zoom meetings: one orchestrator batch
// per meeting, then a downstream trigger when anything new was stored.
package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stefando/zoomSyncAWS/internal/logging"
	"github.com/stefando/zoomSyncAWS/internal/notify"
	"github.com/stefando/zoomSyncAWS/internal/storage"
	"github.com/stefando/zoomSyncAWS/internal/upload"
	"github.com/stefando/zoomSyncAWS/internal/zoom"
)

// Source is the part of the Zoom client the service needs.
type Source interface {
	zoom.Downloader
	UserID(ctx context.Context, email string) (string, error)
	MeetingsWithRecordings(ctx context.Context, userID string, days int) ([]zoom.Meeting, error)
}

// Config holds the run settings.
type Config struct {
	Bucket    string
	UserEmail string
	SyncDays  int
	Upload    []upload.Option
}

// Summary totals one run across its meetings.
type Summary struct {
	BatchID  string `json:"batchId"`
	Meetings int    `json:"meetings"`
	upload.BatchResult
}

// Service mirrors Zoom recordings into the store.
type Service struct {
	source Source
	store  storage.ObjectStore
	chain  notify.Chainer
	log    *zap.Logger
	cfg    Config
}

// NewService creates a mirror service; a nil chain disables the downstream trigger.
func NewService(source Source, store storage.ObjectStore, chain notify.Chainer, log *zap.Logger, cfg Config) *Service {
	if chain == nil {
		chain = notify.Nop{}
	}
	return &Service{source: source, store: store, chain: chain, log: log, cfg: cfg}
}

// SyncUser uploads every recording of the configured user from the last
// SyncDays days.
func (s *Service) SyncUser(ctx context.Context) (Summary, error) {
	uid, err := s.source.UserID(ctx, s.cfg.UserEmail)
	if err != nil {
		if errors.Is(err, zoom.ErrUserNotFound) {
			return Summary{}, fmt.Errorf("cannot find user for email %s: %w", s.cfg.UserEmail, err)
		}
		return Summary{}, fmt.Errorf("failed to look up zoom user: %w", err)
	}

	meetings, err := s.source.MeetingsWithRecordings(ctx, uid, s.cfg.SyncDays)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list recordings: %w", err)
	}
	s.log.Info("found meetings with recordings", zap.Int("meetings", len(meetings)), zap.String("user", uid))
	return s.UploadMeetings(ctx, meetings, "")
}

// HandleWebhook uploads the meeting carried by a recording webhook.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) (Summary, error) {
	ev, err := zoom.ParseWebhook(body)
	if err != nil {
		return Summary{}, err
	}
	s.log.Info("recording webhook received", zap.String("event", ev.Event), zap.Int64("meeting", ev.Meeting().ID))
	return s.UploadMeetings(ctx, []zoom.Meeting{ev.Meeting()}, ev.DownloadToken)
}

// UploadMeetings runs one batch per meeting and sums the results. A fatal
// batch error stops the run; the downstream trigger still fires for
// whatever was stored before it.
func (s *Service) UploadMeetings(ctx context.Context, meetings []zoom.Meeting, downloadToken string) (Summary, error) {
	sum := Summary{BatchID: uuid.NewString()}
	log := s.log.With(zap.String("batch", sum.BatchID))
	orch := upload.New(s.store, s.cfg.Bucket, logging.NewReporter(log), s.cfg.Upload...)

	var runErr error
	for _, m := range meetings {
		files := m.Recordings(s.source, downloadToken)
		log.Info("uploading meeting recordings",
			zap.Int("recordings", len(files)),
			zap.Int64("meeting", m.ID),
			zap.String("date", m.StartTime.Format("2006-01-02")))

		recs := make([]upload.Recording, 0, len(files))
		for _, f := range files {
			recs = append(recs, f)
		}
		res, err := orch.UploadBatch(ctx, recs)
		sum.add(res)
		sum.Meetings++
		if err != nil {
			runErr = fmt.Errorf("meeting %d: %w", m.ID, err)
			break
		}
	}

	log.Info("done uploading",
		zap.Int("uploaded", sum.Uploaded),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int("abort_failures", sum.AbortFailures))

	if sum.Uploaded > 0 {
		if err := s.chain.Trigger(ctx, sum.Uploaded); err != nil {
			log.Error("downstream trigger failed", zap.Error(err))
			runErr = errors.Join(runErr, err)
		}
	}
	return sum, runErr
}

func (s *Summary) add(r upload.BatchResult) {
	s.Uploaded += r.Uploaded
	s.Skipped += r.Skipped
	s.Failed += r.Failed
	s.AbortFailures += r.AbortFailures
}
