// Package app wires configuration into the concrete store, Zoom client
// and mirror service shared by the Lambda and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.uber.org/zap"

	"github.com/stefando/zoomSyncAWS/internal/config"
	"github.com/stefando/zoomSyncAWS/internal/mirror"
	"github.com/stefando/zoomSyncAWS/internal/notify"
	"github.com/stefando/zoomSyncAWS/internal/storage"
	"github.com/stefando/zoomSyncAWS/internal/upload"
	"github.com/stefando/zoomSyncAWS/internal/zoom"
)

// sessionJob tags assumed-role sessions.
const sessionJob = "zoomsync"

// Deps is the wired object graph.
type Deps struct {
	Config  config.Config
	AWS     aws.Config
	Store   storage.ObjectStore
	Zoom    *zoom.Client
	Chain   notify.Chainer
	Service *mirror.Service
}

// LoadAWS loads the default AWS config, pinning the region when set.
func LoadAWS(ctx context.Context, cfg config.Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewStore returns the configured object store backend.
func NewStore(cfg config.Config, awsCfg aws.Config) (storage.ObjectStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMinio:
		return storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseTLS:    cfg.S3UseTLS,
			Region:    cfg.Region,
		})
	case config.BackendS3:
		opts := storage.S3Options{Endpoint: cfg.S3Endpoint, ForcePathStyle: cfg.S3PathStyle}
		switch {
		case cfg.S3RoleARN != "":
			p, err := storage.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), cfg.S3RoleARN, sessionJob)
			if err != nil {
				return nil, err
			}
			opts.Credentials = p
		case cfg.S3AccessKey != "":
			opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")
		}
		return storage.NewS3Store(awsCfg, opts), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// UploadOptions maps configuration onto orchestrator options.
func UploadOptions(cfg config.Config) []upload.Option {
	return []upload.Option{
		upload.WithChunkSize(cfg.ChunkSize),
		upload.WithStorageClass(cfg.StorageClass),
	}
}

// Build wires everything needed to mirror recordings.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*Deps, error) {
	if err := cfg.ValidateZoom(); err != nil {
		return nil, err
	}
	awsCfg, err := LoadAWS(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(cfg, awsCfg)
	if err != nil {
		return nil, err
	}

	zc := zoom.NewClient(cfg.ZoomISS, cfg.ZoomSecret, zoom.WithBaseURL(cfg.ZoomAPIURL))

	var chain notify.Chainer = notify.Nop{}
	if cfg.NextLambda != "" {
		chain = notify.NewLambdaInvoker(awsCfg, cfg.NextLambda)
	}

	svc := mirror.NewService(zc, store, chain, log, mirror.Config{
		Bucket:    cfg.Bucket,
		UserEmail: cfg.ZoomUserEmail,
		SyncDays:  cfg.SyncDays,
		Upload:    UploadOptions(cfg),
	})

	log.Info("services initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("backend", cfg.StorageBackend),
		zap.Bool("chained", cfg.NextLambda != ""))

	return &Deps{Config: cfg, AWS: awsCfg, Store: store, Zoom: zc, Chain: chain, Service: svc}, nil
}
