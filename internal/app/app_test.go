package app

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stefando/zoomSyncAWS/internal/config"
	"github.com/stefando/zoomSyncAWS/internal/notify"
	"github.com/stefando/zoomSyncAWS/internal/storage"
)

func baseConfig() config.Config {
	return config.Config{
		Bucket:         "recordings",
		StorageBackend: config.BackendS3,
		StorageClass:   storage.DefaultStorageClass,
		ChunkSize:      config.MinChunkSize,
		Region:         "us-east-1",
		ZoomISS:        "iss",
		ZoomSecret:     "secret",
		ZoomAPIURL:     "http://localhost",
		SyncDays:       30,
	}
}

func TestNewStore(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}

	cfg := baseConfig()
	store, err := NewStore(cfg, awsCfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.S3Store{}, store)

	cfg.S3AccessKey, cfg.S3SecretKey = "minio", "minio123"
	cfg.StorageBackend = config.BackendMinio
	cfg.S3Endpoint = "localhost:9000"
	store, err = NewStore(cfg, awsCfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.MinioStore{}, store)

	cfg.StorageBackend = "tape"
	_, err = NewStore(cfg, awsCfg)
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := baseConfig()
	deps, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, deps.Service)
	assert.IsType(t, notify.Nop{}, deps.Chain)

	cfg.NextLambda = "s3index"
	deps, err = Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &notify.LambdaInvoker{}, deps.Chain)
}

func TestBuild_RequiresZoom(t *testing.T) {
	cfg := baseConfig()
	cfg.ZoomSecret = ""
	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "ZOOM_SECRET")
}
