package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefando/zoomSyncAWS/internal/storage"
	"github.com/stefando/zoomSyncAWS/internal/upload"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("S3_BUCKET", "recordings")

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "recordings", cfg.Bucket)
	assert.Equal(t, upload.DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, storage.DefaultStorageClass, cfg.StorageClass)
	assert.Equal(t, BackendS3, cfg.StorageBackend)
	assert.Equal(t, 30, cfg.SyncDays)
	assert.Equal(t, "https://api.zoom.us/v2", cfg.ZoomAPIURL)
	assert.False(t, cfg.OIDCEnabled())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("S3_BUCKET", "recordings")
	t.Setenv("NEXT_LAMBDA", "index-builder")
	t.Setenv("CHUNK_SIZE", "8388608")
	t.Setenv("ZOOM_API_URL", "http://localhost:8080/v2/")
	t.Setenv("METRICS_ADDR", "127.0.0.1:9100")

	v, err := NewViper("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "index-builder", cfg.NextLambda)
	assert.Equal(t, 8388608, cfg.ChunkSize)
	assert.Equal(t, "http://localhost:8080/v2", cfg.ZoomAPIURL)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoomsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("S3_BUCKET: from-file\nSTORAGE_BACKEND: minio\nS3_ENDPOINT: localhost:9000\n"), 0o600))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Bucket)
	assert.Equal(t, BackendMinio, cfg.StorageBackend)
}

func TestValidate(t *testing.T) {
	base := Config{Bucket: "b", ChunkSize: MinChunkSize, StorageBackend: BackendS3}
	require.NoError(t, base.Validate())

	tests := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"missing bucket", func(c *Config) { c.Bucket = "" }, "S3_BUCKET"},
		{"small chunk", func(c *Config) { c.ChunkSize = 1024 }, "CHUNK_SIZE"},
		{"minio without endpoint", func(c *Config) { c.StorageBackend = BackendMinio }, "S3_ENDPOINT"},
		{"unknown backend", func(c *Config) { c.StorageBackend = "gcs" }, "STORAGE_BACKEND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mod(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestValidateZoom(t *testing.T) {
	err := Config{SyncDays: 30}.ValidateZoom()
	assert.ErrorContains(t, err, "ZOOM_ISS")
	assert.ErrorContains(t, err, "ZOOM_SECRET")

	assert.NoError(t, Config{ZoomISS: "i", ZoomSecret: "s", SyncDays: 1}.ValidateZoom())
}
