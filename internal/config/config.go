// Package config loads service settings from the environment and an
// optional config file. Keys match the Lambda environment variable names.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/stefando/zoomSyncAWS/internal/storage"
	"github.com/stefando/zoomSyncAWS/internal/upload"
)

// MinChunkSize is the smallest part size S3 accepts for non-final parts.
const MinChunkSize = 5 * 1024 * 1024

const (
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// Config is the resolved service configuration.
type Config struct {
	ZoomISS         string
	ZoomSecret      string
	ZoomWebhookAuth string
	ZoomUserEmail   string
	ZoomAPIURL      string
	SyncDays        int

	Bucket         string
	StorageBackend string
	StorageClass   string
	ChunkSize      int
	Region         string
	S3Endpoint     string
	S3PathStyle    bool
	S3AccessKey    string
	S3SecretKey    string
	S3UseTLS       bool
	S3RoleARN      string

	NextLambda string

	OIDCIssuer   string
	OIDCClientID string

	LogLevel    string
	MetricsAddr string
}

// NewViper returns a viper instance bound to the environment. When file is
// set it is read as well; environment values win.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ZOOM_API_URL", "https://api.zoom.us/v2")
	v.SetDefault("SYNC_DAYS", 30)
	v.SetDefault("STORAGE_BACKEND", BackendS3)
	v.SetDefault("STORAGE_CLASS", storage.DefaultStorageClass)
	v.SetDefault("CHUNK_SIZE", upload.DefaultChunkSize)
	v.SetDefault("S3_USE_TLS", true)
	v.SetDefault("LOG_LEVEL", "info")
}

// Load resolves and validates the storage side of the configuration.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		ZoomISS:         v.GetString("ZOOM_ISS"),
		ZoomSecret:      v.GetString("ZOOM_SECRET"),
		ZoomWebhookAuth: v.GetString("ZOOM_WEBHOOK_AUTH"),
		ZoomUserEmail:   v.GetString("ZOOM_USER_EMAIL"),
		ZoomAPIURL:      strings.TrimRight(v.GetString("ZOOM_API_URL"), "/"),
		SyncDays:        v.GetInt("SYNC_DAYS"),

		Bucket:         v.GetString("S3_BUCKET"),
		StorageBackend: strings.ToLower(v.GetString("STORAGE_BACKEND")),
		StorageClass:   v.GetString("STORAGE_CLASS"),
		ChunkSize:      v.GetInt("CHUNK_SIZE"),
		Region:         v.GetString("AWS_REGION"),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3PathStyle:    v.GetBool("S3_FORCE_PATH_STYLE"),
		S3AccessKey:    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:    v.GetString("S3_SECRET_KEY"),
		S3UseTLS:       v.GetBool("S3_USE_TLS"),
		S3RoleARN:      v.GetString("S3_ROLE_ARN"),

		NextLambda: v.GetString("NEXT_LAMBDA"),

		OIDCIssuer:   v.GetString("OIDC_ISSUER"),
		OIDCClientID: v.GetString("OIDC_CLIENT_ID"),

		LogLevel:    v.GetString("LOG_LEVEL"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings every entry point needs.
func (c Config) Validate() error {
	var errs *multierror.Error
	if c.Bucket == "" {
		errs = multierror.Append(errs, errors.New("S3_BUCKET is required"))
	}
	if c.ChunkSize < MinChunkSize {
		errs = multierror.Append(errs, fmt.Errorf("CHUNK_SIZE must be at least %d bytes, got %d", MinChunkSize, c.ChunkSize))
	}
	switch c.StorageBackend {
	case BackendS3:
	case BackendMinio:
		if c.S3Endpoint == "" {
			errs = multierror.Append(errs, errors.New("S3_ENDPOINT is required for the minio backend"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	return errs.ErrorOrNil()
}

// ValidateZoom checks the settings needed to talk to the Zoom API.
func (c Config) ValidateZoom() error {
	var errs *multierror.Error
	if c.ZoomISS == "" {
		errs = multierror.Append(errs, errors.New("ZOOM_ISS is required"))
	}
	if c.ZoomSecret == "" {
		errs = multierror.Append(errs, errors.New("ZOOM_SECRET is required"))
	}
	if c.SyncDays <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("SYNC_DAYS must be positive, got %d", c.SyncDays))
	}
	return errs.ErrorOrNil()
}

// OIDCEnabled reports whether operator-triggered syncs require a bearer token.
func (c Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}
