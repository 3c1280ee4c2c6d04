package storage

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig describes an S3-compatible endpoint reached through minio-go.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseTLS    bool
	Region    string
}

// MinioStore implements ObjectStore on the low-level minio-go Core API,
// which exposes the individual multipart calls.
type MinioStore struct {
	core *minio.Core
}

// NewMinioStore connects to the endpoint; no request is made until first use.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	core, err := minio.NewCore(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseTLS,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, &Error{Op: "NewMinioStore", Err: err}
	}
	return &MinioStore{core: core}, nil
}

// ListKeys lists every key in bucket. Core shadows the channel-based
// listing with a single-page call, so the embedded Client is used.
func (m *MinioStore) ListKeys(ctx context.Context, bucket string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	for obj := range m.core.Client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, &Error{Op: "ListKeys", Bucket: bucket, Err: obj.Err}
		}
		keys[obj.Key] = struct{}{}
	}
	return keys, nil
}

// BeginMultipart creates the upload with metadata, storage class and disposition.
func (m *MinioStore) BeginMultipart(ctx context.Context, bucket, key string, opts BeginOptions) (MultipartUpload, error) {
	uploadID, err := m.core.NewMultipartUpload(ctx, bucket, key, minio.PutObjectOptions{
		UserMetadata:       opts.Metadata,
		StorageClass:       opts.StorageClass,
		ContentDisposition: opts.ContentDisposition,
	})
	if err != nil {
		return MultipartUpload{}, &Error{Op: "BeginMultipart", Bucket: bucket, Key: key, Err: err}
	}
	return MultipartUpload{Bucket: bucket, Key: key, UploadID: uploadID}, nil
}

// UploadPart uploads one part and returns its ETag.
func (m *MinioStore) UploadPart(ctx context.Context, u MultipartUpload, partNumber int32, body []byte) (Part, error) {
	part, err := m.core.PutObjectPart(ctx, u.Bucket, u.Key, u.UploadID, int(partNumber),
		bytes.NewReader(body), int64(len(body)), minio.PutObjectPartOptions{})
	if err != nil {
		return Part{}, objectError("UploadPart", u, err)
	}
	return Part{Number: partNumber, ETag: part.ETag}, nil
}

// CompleteMultipart mirrors S3Store: an empty upload is sent as one empty part.
func (m *MinioStore) CompleteMultipart(ctx context.Context, u MultipartUpload, parts []Part) (string, error) {
	if len(parts) == 0 {
		p, err := m.UploadPart(ctx, u, 1, nil)
		if err != nil {
			return "", err
		}
		parts = []Part{p}
	}

	complete := make([]minio.CompletePart, len(parts))
	for i, p := range parts {
		complete[i] = minio.CompletePart{PartNumber: int(p.Number), ETag: p.ETag}
	}
	info, err := m.core.CompleteMultipartUpload(ctx, u.Bucket, u.Key, u.UploadID, complete, minio.PutObjectOptions{})
	if err != nil {
		return "", objectError("CompleteMultipart", u, err)
	}
	return info.ETag, nil
}

// AbortMultipart discards the upload and its parts.
func (m *MinioStore) AbortMultipart(ctx context.Context, u MultipartUpload) error {
	if err := m.core.AbortMultipartUpload(ctx, u.Bucket, u.Key, u.UploadID); err != nil {
		return objectError("AbortMultipart", u, err)
	}
	return nil
}
