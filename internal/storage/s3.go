package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the slice of the S3 client used by S3Store; tests supply a fake.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// S3Store implements ObjectStore on the AWS SDK.
type S3Store struct {
	client s3API
}

// S3Options tweak the client for S3-compatible endpoints.
type S3Options struct {
	Endpoint       string
	ForcePathStyle bool
	// Credentials overrides the provider from the base config, e.g. with an
	// assumed role.
	Credentials aws.CredentialsProvider
}

// NewS3Store builds an S3 client from the base AWS config.
func NewS3Store(cfg aws.Config, opts S3Options) *S3Store {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
		if opts.Credentials != nil {
			o.Credentials = opts.Credentials
		}
	})
	return &S3Store{client: client}
}

func newS3StoreWithClient(client s3API) *S3Store {
	return &S3Store{client: client}
}

// ListKeys returns every key in the bucket, following continuation tokens.
func (s *S3Store) ListKeys(ctx context.Context, bucket string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, &Error{Op: "ListKeys", Bucket: bucket, Err: err}
		}
		for _, obj := range page.Contents {
			keys[aws.ToString(obj.Key)] = struct{}{}
		}
	}
	return keys, nil
}

// BeginMultipart starts a multipart upload with the given metadata and attributes.
func (s *S3Store) BeginMultipart(ctx context.Context, bucket, key string, opts BeginOptions) (MultipartUpload, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Metadata: opts.Metadata,
	}
	if opts.StorageClass != "" {
		input.StorageClass = types.StorageClass(opts.StorageClass)
	}
	if opts.ContentDisposition != "" {
		input.ContentDisposition = aws.String(opts.ContentDisposition)
	}

	out, err := s.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return MultipartUpload{}, &Error{Op: "BeginMultipart", Bucket: bucket, Key: key, Err: err}
	}
	return MultipartUpload{Bucket: bucket, Key: key, UploadID: aws.ToString(out.UploadId)}, nil
}

// UploadPart sends one part and returns its receipt.
func (s *S3Store) UploadPart(ctx context.Context, u MultipartUpload, partNumber int32, body []byte) (Part, error) {
	out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(u.Key),
		UploadId:      aws.String(u.UploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return Part{}, objectError("UploadPart", u, fmt.Errorf("part %d: %w", partNumber, err))
	}
	return Part{Number: partNumber, ETag: aws.ToString(out.ETag)}, nil
}

// CompleteMultipart finalizes the upload. S3 rejects a completion without
// parts, so an empty part list first uploads a single empty part.
func (s *S3Store) CompleteMultipart(ctx context.Context, u MultipartUpload, parts []Part) (string, error) {
	if len(parts) == 0 {
		p, err := s.UploadPart(ctx, u, 1, nil)
		if err != nil {
			return "", err
		}
		parts = []Part{p}
	}

	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(u.Bucket),
		Key:      aws.String(u.Key),
		UploadId: aws.String(u.UploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: convertParts(parts),
		},
	})
	if err != nil {
		return "", objectError("CompleteMultipart", u, err)
	}
	return aws.ToString(out.ETag), nil
}

// AbortMultipart releases the upload and any stored parts.
func (s *S3Store) AbortMultipart(ctx context.Context, u MultipartUpload) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(u.Bucket),
		Key:      aws.String(u.Key),
		UploadId: aws.String(u.UploadID),
	})
	if err != nil {
		return objectError("AbortMultipart", u, err)
	}
	return nil
}

func convertParts(parts []Part) []types.CompletedPart {
	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{
			PartNumber: aws.Int32(p.Number),
			ETag:       aws.String(p.ETag),
		}
	}
	return completed
}
