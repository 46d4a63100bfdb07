package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/config"
)

const presignTTL = 15 * time.Minute

// S3Store talks to an S3-compatible bucket (AWS or MinIO-style endpoint).
// Clients transfer bytes over presigned URLs; the server itself only touches
// the bucket for direct uploads, deletes and multipart finalization.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	bucket    string
}

func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = TargetPartSize
		}),
		bucket: cfg.AWSBucket,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        r,
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, 0, fmt.Errorf("%w: key %s", apperrors.ErrNotFound, key)
		}
		return nil, 0, fmt.Errorf("%w: get %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}

// Delete is idempotent: S3 returns success for missing keys already.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *S3Store) IssuePutAccess(ctx context.Context, key, contentType string) (TransferHandle, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return TransferHandle{}, fmt.Errorf("%w: presign put: %v", apperrors.ErrStorageUnavailable, err)
	}
	return TransferHandle{URL: req.URL, ExpiresAt: time.Now().Add(presignTTL)}, nil
}

func (s *S3Store) IssueGetAccess(ctx context.Context, key string) (TransferHandle, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return TransferHandle{}, fmt.Errorf("%w: presign get: %v", apperrors.ErrStorageUnavailable, err)
	}
	return TransferHandle{URL: req.URL, ExpiresAt: time.Now().Add(presignTTL)}, nil
}

func (s *S3Store) BeginMultipart(ctx context.Context, key, contentType string, partCount int) (MultipartPlan, error) {
	out, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      &s.bucket,
		Key:         &key,
		ContentType: &contentType,
	})
	if err != nil {
		return MultipartPlan{}, fmt.Errorf("%w: create multipart: %v", apperrors.ErrStorageUnavailable, err)
	}

	plan := MultipartPlan{UploadID: aws.ToString(out.UploadId)}
	for n := 1; n <= partCount; n++ {
		req, err := s.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     &s.bucket,
			Key:        &key,
			UploadId:   out.UploadId,
			PartNumber: aws.Int32(int32(n)),
		}, s3.WithPresignExpires(presignTTL))
		if err != nil {
			return MultipartPlan{}, fmt.Errorf("%w: presign part %d: %v", apperrors.ErrStorageUnavailable, n, err)
		}
		plan.Parts = append(plan.Parts, TransferHandle{
			URL:        req.URL,
			PartNumber: n,
			ExpiresAt:  time.Now().Add(presignTTL),
		})
	}
	return plan, nil
}

func (s *S3Store) CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) (ObjectInfo, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(int32(p.PartNumber)),
			ETag:       aws.String(p.Tag),
		})
	}

	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   &s.bucket,
		Key:      &key,
		UploadId: &uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		var noUpload *types.NoSuchUpload
		if errors.As(err, &noUpload) {
			return ObjectInfo{}, fmt.Errorf("%w: upload %s", apperrors.ErrNotFound, uploadID)
		}
		return ObjectInfo{}, fmt.Errorf("%w: complete multipart: %v", apperrors.ErrStorageUnavailable, err)
	}

	// The stored length comes from HeadObject so the metadata row records what
	// actually landed in the bucket, not what the client declared.
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("%w: head %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}

	return ObjectInfo{
		Size:     aws.ToInt64(head.ContentLength),
		Checksum: strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

func (s *S3Store) AbortMultipart(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   &s.bucket,
		Key:      &key,
		UploadId: &uploadID,
	})
	if err != nil {
		var noUpload *types.NoSuchUpload
		if errors.As(err, &noUpload) {
			return nil
		}
		return fmt.Errorf("%w: abort multipart: %v", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}
