// Package storage abstracts the backing byte store. Business logic talks to
// the Store interface only; whether bytes land on S3 or the local disk is
// decided once at startup.
package storage

import (
	"context"
	"io"
	"time"
)

// TransferHandle lets a client move bytes directly to or from the backing
// store. For the S3 driver it is a presigned URL; the local driver synthesizes
// handles that resolve back into this process (Direct = true).
type TransferHandle struct {
	URL        string    `json:"url"`
	PartNumber int       `json:"partNumber,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Direct     bool      `json:"direct"`
}

// MultipartPlan is what upload-init hands back to the client: one handle per
// part plus the backend's upload id.
type MultipartPlan struct {
	UploadID string
	Parts    []TransferHandle
}

// CompletedPart pairs a part number with the tag the backend returned when the
// part was transferred (the S3 ETag, or the local driver's md5).
type CompletedPart struct {
	PartNumber int    `json:"partNumber"`
	Tag        string `json:"partTag"`
}

// ObjectInfo describes a stored object after finalization.
type ObjectInfo struct {
	Size     int64
	Checksum string
}

// Store is the uniform contract over a backing byte-storage medium.
// Delete is idempotent: deleting a missing key is not an error. Absent keys
// surface as apperrors.ErrNotFound; backend I/O faults as
// apperrors.ErrStorageUnavailable.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error

	IssuePutAccess(ctx context.Context, key, contentType string) (TransferHandle, error)
	IssueGetAccess(ctx context.Context, key string) (TransferHandle, error)

	BeginMultipart(ctx context.Context, key, contentType string, partCount int) (MultipartPlan, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) (ObjectInfo, error)
	AbortMultipart(ctx context.Context, key, uploadID string) error
}

// PartReceiver is the extra capability the local driver exposes so the HTTP
// layer can accept part bytes in-process. The S3 driver does not implement it;
// its part handles point straight at the bucket.
type PartReceiver interface {
	PutPart(ctx context.Context, uploadID string, partNumber int, r io.Reader) (tag string, err error)
}
