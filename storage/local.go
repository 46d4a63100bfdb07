package storage

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hamzab/drivebox-backend/apperrors"
)

// LocalStore keeps objects under a base directory, mirroring the storage key
// as a relative path. Transfer handles are synthesized URLs that resolve back
// into this process; multipart parts are staged under .parts/<uploadID> and
// concatenated on completion. Part tags are md5 hex, matching S3 ETag
// semantics so clients behave identically across drivers.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (l *LocalStore) objectPath(key string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(key))
}

func (l *LocalStore) stagingDir(uploadID string) string {
	return filepath.Join(l.baseDir, ".parts", uploadID)
}

func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	path := l.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: write %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}
	return nil
}

func (l *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(l.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: key %s", apperrors.ErrNotFound, key)
		}
		return nil, 0, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return f, info.Size(), nil
}

// Delete is idempotent: a missing key is not an error.
func (l *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.objectPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

func (l *LocalStore) IssuePutAccess(ctx context.Context, key, contentType string) (TransferHandle, error) {
	return TransferHandle{Direct: true, ExpiresAt: time.Now().Add(presignTTL)}, nil
}

func (l *LocalStore) IssueGetAccess(ctx context.Context, key string) (TransferHandle, error) {
	return TransferHandle{Direct: true, ExpiresAt: time.Now().Add(presignTTL)}, nil
}

func (l *LocalStore) BeginMultipart(ctx context.Context, key, contentType string, partCount int) (MultipartPlan, error) {
	uploadID := uuid.New().String()
	if err := os.MkdirAll(l.stagingDir(uploadID), 0o755); err != nil {
		return MultipartPlan{}, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	plan := MultipartPlan{UploadID: uploadID}
	for n := 1; n <= partCount; n++ {
		plan.Parts = append(plan.Parts, TransferHandle{
			URL:        fmt.Sprintf("/api/upload/%s/parts/%d", uploadID, n),
			PartNumber: n,
			ExpiresAt:  time.Now().Add(presignTTL),
			Direct:     true,
		})
	}
	return plan, nil
}

// PutPart stages one part's bytes and returns its md5 tag.
func (l *LocalStore) PutPart(ctx context.Context, uploadID string, partNumber int, r io.Reader) (string, error) {
	dir := l.stagingDir(uploadID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: upload %s", apperrors.ErrNotFound, uploadID)
		}
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}

	f, err := os.Create(l.partPath(uploadID, partNumber))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(io.MultiWriter(f, h), r); err != nil {
		return "", fmt.Errorf("%w: write part %d: %v", apperrors.ErrStorageUnavailable, partNumber, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (l *LocalStore) partPath(uploadID string, partNumber int) string {
	return filepath.Join(l.stagingDir(uploadID), fmt.Sprintf("%05d", partNumber))
}

// CompleteMultipart checks the supplied tags against the staged parts, then
// concatenates them into the final object. Out-of-order or mismatched parts
// fail the whole completion; nothing is written in that case.
func (l *LocalStore) CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) (ObjectInfo, error) {
	dir := l.stagingDir(uploadID)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, fmt.Errorf("%w: upload %s", apperrors.ErrNotFound, uploadID)
		}
		return ObjectInfo{}, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	if !sort.SliceIsSorted(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber }) {
		return ObjectInfo{}, fmt.Errorf("%w: parts out of order", apperrors.ErrInvalidInput)
	}

	for _, p := range parts {
		tag, err := l.partTag(uploadID, p.PartNumber)
		if err != nil {
			return ObjectInfo{}, err
		}
		if tag != p.Tag {
			return ObjectInfo{}, fmt.Errorf("%w: tag mismatch on part %d", apperrors.ErrInvalidInput, p.PartNumber)
		}
	}

	path := l.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	out, err := os.Create(path)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer out.Close()

	h := sha256.New()
	var size int64
	for _, p := range parts {
		part, err := os.Open(l.partPath(uploadID, p.PartNumber))
		if err != nil {
			os.Remove(path)
			return ObjectInfo{}, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
		}
		n, err := io.Copy(io.MultiWriter(out, h), part)
		part.Close()
		if err != nil {
			os.Remove(path)
			return ObjectInfo{}, fmt.Errorf("%w: assemble part %d: %v", apperrors.ErrStorageUnavailable, p.PartNumber, err)
		}
		size += n
	}

	os.RemoveAll(dir)
	return ObjectInfo{Size: size, Checksum: hex.EncodeToString(h.Sum(nil))}, nil
}

func (l *LocalStore) partTag(uploadID string, partNumber int) (string, error) {
	f, err := os.Open(l.partPath(uploadID, partNumber))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: part %d was never transferred", apperrors.ErrInvalidInput, partNumber)
		}
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (l *LocalStore) AbortMultipart(ctx context.Context, key, uploadID string) error {
	if err := os.RemoveAll(l.stagingDir(uploadID)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return nil
}
