package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/models"
	"github.com/hamzab/drivebox-backend/repository"
	"github.com/hamzab/drivebox-backend/storage"
)

// UploadService coordinates the multi-step upload protocol: init derives the
// storage key and registers a provisional metadata row, the client moves bytes
// over the transfer handles, complete finalizes both the object and the row.
// Storage-key uniqueness is structural (key suffix), so concurrent inits for
// the same filename never need locking; only completion is serialized per
// file id.
type UploadService struct {
	store    storage.Store
	files    *repository.FileRepository
	audit    *repository.AuditLogRepository
	mu       sync.Mutex
	inFlight map[uuid.UUID]*fileLock
}

type fileLock struct {
	mu   sync.Mutex
	refs int
}

func NewUploadService(store storage.Store, files *repository.FileRepository, audit *repository.AuditLogRepository) *UploadService {
	return &UploadService{
		store:    store,
		files:    files,
		audit:    audit,
		inFlight: make(map[uuid.UUID]*fileLock),
	}
}

// InitResult is what upload-init hands back to the client.
type InitResult struct {
	FileID   uuid.UUID
	UploadID string
	Plan     storage.MultipartPlan
}

func (s *UploadService) InitializeUpload(ctx context.Context, ownerID uuid.UUID, filename string, declaredSize int64, folderID *uuid.UUID) (*InitResult, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", apperrors.ErrInvalidInput)
	}
	if declaredSize <= 0 {
		return nil, fmt.Errorf("%w: size must be positive", apperrors.ErrInvalidInput)
	}

	key := storage.DeriveKey(ownerID, filename, time.Now())
	contentType := storage.MIMEByExtension(filename)

	file := &models.File{
		UserID:       ownerID,
		FolderID:     folderID,
		OriginalName: filename,
		Extension:    storage.Extension(filename),
		ContentType:  contentType,
		FileSize:     declaredSize,
		StorageKey:   key,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}

	plan, err := s.store.BeginMultipart(ctx, key, contentType, storage.PartCount(declaredSize))
	if err != nil {
		// No object exists yet; drop the provisional row rather than leave an
		// orphan the user can see.
		if derr := s.files.HardDelete(ctx, file.ID); derr != nil {
			log.Printf("remove provisional row %s: %v", file.ID, derr)
		}
		return nil, err
	}

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    ownerID,
		Action:     "upload.init",
		TargetType: "file",
		TargetID:   file.ID.String(),
		Metadata:   fmt.Sprintf(`{"name":%q,"size":%d,"parts":%d}`, filename, declaredSize, len(plan.Parts)),
	})

	return &InitResult{FileID: file.ID, UploadID: plan.UploadID, Plan: plan}, nil
}

// CompleteUpload finalizes a multipart upload. Parts must arrive strictly
// ascending by number with non-empty tags. The stored object's verified size
// and checksum replace whatever the client declared at init.
func (s *UploadService) CompleteUpload(ctx context.Context, ownerID, fileID uuid.UUID, uploadID string, parts []storage.CompletedPart) (*models.File, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parts supplied", apperrors.ErrInvalidInput)
	}
	prev := 0
	for _, p := range parts {
		if p.PartNumber <= prev {
			return nil, fmt.Errorf("%w: parts must be strictly ascending", apperrors.ErrInvalidInput)
		}
		if p.Tag == "" {
			return nil, fmt.Errorf("%w: missing tag for part %d", apperrors.ErrInvalidInput, p.PartNumber)
		}
		prev = p.PartNumber
	}

	unlock := s.lockFile(fileID)
	defer unlock()

	file, err := s.files.GetOwned(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}
	if file.Checksum != nil {
		return nil, fmt.Errorf("%w: file %s already finalized", apperrors.ErrConflict, fileID)
	}

	info, err := s.store.CompleteMultipart(ctx, file.StorageKey, uploadID, parts)
	if err != nil {
		return nil, err
	}
	if err := s.files.Finalize(ctx, fileID, info.Size, info.Checksum); err != nil {
		return nil, err
	}
	file.FileSize = info.Size
	file.Checksum = &info.Checksum

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    ownerID,
		Action:     "upload.complete",
		TargetType: "file",
		TargetID:   fileID.String(),
		Metadata:   fmt.Sprintf(`{"size":%d}`, info.Size),
	})
	return file, nil
}

// AbortUpload tears down a part-way upload: already-transferred parts are
// cleaned up best-effort, then the provisional row goes away.
func (s *UploadService) AbortUpload(ctx context.Context, ownerID, fileID uuid.UUID, uploadID string) error {
	unlock := s.lockFile(fileID)
	defer unlock()

	file, err := s.files.GetOwned(ctx, fileID, ownerID)
	if err != nil {
		return err
	}
	if file.Checksum != nil {
		return fmt.Errorf("%w: file %s already finalized", apperrors.ErrConflict, fileID)
	}

	if err := s.store.AbortMultipart(ctx, file.StorageKey, uploadID); err != nil {
		log.Printf("abort multipart %s: %v", uploadID, err)
	}
	if err := s.files.HardDelete(ctx, fileID); err != nil {
		return err
	}

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    ownerID,
		Action:     "upload.abort",
		TargetType: "file",
		TargetID:   fileID.String(),
	})
	return nil
}

// UploadDirect is the single-shot path for small files: checksum while
// writing, then a finalized metadata row in one step.
func (s *UploadService) UploadDirect(ctx context.Context, ownerID uuid.UUID, filename string, r io.Reader, size int64, folderID *uuid.UUID) (*models.File, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", apperrors.ErrInvalidInput)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive", apperrors.ErrInvalidInput)
	}

	key := storage.DeriveKey(ownerID, filename, time.Now())
	contentType := storage.MIMEByExtension(filename)

	pr, pw := io.Pipe()
	type sumResult struct {
		checksum string
		n        int64
		err      error
	}
	sumCh := make(chan sumResult, 1)
	go func() {
		checksum, n, err := storage.ComputeChecksum(io.TeeReader(r, pw))
		pw.CloseWithError(err)
		sumCh <- sumResult{checksum, n, err}
	}()

	if err := s.store.Put(ctx, key, pr, size, contentType); err != nil {
		pr.CloseWithError(err)
		<-sumCh
		return nil, err
	}
	sum := <-sumCh
	if sum.err != nil {
		return nil, fmt.Errorf("checksum: %w", sum.err)
	}

	file := &models.File{
		UserID:       ownerID,
		FolderID:     folderID,
		OriginalName: filename,
		Extension:    storage.Extension(filename),
		ContentType:  contentType,
		FileSize:     sum.n,
		StorageKey:   key,
		Checksum:     &sum.checksum,
	}
	if err := s.files.Create(ctx, file); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			log.Printf("cleanup %s after failed create: %v", key, derr)
		}
		return nil, err
	}

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    ownerID,
		Action:     "upload.direct",
		TargetType: "file",
		TargetID:   file.ID.String(),
		Metadata:   fmt.Sprintf(`{"name":%q,"size":%d}`, filename, sum.n),
	})
	return file, nil
}

// lockFile serializes finalization per file id so two concurrent completes
// (or a complete racing an abort) cannot double-finalize.
func (s *UploadService) lockFile(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.inFlight[id]
	if !ok {
		l = &fileLock{}
		s.inFlight[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.inFlight, id)
		}
		s.mu.Unlock()
	}
}
