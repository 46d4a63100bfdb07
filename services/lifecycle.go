package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/models"
	"github.com/hamzab/drivebox-backend/repository"
	"github.com/hamzab/drivebox-backend/storage"
)

// LifecycleService owns the trash workflow: soft delete, restore, permanent
// purge. Purge removes the storage object before the metadata row and
// tolerates storage failure — an orphaned blob is better than an orphaned
// metadata row the user can still see.
type LifecycleService struct {
	store      storage.Store
	files      *repository.FileRepository
	folders    *repository.FolderRepository
	audit      *repository.AuditLogRepository
	quotaBytes int64
}

func NewLifecycleService(store storage.Store, files *repository.FileRepository, folders *repository.FolderRepository, audit *repository.AuditLogRepository, quotaBytes int64) *LifecycleService {
	return &LifecycleService{
		store:      store,
		files:      files,
		folders:    folders,
		audit:      audit,
		quotaBytes: quotaBytes,
	}
}

// TrashContents is one owner's trash, newest deletion first in each list.
type TrashContents struct {
	Files   []models.File   `json:"files"`
	Folders []models.Folder `json:"folders"`
}

// SoftDelete moves a file or folder to the trash. The stored bytes stay
// untouched. Folder soft-delete does not cascade to children; cascade, when
// wanted, is an explicit caller loop.
func (s *LifecycleService) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, kind models.ResourceType) error {
	switch kind {
	case models.ResourceFile:
		if _, err := s.files.GetOwned(ctx, id, ownerID); err != nil {
			return err
		}
		if err := s.files.SoftDelete(ctx, id); err != nil {
			return err
		}
	case models.ResourceFolder:
		if _, err := s.folders.GetOwned(ctx, id, ownerID); err != nil {
			return err
		}
		if err := s.folders.SoftDelete(ctx, id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown resource type %q", apperrors.ErrInvalidInput, kind)
	}

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    ownerID,
		Action:     "trash.delete",
		TargetType: string(kind),
		TargetID:   id.String(),
	})
	return nil
}

func (s *LifecycleService) ListTrash(ctx context.Context, ownerID uuid.UUID) (*TrashContents, error) {
	files, err := s.files.ListTrashed(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	folders, err := s.folders.ListTrashed(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &TrashContents{Files: files, Folders: folders}, nil
}

// Restore clears the trash marker; idempotent when the resource is already
// active.
func (s *LifecycleService) Restore(ctx context.Context, ownerID, id uuid.UUID, kind models.ResourceType) error {
	switch kind {
	case models.ResourceFile:
		if _, err := s.files.GetOwned(ctx, id, ownerID); err != nil {
			return err
		}
		if err := s.files.Restore(ctx, id); err != nil {
			return err
		}
	case models.ResourceFolder:
		if _, err := s.folders.GetOwned(ctx, id, ownerID); err != nil {
			return err
		}
		if err := s.folders.Restore(ctx, id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown resource type %q", apperrors.ErrInvalidInput, kind)
	}

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    ownerID,
		Action:     "trash.restore",
		TargetType: string(kind),
		TargetID:   id.String(),
	})
	return nil
}

// Purge removes a resource permanently. For files the storage object goes
// first; a storage failure is logged and the metadata row is removed anyway,
// so purge is idempotent with respect to storage state. Folders have no
// storage object, only the row.
func (s *LifecycleService) Purge(ctx context.Context, ownerID, id uuid.UUID, kind models.ResourceType) error {
	switch kind {
	case models.ResourceFile:
		file, err := s.files.GetOwned(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, file.StorageKey); err != nil {
			log.Printf("purge: storage delete %s failed, removing metadata anyway: %v", file.StorageKey, err)
		}
		if err := s.files.HardDelete(ctx, id); err != nil {
			return err
		}
	case models.ResourceFolder:
		if _, err := s.folders.GetOwned(ctx, id, ownerID); err != nil {
			return err
		}
		if err := s.folders.HardDelete(ctx, id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown resource type %q", apperrors.ErrInvalidInput, kind)
	}

	s.audit.Append(ctx, &models.AuditLogEntry{
		ActorID:    ownerID,
		Action:     "trash.purge",
		TargetType: string(kind),
		TargetID:   id.String(),
	})
	return nil
}

// Usage reports an owner's stored bytes against the configured quota.
type Usage struct {
	UsedBytes  int64   `json:"usedBytes"`
	QuotaBytes int64   `json:"quotaBytes"`
	Percent    float64 `json:"percent"`
}

func (s *LifecycleService) Usage(ctx context.Context, ownerID uuid.UUID) (*Usage, error) {
	used, err := s.files.SumSizeByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	u := &Usage{UsedBytes: used, QuotaBytes: s.quotaBytes}
	if s.quotaBytes > 0 {
		u.Percent = float64(used) / float64(s.quotaBytes) * 100
	}
	return u, nil
}
