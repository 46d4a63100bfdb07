package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/models"
)

func lower(s string) string { return strings.ToLower(s) }

type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if folder.Name == "" {
		return fmt.Errorf("%w: empty folder name", apperrors.ErrInvalidInput)
	}
	if folder.ParentID != nil {
		if err := r.checkParent(ctx, *folder.ParentID, folder.UserID); err != nil {
			return err
		}
	}
	if err := r.db.WithContext(ctx).Create(folder).Error; err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (r *FolderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.WithContext(ctx).First(&folder, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: folder %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &folder, nil
}

func (r *FolderRepository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Folder, error) {
	folder, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder.UserID != ownerID {
		return nil, fmt.Errorf("%w: folder %s", apperrors.ErrUnauthorized, id)
	}
	return folder, nil
}

// ListByParent returns the owner's active folders under one parent (nil =
// root), ordered by name.
func (r *FolderRepository) ListByParent(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", ownerID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if err := q.Order("name asc").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

func (r *FolderRepository) Rename(ctx context.Context, id, ownerID uuid.UUID, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: empty folder name", apperrors.ErrInvalidInput)
	}
	folder, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(folder).
		Updates(map[string]any{"name": newName, "updated_at": time.Now()}).Error
}

func (r *FolderRepository) Move(ctx context.Context, id, ownerID uuid.UUID, parentID *uuid.UUID) error {
	folder, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if parentID != nil {
		if *parentID == id {
			return fmt.Errorf("%w: folder cannot be its own parent", apperrors.ErrInvalidInput)
		}
		if err := r.checkParent(ctx, *parentID, ownerID); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Model(folder).
		Updates(map[string]any{"parent_id": parentID, "updated_at": time.Now()}).Error
}

func (r *FolderRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", id).
		UpdateColumn("deleted_at", time.Now()).Error
}

func (r *FolderRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", id).
		UpdateColumn("deleted_at", nil).Error
}

func (r *FolderRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Folder{}, "id = ?", id).Error
}

func (r *FolderRepository) ListTrashed(ctx context.Context, ownerID uuid.UUID) ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NOT NULL", ownerID).
		Order("deleted_at desc").
		Find(&folders).Error
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	return folders, nil
}

// A parent must exist, be active, and belong to the same owner: no cross-user
// nesting.
func (r *FolderRepository) checkParent(ctx context.Context, parentID, ownerID uuid.UUID) error {
	var parent models.Folder
	err := r.db.WithContext(ctx).First(&parent, "id = ?", parentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: parent folder %s", apperrors.ErrNotFound, parentID)
	}
	if err != nil {
		return fmt.Errorf("check parent: %w", err)
	}
	if parent.UserID != ownerID || parent.DeletedAt != nil {
		return fmt.Errorf("%w: parent %s does not belong to owner", apperrors.ErrInvalidInput, parentID)
	}
	return nil
}
