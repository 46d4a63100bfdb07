package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/models"
)

// Search categories expand to fixed extension sets.
var categoryExtensions = map[string][]string{
	"image":    {"jpg", "jpeg", "png", "gif", "webp", "svg", "bmp"},
	"video":    {"mp4", "mkv", "avi", "mov", "webm", "flv"},
	"audio":    {"mp3", "wav", "ogg", "flac", "m4a", "aac"},
	"document": {"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "md", "csv"},
	"archive":  {"zip", "rar", "7z", "tar", "gz", "bz2"},
}

// SearchFilters narrows a file search. Type is one of the category keys above;
// Ext is an exact extension match. Both optional.
type SearchFilters struct {
	Type string
	Ext  string
}

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.OriginalName == "" {
		return fmt.Errorf("%w: empty filename", apperrors.ErrInvalidInput)
	}
	if file.FolderID != nil {
		if err := r.checkFolderOwner(ctx, *file.FolderID, file.UserID); err != nil {
			return err
		}
	}
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	err := r.db.WithContext(ctx).First(&file, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: file %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &file, nil
}

// GetOwned fetches a file and enforces ownership in one step.
func (r *FileRepository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.File, error) {
	file, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.UserID != ownerID {
		return nil, fmt.Errorf("%w: file %s", apperrors.ErrUnauthorized, id)
	}
	return file, nil
}

// ListByParent returns the owner's active files under one folder (nil =
// root), ordered by display name. Rows of other owners never leak through.
func (r *FileRepository) ListByParent(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]models.File, error) {
	var files []models.File
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", ownerID)
	if parentID == nil {
		q = q.Where("folder_id IS NULL")
	} else {
		q = q.Where("folder_id = ?", *parentID)
	}
	if err := q.Order("original_name asc").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Search matches the owner's active files by name substring, with optional
// extension equality and category filters.
func (r *FileRepository) Search(ctx context.Context, ownerID uuid.UUID, query string, filters SearchFilters) ([]models.File, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL", ownerID)
	if query != "" {
		q = q.Where("lower(original_name) LIKE ?", "%"+lower(query)+"%")
	}
	if filters.Ext != "" {
		q = q.Where("extension = ?", lower(filters.Ext))
	}
	if filters.Type != "" {
		exts, ok := categoryExtensions[lower(filters.Type)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrInvalidInput, filters.Type)
		}
		q = q.Where("extension IN ?", exts)
	}
	var files []models.File
	if err := q.Order("original_name asc").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	return files, nil
}

func (r *FileRepository) Rename(ctx context.Context, id, ownerID uuid.UUID, newName string) error {
	if newName == "" {
		return fmt.Errorf("%w: empty filename", apperrors.ErrInvalidInput)
	}
	file, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(file).
		Updates(map[string]any{"original_name": newName, "updated_at": time.Now()}).Error
}

func (r *FileRepository) Move(ctx context.Context, id, ownerID uuid.UUID, folderID *uuid.UUID) error {
	file, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if folderID != nil {
		if err := r.checkFolderOwner(ctx, *folderID, ownerID); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Model(file).
		Updates(map[string]any{"folder_id": folderID, "updated_at": time.Now()}).Error
}

// Finalize records the verified size and checksum of a completed upload and
// touches updated_at.
func (r *FileRepository) Finalize(ctx context.Context, id uuid.UUID, size int64, checksum string) error {
	return r.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).
		Updates(map[string]any{"file_size": size, "checksum": checksum, "updated_at": time.Now()}).Error
}

// SoftDelete sets deleted_at and leaves updated_at alone, so updated_at keeps
// meaning "last content change".
func (r *FileRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).
		UpdateColumn("deleted_at", time.Now()).Error
}

// Restore clears deleted_at; a no-op for already-active rows.
func (r *FileRepository) Restore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.File{}).Where("id = ?", id).
		UpdateColumn("deleted_at", nil).Error
}

// HardDelete removes the row permanently.
func (r *FileRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.File{}, "id = ?", id).Error
}

// ListTrashed returns the owner's soft-deleted files, newest deletion first.
func (r *FileRepository) ListTrashed(ctx context.Context, ownerID uuid.UUID) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NOT NULL", ownerID).
		Order("deleted_at desc").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	return files, nil
}

// TrashedBefore lists soft-deleted files across all owners whose deletion is
// older than the cutoff. The TTL purge job feeds on it.
func (r *FileRepository) TrashedBefore(ctx context.Context, cutoff time.Time) ([]models.File, error) {
	var files []models.File
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("list expired trash: %w", err)
	}
	return files, nil
}

// SumSizeByOwner totals the active bytes an owner has stored.
func (r *FileRepository) SumSizeByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.File{}).
		Where("user_id = ? AND deleted_at IS NULL", ownerID).
		Select("COALESCE(SUM(file_size), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum sizes: %w", err)
	}
	return total, nil
}

func (r *FileRepository) checkFolderOwner(ctx context.Context, folderID, ownerID uuid.UUID) error {
	var folder models.Folder
	err := r.db.WithContext(ctx).First(&folder, "id = ?", folderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: folder %s", apperrors.ErrNotFound, folderID)
	}
	if err != nil {
		return fmt.Errorf("check folder: %w", err)
	}
	if folder.UserID != ownerID || folder.DeletedAt != nil {
		return fmt.Errorf("%w: folder %s does not belong to owner", apperrors.ErrInvalidInput, folderID)
	}
	return nil
}
