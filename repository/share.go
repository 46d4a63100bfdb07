package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/models"
)

type ShareLinkRepository struct {
	db *gorm.DB
}

func NewShareLinkRepository(db *gorm.DB) *ShareLinkRepository {
	return &ShareLinkRepository{db: db}
}

func (r *ShareLinkRepository) Create(ctx context.Context, link *models.ShareLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("create share link: %w", err)
	}
	return nil
}

func (r *ShareLinkRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: share link %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get share link: %w", err)
	}
	return &link, nil
}

func (r *ShareLinkRepository) ListByCreator(ctx context.Context, creatorID string) ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at desc").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	return links, nil
}

func (r *ShareLinkRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.ShareLink{}, "id = ?", id).Error
}
