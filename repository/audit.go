package repository

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/hamzab/drivebox-backend/models"
)

// AuditLogRepository only appends. A failed audit write is logged and never
// fails the operation it records.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Printf("audit append failed (action=%s): %v", entry.Action, err)
	}
}
