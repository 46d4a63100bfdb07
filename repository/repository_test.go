package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hamzab/drivebox-backend/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.File{},
		&models.ShareLink{},
		&models.AuditLogEntry{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createFolder(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, parentID *uuid.UUID) *models.Folder {
	t.Helper()
	folder := &models.Folder{UserID: ownerID, Name: name, ParentID: parentID}
	require.NoError(t, NewFolderRepository(db).Create(context.Background(), folder))
	return folder
}

func createFile(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string, folderID *uuid.UUID, size int64) *models.File {
	t.Helper()
	file := &models.File{
		UserID:       ownerID,
		FolderID:     folderID,
		OriginalName: name,
		Extension:    extOf(name),
		FileSize:     size,
		StorageKey:   "users/" + ownerID.String() + "/" + uuid.NewString() + "_" + name,
	}
	require.NoError(t, NewFileRepository(db).Create(context.Background(), file))
	return file
}

func fileFixture(ownerID uuid.UUID, name string) *models.File {
	return &models.File{
		UserID:       ownerID,
		OriginalName: name,
		Extension:    extOf(name),
		FileSize:     1,
		StorageKey:   "users/" + ownerID.String() + "/" + uuid.NewString() + "_" + name,
	}
}

func extOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return ""
}
