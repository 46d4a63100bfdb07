package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hamzab/drivebox-backend/models"
	"github.com/hamzab/drivebox-backend/repository"
	"github.com/hamzab/drivebox-backend/storage"
)

const testQuota = int64(1000)

type testEnv struct {
	db        *gorm.DB
	store     *storage.LocalStore
	files     *repository.FileRepository
	folders   *repository.FolderRepository
	links     *repository.ShareLinkRepository
	uploads   *UploadService
	lifecycle *LifecycleService
	shares    *ShareService
	alice     *models.User
	bob       *models.User
}

func newTestEnv(t *testing.T) *testEnv {
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

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	files := repository.NewFileRepository(db)
	folders := repository.NewFolderRepository(db)
	links := repository.NewShareLinkRepository(db)
	audit := repository.NewAuditLogRepository(db)

	env := &testEnv{
		db:        db,
		store:     store,
		files:     files,
		folders:   folders,
		links:     links,
		uploads:   NewUploadService(store, files, audit),
		lifecycle: NewLifecycleService(store, files, folders, audit, testQuota),
		shares:    NewShareService(links, files, folders, audit),
	}
	env.alice = env.createUser(t, "alice@example.com")
	env.bob = env.createUser(t, "bob@example.com")
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createFolder(t *testing.T, ownerID uuid.UUID, name string) *models.Folder {
	t.Helper()
	folder := &models.Folder{UserID: ownerID, Name: name}
	require.NoError(t, e.folders.Create(context.Background(), folder))
	return folder
}
