package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hamzab/drivebox-backend/auth/middleware"
	"github.com/hamzab/drivebox-backend/config"
	"github.com/hamzab/drivebox-backend/handlers"
	"github.com/hamzab/drivebox-backend/initializers"
	"github.com/hamzab/drivebox-backend/jobs"
	"github.com/hamzab/drivebox-backend/repository"
	"github.com/hamzab/drivebox-backend/routes"
	"github.com/hamzab/drivebox-backend/services"
	"github.com/hamzab/drivebox-backend/storage"
)

func main() {
	cfg := config.Load()
	db := initializers.ConnectToDatabase(cfg.DBURL)

	var store storage.Store
	switch cfg.StorageDriver {
	case config.DriverS3:
		s3Store, err := storage.NewS3Store(context.Background(), cfg)
		if err != nil {
			log.Fatalf("init s3 storage: %v", err)
		}
		store = s3Store
	case config.DriverLocal:
		localStore, err := storage.NewLocalStore(cfg.LocalStoragePath)
		if err != nil {
			log.Fatalf("init local storage: %v", err)
		}
		store = localStore
	default:
		log.Fatalf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	users := repository.NewUserRepository(db)
	files := repository.NewFileRepository(db)
	folders := repository.NewFolderRepository(db)
	shares := repository.NewShareLinkRepository(db)
	audit := repository.NewAuditLogRepository(db)

	h := &handlers.Handler{
		Cfg:       cfg,
		Store:     store,
		Users:     users,
		Files:     files,
		Folders:   folders,
		Uploads:   services.NewUploadService(store, files, audit),
		Lifecycle: services.NewLifecycleService(store, files, folders, audit, cfg.DefaultQuotaBytes),
		Shares:    services.NewShareService(shares, files, folders, audit),
	}

	jobs.StartTrashPurgeJob(h.Lifecycle, files, cfg.TrashTTLDays)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimitMiddleware())

	routes.Register(router, h)

	log.Printf("listening on :%s (storage driver: %s)", cfg.Port, cfg.StorageDriver)
	log.Fatal(router.Run(":" + cfg.Port))
}
