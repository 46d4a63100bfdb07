package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/hamzab/drivebox-backend/auth/middleware"
	"github.com/hamzab/drivebox-backend/handlers"
	"github.com/hamzab/drivebox-backend/storage"
)

func Register(r *gin.Engine, h *handlers.Handler) {
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)

	// Public share surface; no login required.
	r.GET("/s/:linkId", h.ResolveShare)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired(h.Cfg.JWTSecret))

	upload := api.Group("/upload")
	upload.POST("/init", h.InitUpload)
	upload.POST("/complete", h.CompleteUpload)
	upload.POST("/abort", h.AbortUpload)
	upload.POST("/local", h.UploadLocal)
	// The local driver takes part bytes in-process; presigned drivers point
	// clients straight at the bucket instead.
	if _, ok := h.Store.(storage.PartReceiver); ok {
		upload.PUT("/:uploadId/parts/:partNumber", h.PutPart)
	}

	api.GET("/files", h.ListFiles)
	api.GET("/files/search", h.SearchFiles)
	api.PUT("/files/:id/rename", h.RenameFile)
	api.PUT("/files/:id/move", h.MoveFile)
	api.DELETE("/files/:id", h.DeleteFile)
	api.GET("/files/:id/download", h.DownloadFile)
	api.POST("/download/batch", h.BatchDownload)

	api.POST("/folders", h.CreateFolder)
	api.PUT("/folders/:id/rename", h.RenameFolder)
	api.PUT("/folders/:id/move", h.MoveFolder)
	api.DELETE("/folders/:id", h.DeleteFolder)

	api.GET("/trash", h.ListTrash)
	api.POST("/trash/:type/:id/restore", h.RestoreFromTrash)
	api.DELETE("/trash/:type/:id", h.PurgeFromTrash)

	api.POST("/shares", h.CreateShare)
	api.GET("/shares", h.ListShares)
	api.DELETE("/shares/:id", h.RevokeShare)
	api.GET("/shares/:id/qr", h.ShareQR)

	api.GET("/usage", h.GetUsage)
}
