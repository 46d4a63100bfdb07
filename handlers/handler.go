package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamzab/drivebox-backend/apperrors"
	"github.com/hamzab/drivebox-backend/config"
	"github.com/hamzab/drivebox-backend/repository"
	"github.com/hamzab/drivebox-backend/services"
	"github.com/hamzab/drivebox-backend/storage"
)

// Handler bundles the dependencies the HTTP layer needs. Handlers stay thin:
// parse, call a service, map the error.
type Handler struct {
	Cfg       *config.Config
	Store     storage.Store
	Users     *repository.UserRepository
	Files     *repository.FileRepository
	Folders   *repository.FolderRepository
	Uploads   *services.UploadService
	Lifecycle *services.LifecycleService
	Shares    *services.ShareService
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrWrongPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "This link has expired"})
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Storage unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
