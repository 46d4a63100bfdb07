package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hamzab/drivebox-backend/auth/middleware"
	"github.com/hamzab/drivebox-backend/storage"
)

type initUploadRequest struct {
	Filename string     `json:"filename" binding:"required"`
	Size     int64      `json:"size" binding:"required"`
	FolderID *uuid.UUID `json:"folderId"`
}

func (h *Handler) InitUpload(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	var body initUploadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	result, err := h.Uploads.InitializeUpload(c.Request.Context(), userID, body.Filename, body.Size, body.FolderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fileId":        result.FileID,
		"uploadId":      result.UploadID,
		"presignedUrls": result.Plan.Parts,
	})
}

type completeUploadRequest struct {
	FileID   uuid.UUID               `json:"fileId" binding:"required"`
	UploadID string                  `json:"uploadId" binding:"required"`
	Parts    []storage.CompletedPart `json:"parts" binding:"required"`
}

func (h *Handler) CompleteUpload(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	var body completeUploadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	file, err := h.Uploads.CompleteUpload(c.Request.Context(), userID, body.FileID, body.UploadID, body.Parts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileId": file.ID, "storageKey": file.StorageKey})
}

type abortUploadRequest struct {
	FileID   uuid.UUID `json:"fileId" binding:"required"`
	UploadID string    `json:"uploadId" binding:"required"`
}

func (h *Handler) AbortUpload(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	var body abortUploadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.Uploads.AbortUpload(c.Request.Context(), userID, body.FileID, body.UploadID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadLocal is the single-shot path for small files (multipart form).
func (h *Handler) UploadLocal(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	var folderID *uuid.UUID
	if raw := c.PostForm("folderId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folderId"})
			return
		}
		folderID = &id
	}

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer src.Close()

	file, err := h.Uploads.UploadDirect(c.Request.Context(), userID, fileHeader.Filename, src, fileHeader.Size, folderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileId": file.ID, "storageKey": file.StorageKey})
}

// PutPart receives part bytes for the local storage driver. The route is only
// registered when the store implements storage.PartReceiver.
func (h *Handler) PutPart(c *gin.Context) {
	receiver, ok := h.Store.(storage.PartReceiver)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	partNumber, err := strconv.Atoi(c.Param("partNumber"))
	if err != nil || partNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid part number"})
		return
	}

	tag, err := receiver.PutPart(c.Request.Context(), c.Param("uploadId"), partNumber, c.Request.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"partNumber": partNumber, "partTag": tag})
}
