package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"

	"github.com/hamzab/drivebox-backend/auth/middleware"
	"github.com/hamzab/drivebox-backend/models"
	"github.com/hamzab/drivebox-backend/repository"
)

// ListFiles returns the caller's folders and files under one parent
// (?folderId=, absent = root).
func (h *Handler) ListFiles(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	var parentID *uuid.UUID
	if raw := c.Query("folderId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folderId"})
			return
		}
		parentID = &id
	}

	folders, err := h.Folders.ListByParent(c.Request.Context(), userID, parentID)
	if err != nil {
		respondError(c, err)
		return
	}
	files, err := h.Files.ListByParent(c.Request.Context(), userID, parentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders, "files": files})
}

func (h *Handler) SearchFiles(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	files, err := h.Files.Search(c.Request.Context(), userID, c.Query("q"), repository.SearchFilters{
		Type: c.Query("type"),
		Ext:  c.Query("ext"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *Handler) RenameFile(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var body struct {
		NewName string `json:"newName"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.NewName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.Files.Rename(c.Request.Context(), id, userID, body.NewName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MoveFile(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var body struct {
		FolderID *uuid.UUID `json:"folderId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.Files.Move(c.Request.Context(), id, userID, body.FolderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteFile soft-deletes: the file moves to the trash, bytes stay put.
func (h *Handler) DeleteFile(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	if err := h.Lifecycle.SoftDelete(c.Request.Context(), userID, id, models.ResourceFile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DownloadFile redirects to a presigned URL when the store issues one, and
// streams the bytes itself for direct (local) handles.
func (h *Handler) DownloadFile(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	file, err := h.Files.GetOwned(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	handle, err := h.Store.IssueGetAccess(c.Request.Context(), file.StorageKey)
	if err != nil {
		respondError(c, err)
		return
	}
	if !handle.Direct {
		c.Redirect(http.StatusFound, handle.URL)
		return
	}

	body, size, err := h.Store.Get(c.Request.Context(), file.StorageKey)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalName))
	c.DataFromReader(http.StatusOK, size, file.ContentType, body, nil)
}

// BatchDownload streams a zip archive of the requested files. Ids the caller
// does not own, and ids that do not exist, are silently skipped.
func (h *Handler) BatchDownload(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	var body struct {
		FileIDs []uuid.UUID `json:"fileIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.FileIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="files.zip"`)

	zw := zip.NewWriter(c.Writer)
	defer zw.Close()

	for _, id := range body.FileIDs {
		file, err := h.Files.GetOwned(c.Request.Context(), id, userID)
		if err != nil {
			continue
		}
		if file.DeletedAt != nil {
			continue
		}

		src, _, err := h.Store.Get(c.Request.Context(), file.StorageKey)
		if err != nil {
			log.Printf("batch download: skipping %s: %v", file.ID, err)
			continue
		}
		entry, err := zw.Create(file.OriginalName)
		if err != nil {
			src.Close()
			return
		}
		if _, err := io.Copy(entry, src); err != nil {
			src.Close()
			return
		}
		src.Close()
	}
}

func (h *Handler) GetUsage(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	usage, err := h.Lifecycle.Usage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}
