package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hamzab/drivebox-backend/auth/middleware"
	"github.com/hamzab/drivebox-backend/models"
)

func (h *Handler) CreateFolder(c *gin.Context) {
	userID := middleware.CurrentUser(c)

	var body struct {
		Name     string     `json:"name" binding:"required"`
		ParentID *uuid.UUID `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	folder := &models.Folder{
		UserID:   userID,
		ParentID: body.ParentID,
		Name:     body.Name,
	}
	if err := h.Folders.Create(c.Request.Context(), folder); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folder": folder})
}

func (h *Handler) RenameFolder(c *gin.Context) {
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

	if err := h.Folders.Rename(c.Request.Context(), id, userID, body.NewName); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) MoveFolder(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	var body struct {
		ParentID *uuid.UUID `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.Folders.Move(c.Request.Context(), id, userID, body.ParentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteFolder(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	if err := h.Lifecycle.SoftDelete(c.Request.Context(), userID, id, models.ResourceFolder); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
