package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hamzab/drivebox-backend/auth/middleware"
	"github.com/hamzab/drivebox-backend/models"
)

func (h *Handler) ListTrash(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	trash, err := h.Lifecycle.ListTrash(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trash)
}

func trashTarget(c *gin.Context) (models.ResourceType, uuid.UUID, bool) {
	kind := models.ResourceType(c.Param("type"))
	if kind != models.ResourceFile && kind != models.ResourceFolder {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource type"})
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return "", uuid.Nil, false
	}
	return kind, id, true
}

func (h *Handler) RestoreFromTrash(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	kind, id, ok := trashTarget(c)
	if !ok {
		return
	}

	if err := h.Lifecycle.Restore(c.Request.Context(), userID, id, kind); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) PurgeFromTrash(c *gin.Context) {
	userID := middleware.CurrentUser(c)
	kind, id, ok := trashTarget(c)
	if !ok {
		return
	}

	if err := h.Lifecycle.Purge(c.Request.Context(), userID, id, kind); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
